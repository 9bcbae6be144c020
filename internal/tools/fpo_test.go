package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFPODirectory_SampleFallback(t *testing.T) {
	d, err := LoadFPODirectory("")
	require.NoError(t, err)

	assert.True(t, d.FromSample())
	assert.Greater(t, d.Len(), 0)
}

func TestFPODirectory_MissingFileFallsBack(t *testing.T) {
	d, err := LoadFPODirectory(filepath.Join(t.TempDir(), "fpo_data.json"))
	require.NoError(t, err)
	assert.True(t, d.FromSample())
}

func TestFPODirectory_LoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpo_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "Moga Kisan FPO", "district": "Moga", "state": "Punjab", "lat": 30.8165, "lon": 75.1717, "services": ["seeds"]},
		{"name": "", "state": "Punjab"},
		{"name": "No State FPO"}
	]`), 0o644))

	d, err := LoadFPODirectory(path)
	require.NoError(t, err)

	assert.False(t, d.FromSample())
	assert.Equal(t, 1, d.Len(), "records without name or state are dropped")
}

func TestFPODirectory_CorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpo_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := LoadFPODirectory(path)
	assert.Error(t, err)
}

func TestFPODirectory_Nearest(t *testing.T) {
	d, err := LoadFPODirectory("")
	require.NoError(t, err)

	// From Ludhiana: the Ludhiana FPO must rank first.
	nearest := d.Nearest(30.9010, 75.8573, 3)
	require.Len(t, nearest, 3)

	assert.Equal(t, "Punjab Kisan Producer Company Ltd", nearest[0].Name)
	assert.InDelta(t, 0, nearest[0].DistanceKM, 1)
	assert.LessOrEqual(t, nearest[0].DistanceKM, nearest[1].DistanceKM)
	assert.LessOrEqual(t, nearest[1].DistanceKM, nearest[2].DistanceKM)
}

func TestFPODirectory_NearestSkipsUnlocatedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpo_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "Located FPO", "district": "Moga", "state": "Punjab", "lat": 30.8165, "lon": 75.1717},
		{"name": "Unlocated FPO", "district": "Moga", "state": "Punjab"}
	]`), 0o644))

	d, err := LoadFPODirectory(path)
	require.NoError(t, err)

	nearest := d.Nearest(30.8, 75.2, 5)
	require.Len(t, nearest, 1)
	assert.Equal(t, "Located FPO", nearest[0].Name)
}

func TestFPODirectory_ByState(t *testing.T) {
	d, err := LoadFPODirectory("")
	require.NoError(t, err)

	punjab := d.ByState("punjab")
	require.NotEmpty(t, punjab)
	for _, f := range punjab {
		assert.Equal(t, "Punjab", f.State)
	}

	assert.Empty(t, d.ByState("goa"))
}
