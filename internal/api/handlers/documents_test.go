package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/agrovisor/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocumentIndex struct {
	docs  map[string]int
	total int
}

func (f *fakeDocumentIndex) Documents(ctx context.Context) (map[string]int, error) {
	return f.docs, nil
}

func (f *fakeDocumentIndex) Count(ctx context.Context) (int, error) {
	return f.total, nil
}

func TestDocumentsHandler_JoinsManifest(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "manifest.json")
	manifest, err := ingest.LoadManifest(manifestPath)
	require.NoError(t, err)
	manifest.Set("pop_rabi", ingest.ManifestEntry{SHA256: "abc123", Chunks: 4, Origin: "data/pop_rabi.pdf"})
	require.NoError(t, manifest.Save())

	idx := &fakeDocumentIndex{
		docs:  map[string]int{"pop_rabi": 4, "kvk_notes": 2},
		total: 6,
	}

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	rec := httptest.NewRecorder()
	NewDocumentsHandler(idx, manifestPath).List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data DocumentsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 6, resp.Data.TotalChunks)
	require.Len(t, resp.Data.Documents, 2)

	// Sorted by source name.
	assert.Equal(t, "kvk_notes", resp.Data.Documents[0].Source)
	assert.Empty(t, resp.Data.Documents[0].SHA256)

	assert.Equal(t, "pop_rabi", resp.Data.Documents[1].Source)
	assert.Equal(t, "abc123", resp.Data.Documents[1].SHA256)
	assert.Equal(t, "data/pop_rabi.pdf", resp.Data.Documents[1].Origin)
}

func TestDocumentsHandler_MissingManifestStillLists(t *testing.T) {
	idx := &fakeDocumentIndex{docs: map[string]int{"pop_rabi": 3}, total: 3}

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	rec := httptest.NewRecorder()
	NewDocumentsHandler(idx, filepath.Join(t.TempDir(), "absent.json")).List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data DocumentsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Documents, 1)
	assert.Equal(t, 3, resp.Data.Documents[0].Chunks)
}

func TestDocumentsHandler_CorruptManifestIsNonFatal(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(manifestPath, []byte("{broken"), 0o644))

	idx := &fakeDocumentIndex{docs: map[string]int{"pop_rabi": 3}, total: 3}

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	rec := httptest.NewRecorder()
	NewDocumentsHandler(idx, manifestPath).List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
