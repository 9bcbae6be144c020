package ingest

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder derives a deterministic vector from each text.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls += len(texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		sum := sha256.Sum256([]byte(t))
		v := make([]float32, 4)
		for j := range v {
			v[j] = float32(sum[j]) / 255
		}
		out[i] = v
	}
	return out, nil
}

// fakeIndex is an in-memory chunk index.
type fakeIndex struct {
	records map[string]domain.ChunkRecord
	upserts int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: make(map[string]domain.ChunkRecord)}
}

func (f *fakeIndex) Upsert(_ context.Context, records []domain.ChunkRecord) error {
	for _, r := range records {
		f.records[r.ID] = r
		f.upserts++
	}
	return nil
}

func (f *fakeIndex) ExistingIDs(_ context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{}, len(f.records))
	for id := range f.records {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (f *fakeIndex) snapshot() map[string]string {
	out := make(map[string]string, len(f.records))
	for id, r := range f.records {
		out[id] = r.Text
	}
	return out
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestPipeline(t *testing.T, dir string) (*Pipeline, *fakeIndex, *fakeEmbedder) {
	t.Helper()
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)

	embedder := &fakeEmbedder{}
	index := newFakeIndex()
	p := NewPipeline(NewFetcher(filepath.Join(dir, "cache"), nil), embedder, index, manifest)
	return p, index, embedder
}

func TestPipeline_IngestDocument(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "kharif.txt", strings.Repeat("Paddy advisory line with details.\n", 40))
	p, index, embedder := newTestPipeline(t, dir)

	stats, err := p.IngestDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.False(t, stats.Skipped)
	assert.Equal(t, "kharif", stats.Name)
	assert.Greater(t, stats.Chunks, 0)
	assert.Equal(t, stats.Chunks, stats.Embedded)
	assert.Len(t, index.records, stats.Chunks)
	assert.Equal(t, stats.Chunks, embedder.calls)

	for id, r := range index.records {
		assert.True(t, strings.HasPrefix(id, "kharif-"))
		assert.Equal(t, "kharif.txt", r.Filename)
		assert.NotEmpty(t, r.Embedding)
	}
}

func TestPipeline_IdempotentIngestion(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "rabi.txt", strings.Repeat("Wheat sowing guidance for November.\n", 40))
	p, index, embedder := newTestPipeline(t, dir)

	ctx := context.Background()
	_, err := p.IngestDocument(ctx, doc)
	require.NoError(t, err)

	before := index.snapshot()
	callsBefore := embedder.calls
	upsertsBefore := index.upserts

	stats, err := p.IngestDocument(ctx, doc)
	require.NoError(t, err)

	assert.True(t, stats.Skipped)
	assert.Equal(t, before, index.snapshot())
	assert.Equal(t, callsBefore, embedder.calls, "unchanged document must not be re-embedded")
	assert.Equal(t, upsertsBefore, index.upserts, "unchanged document must not be re-upserted")
}

func TestPipeline_PartialReingestionEmbedsOnlyMissing(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("Zaid moong cultivation practices.\n", 40)
	doc := writeDoc(t, dir, "zaid.txt", content)
	p, index, embedder := newTestPipeline(t, dir)

	ctx := context.Background()
	stats, err := p.IngestDocument(ctx, doc)
	require.NoError(t, err)
	require.Greater(t, stats.Chunks, 1)

	// Simulate a partially populated index: drop one chunk and force a
	// content change so the manifest does not short-circuit.
	delete(index.records, "zaid-0")
	writeDoc(t, dir, "zaid.txt", content+"New closing note.\n")

	callsBefore := embedder.calls
	stats, err = p.IngestDocument(ctx, doc)
	require.NoError(t, err)

	assert.False(t, stats.Skipped)
	assert.Greater(t, embedder.calls, callsBefore)
	assert.Less(t, embedder.calls-callsBefore, stats.Chunks,
		"only missing ids should be embedded, not the whole document")
	_, ok := index.records["zaid-0"]
	assert.True(t, ok)
}

func TestPipeline_ManifestPersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "kharif.txt", strings.Repeat("Cotton pest scouting advice.\n", 40))

	p1, _, _ := newTestPipeline(t, dir)
	_, err := p1.IngestDocument(context.Background(), doc)
	require.NoError(t, err)

	// New pipeline, same manifest file: the document must be skipped.
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	require.Equal(t, 1, manifest.Len())

	embedder := &fakeEmbedder{}
	p2 := NewPipeline(NewFetcher(filepath.Join(dir, "cache"), nil), embedder, newFakeIndex(), manifest)
	stats, err := p2.IngestDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.True(t, stats.Skipped)
	assert.Zero(t, embedder.calls)
}

func TestPipeline_NearEmptyExtractionWarnsButIngests(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "scanned.txt", "short")
	p, index, _ := newTestPipeline(t, dir)

	stats, err := p.IngestDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "near-empty extraction", stats.Warning)
	assert.Len(t, index.records, 1)
}

func TestPipeline_IngestAllContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "good.txt", strings.Repeat("Mustard irrigation schedule.\n", 40))
	p, index, _ := newTestPipeline(t, dir)

	stats := p.IngestAll(context.Background(), []string{
		filepath.Join(dir, "missing.txt"),
		good,
	})

	require.Len(t, stats, 1)
	assert.Equal(t, "good", stats[0].Name)
	assert.NotEmpty(t, index.records)
}

func TestLoadManifest_Corrupt(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "manifest.json", "{not json")

	_, err := LoadManifest(path)
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeInternalError, derr.Code)
}

func TestManifest_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m, err := LoadManifest(path)
	require.NoError(t, err)
	m.Set("kharif", ManifestEntry{SHA256: "abc", Chunks: 7, Origin: "docs/kharif.pdf"})
	require.NoError(t, m.Save())

	reloaded, err := LoadManifest(path)
	require.NoError(t, err)
	entry, ok := reloaded.Get("kharif")
	require.True(t, ok)
	assert.Equal(t, ManifestEntry{SHA256: "abc", Chunks: 7, Origin: "docs/kharif.pdf"}, entry)
}
