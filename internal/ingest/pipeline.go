package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

const (
	// embedBatchSize bounds the number of chunk texts sent to the embedding
	// provider in one call.
	embedBatchSize = 32

	// minExtractedChars marks a document as a data-quality warning when the
	// extractor produced less text than this (e.g. a scanned PDF with no OCR).
	minExtractedChars = 200
)

// Embedder converts texts into fixed-length normalized vectors. The same
// embedder instance must serve ingestion and query-time retrieval.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkIndex is the subset of the vector index the pipeline writes to.
type ChunkIndex interface {
	Upsert(ctx context.Context, records []domain.ChunkRecord) error
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
}

// DocumentStats reports the outcome of ingesting one document.
type DocumentStats struct {
	Name     string
	Skipped  bool
	Chunks   int
	Embedded int
	Warning  string
}

// Pipeline brings documents into the vector index exactly once per distinct
// content version.
type Pipeline struct {
	fetcher  *Fetcher
	embedder Embedder
	index    ChunkIndex
	manifest *Manifest
	chunkCfg ChunkConfig
}

func NewPipeline(fetcher *Fetcher, embedder Embedder, index ChunkIndex, manifest *Manifest) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		embedder: embedder,
		index:    index,
		manifest: manifest,
		chunkCfg: DefaultChunkConfig(),
	}
}

// IngestAll processes a batch of document references sequentially. A document
// that fails to fetch or extract is logged and skipped; the batch continues.
func (p *Pipeline) IngestAll(ctx context.Context, refs []string) []DocumentStats {
	stats := make([]DocumentStats, 0, len(refs))
	for _, ref := range refs {
		s, err := p.IngestDocument(ctx, ref)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", ref, err)
			continue
		}
		stats = append(stats, s)
	}
	return stats
}

// IngestDocument fetches, chunks, embeds, and upserts one document. Unchanged
// documents (same content hash as the manifest records) are a cheap no-op.
// Chunks whose ids already exist in the index are not re-embedded.
func (p *Pipeline) IngestDocument(ctx context.Context, ref string) (DocumentStats, error) {
	localPath, name, err := p.fetcher.Fetch(ctx, ref)
	if err != nil {
		return DocumentStats{}, err
	}

	hash, err := fileSHA256(localPath)
	if err != nil {
		return DocumentStats{}, fmt.Errorf("failed to hash %s: %w", localPath, err)
	}

	if entry, ok := p.manifest.Get(name); ok && entry.SHA256 == hash {
		log.Printf("ingest: %s unchanged, skipping", name)
		return DocumentStats{Name: name, Skipped: true, Chunks: entry.Chunks}, nil
	}

	pages, err := ExtractPages(localPath)
	if err != nil {
		return DocumentStats{}, err
	}

	stats := DocumentStats{Name: name}
	if totalChars(pages) < minExtractedChars {
		stats.Warning = "near-empty extraction"
		log.Printf("ingest: warning: %s yielded almost no text (scanned document without OCR?)", name)
	}

	chunks := ChunkPages(pages, name, p.chunkCfg)
	stats.Chunks = len(chunks)

	existing, err := p.index.ExistingIDs(ctx)
	if err != nil {
		return DocumentStats{}, fmt.Errorf("failed to list existing chunk ids: %w", err)
	}

	var missing []domain.Chunk
	for _, c := range chunks {
		if _, ok := existing[c.ID]; !ok {
			missing = append(missing, c)
		}
	}

	filename := filepath.Base(localPath)
	for start := 0; start < len(missing); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return DocumentStats{}, fmt.Errorf("failed to embed chunks for %s: %w", name, err)
		}

		records := make([]domain.ChunkRecord, len(batch))
		for i, c := range batch {
			records[i] = domain.ChunkRecord{Chunk: c, Filename: filename, Embedding: vectors[i]}
		}
		if err := p.index.Upsert(ctx, records); err != nil {
			return DocumentStats{}, fmt.Errorf("failed to upsert chunks for %s: %w", name, err)
		}
		stats.Embedded += len(batch)
	}

	p.manifest.Set(name, ManifestEntry{SHA256: hash, Chunks: len(chunks), Origin: ref})
	if err := p.manifest.Save(); err != nil {
		return DocumentStats{}, fmt.Errorf("failed to save manifest: %w", err)
	}

	log.Printf("ingest: %s done (%d chunks, %d embedded)", name, stats.Chunks, stats.Embedded)
	return stats, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func totalChars(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	return n
}
