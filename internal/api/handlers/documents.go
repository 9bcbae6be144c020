package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"

	"github.com/cloo-solutions/agrovisor/internal/api"
	"github.com/cloo-solutions/agrovisor/internal/ingest"
)

// DocumentIndex reports what the vector index currently holds.
type DocumentIndex interface {
	Documents(ctx context.Context) (map[string]int, error)
	Count(ctx context.Context) (int, error)
}

type DocumentsHandler struct {
	index        DocumentIndex
	manifestPath string
}

func NewDocumentsHandler(index DocumentIndex, manifestPath string) *DocumentsHandler {
	return &DocumentsHandler{index: index, manifestPath: manifestPath}
}

type DocumentResponse struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
	SHA256 string `json:"sha256,omitempty"`
	Origin string `json:"origin,omitempty"`
}

type DocumentsResponse struct {
	Documents   []*DocumentResponse `json:"documents"`
	TotalChunks int                 `json:"total_chunks"`
}

// List reports each indexed document with its chunk count, joined with the
// ingest manifest when one exists. The manifest is re-read per request so the
// view stays current while the background worker re-ingests.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.index.Documents(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	total, err := h.index.Count(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	entries := map[string]ingest.ManifestEntry{}
	if h.manifestPath != "" {
		manifest, err := ingest.LoadManifest(h.manifestPath)
		if err != nil {
			log.Printf("documents: failed to read ingest manifest: %v", err)
		} else {
			entries = manifest.Entries()
		}
	}

	sources := make([]string, 0, len(docs))
	for source := range docs {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	responses := make([]*DocumentResponse, 0, len(sources))
	for _, source := range sources {
		resp := &DocumentResponse{Source: source, Chunks: docs[source]}
		if entry, ok := entries[source]; ok {
			resp.SHA256 = entry.SHA256
			resp.Origin = entry.Origin
		}
		responses = append(responses, resp)
	}

	api.Success(w, http.StatusOK, DocumentsResponse{
		Documents:   responses,
		TotalChunks: total,
	})
}
