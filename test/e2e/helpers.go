//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/aggregate"
	"github.com/cloo-solutions/agrovisor/internal/api/handlers"
	"github.com/cloo-solutions/agrovisor/internal/compose"
	"github.com/cloo-solutions/agrovisor/internal/index"
	"github.com/cloo-solutions/agrovisor/internal/ingest"
	"github.com/cloo-solutions/agrovisor/internal/profile"
	"github.com/cloo-solutions/agrovisor/internal/repository"
	"github.com/cloo-solutions/agrovisor/internal/retrieve"
	"github.com/cloo-solutions/agrovisor/internal/router"
	"github.com/cloo-solutions/agrovisor/internal/server"
	"github.com/cloo-solutions/agrovisor/internal/service"
	"github.com/cloo-solutions/agrovisor/internal/testutil"
	"github.com/cloo-solutions/agrovisor/internal/tools"
	"github.com/jackc/pgx/v5/pgxpool"
)

const embeddingDims = 1536

// bowEmbedder is a deterministic stand-in for the embedding provider: a
// normalized bag-of-words projection, so texts sharing words land close in
// cosine space. It serves both ingestion and query embedding, like the real
// client does.
type bowEmbedder struct{}

func (bowEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = bowVector(t)
	}
	return out, nil
}

func (e bowEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return bowVector(text), nil
}

func bowVector(text string) []float32 {
	v := make([]float32, embeddingDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,:;!?()\"'")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%embeddingDims]++
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	Index        *index.PGVector
	Pipeline     *ingest.Pipeline
	ManifestPath string
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full advisory stack backed by a pgvector container and
// a deterministic embedder. No external API keys are required.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	dataDir := t.TempDir()
	manifestPath := filepath.Join(dataDir, "manifest.json")
	manifest, err := ingest.LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}

	embedder := bowEmbedder{}
	vectorIndex := index.NewPGVector(pool)
	fetcher := ingest.NewFetcher(filepath.Join(dataDir, "cache"), nil)
	pipeline := ingest.NewPipeline(fetcher, embedder, vectorIndex, manifest)

	retriever := retrieve.NewRetriever(embedder, vectorIndex, retrieve.DefaultConfig())
	fpos, err := tools.LoadFPODirectory("")
	if err != nil {
		t.Fatalf("failed to load FPO directory: %v", err)
	}

	aggregator := aggregate.NewAggregator(
		retriever,
		tools.NewGeocoder("", ""),
		tools.NewWeatherClient("", ""),
		tools.NewPlacesClient(""),
		fpos,
	)
	queryLogs := repository.NewQueryLogRepository(pool)
	advisory := service.NewAdvisoryService(
		router.NewKeywordRouter(),
		aggregator,
		compose.NewComposer(nil),
		profile.NewStore(filepath.Join(dataDir, "profile.json")),
		queryLogs,
	)

	srv := httptest.NewServer(server.NewRouter(server.RouterConfig{
		QueryHandler:     handlers.NewQueryHandler(advisory),
		SearchHandler:    handlers.NewSearchHandler(retriever),
		DocumentsHandler: handlers.NewDocumentsHandler(vectorIndex, manifestPath),
		HealthHandler:    handlers.NewHealthHandler(pool, queryLogs),
	}))

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		Index:        vectorIndex,
		Pipeline:     pipeline,
		ManifestPath: manifestPath,
		ServerURL:    srv.URL,
		ServerCloser: srv.Close,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse mirrors the server's response envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Post sends a JSON POST and decodes the envelope.
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}

	resp, err := e.HTTPClient.Post(e.ServerURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp)
}

// Get sends a GET and decodes the envelope.
func (e *E2ETestEnv) Get(path string) (*APIResponse, int, error) {
	resp, err := e.HTTPClient.Get(e.ServerURL + path)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp)
}

func decodeEnvelope(resp *http.Response) (*APIResponse, int, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse response %q: %w", string(raw), err)
	}
	return &apiResp, resp.StatusCode, nil
}
