package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/ingest"
	"github.com/stretchr/testify/mock"
)

// MockIngester is a mock implementation of DocumentIngester
type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) IngestAll(ctx context.Context, refs []string) []ingest.DocumentStats {
	args := m.Called(ctx, refs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]ingest.DocumentStats)
}

// TestIngestWorker_StartStop tests the worker start and stop functionality
func TestIngestWorker_StartStop(t *testing.T) {
	sources := []string{"data/pop_rabi.pdf"}

	ingester := new(MockIngester)
	ingester.On("IngestAll", mock.Anything, sources).Return([]ingest.DocumentStats{
		{Name: "pop_rabi", Skipped: true, Chunks: 4},
	})

	worker := NewIngestWorker(ingester, sources, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	// One immediate pass plus at least one tick.
	calls := len(ingester.Calls)
	if calls < 2 {
		t.Fatalf("expected at least 2 ingest passes, got %d", calls)
	}
}

// TestIngestWorker_ContextCancellation tests worker stops on context cancellation
func TestIngestWorker_ContextCancellation(t *testing.T) {
	sources := []string{"data/pop_rabi.pdf"}

	ingester := new(MockIngester)
	ingester.On("IngestAll", mock.Anything, sources).Return(nil)

	worker := NewIngestWorker(ingester, sources, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	ingester.AssertCalled(t, "IngestAll", mock.Anything, sources)
}

// TestIngestWorker_NoSources tests the worker stays idle without sources
func TestIngestWorker_NoSources(t *testing.T) {
	ingester := new(MockIngester)

	worker := NewIngestWorker(ingester, nil, 50*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(context.Background())
	}()

	time.Sleep(150 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	ingester.AssertNotCalled(t, "IngestAll", mock.Anything, mock.Anything)
}

func TestIngestWorker_LogsWarningsAndSkips(t *testing.T) {
	sources := []string{"data/pop_rabi.pdf", "s3://agri-docs/kvk_notes.pdf"}

	ingester := new(MockIngester)
	ingester.On("IngestAll", mock.Anything, sources).Return([]ingest.DocumentStats{
		{Name: "pop_rabi", Skipped: true, Chunks: 4},
		{Name: "kvk_notes", Chunks: 2, Embedded: 2, Warning: "1 chunk failed to embed"},
	})

	worker := NewIngestWorker(ingester, sources, time.Hour)
	worker.runCycle(context.Background())

	ingester.AssertExpectations(t)
}
