package jobs

import (
	"context"
	"log"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/ingest"
)

// DocumentIngester re-ingests a batch of document references.
type DocumentIngester interface {
	IngestAll(ctx context.Context, refs []string) []ingest.DocumentStats
}

// IngestWorker periodically re-ingests the configured document sources so
// updated remote documents flow into the index without a restart. Unchanged
// documents are hash-skipped by the pipeline, so an idle cycle is cheap.
type IngestWorker struct {
	pipeline DocumentIngester
	sources  []string
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(pipeline DocumentIngester, sources []string, interval time.Duration) *IngestWorker {
	return &IngestWorker{
		pipeline: pipeline,
		sources:  sources,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs one ingest pass immediately, then one per interval, so a fresh
// deployment serves data without waiting for the first tick. It blocks until
// Stop is called or the context is cancelled.
func (w *IngestWorker) Start(ctx context.Context) {
	defer close(w.doneChan)

	if len(w.sources) == 0 {
		log.Println("Ingest worker idle: no document sources configured")
		select {
		case <-ctx.Done():
		case <-w.stopChan:
		}
		return
	}

	log.Printf("Ingest worker started: %d sources, re-ingest every %v", len(w.sources), w.interval)

	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ingest worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("Ingest worker stopped: stop signal received")
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *IngestWorker) runCycle(ctx context.Context) {
	stats := w.pipeline.IngestAll(ctx, w.sources)

	embedded := 0
	skipped := 0
	for _, s := range stats {
		if s.Skipped {
			skipped++
			continue
		}
		embedded += s.Embedded
		if s.Warning != "" {
			log.Printf("Ingest warning for %s: %s", s.Name, s.Warning)
		}
	}

	if embedded > 0 {
		log.Printf("Re-ingest cycle complete: %d chunks embedded, %d documents unchanged", embedded, skipped)
	}
}

// Stop gracefully stops the worker
func (w *IngestWorker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("Ingest worker shutdown complete")
}
