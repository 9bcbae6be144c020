package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/compose"
	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/cloo-solutions/agrovisor/internal/router"
	"github.com/cloo-solutions/agrovisor/internal/telemetry"
)

// SourceAggregator collects evidence for a routed query.
type SourceAggregator interface {
	Aggregate(ctx context.Context, qc domain.QueryContext, d router.Decision) []domain.SourceDocument
}

// AnswerComposer merges sources into the final answer text.
type AnswerComposer interface {
	Compose(ctx context.Context, query string, sources []domain.SourceDocument) string
}

// ProfileStore supplies the saved location used when a query names no place.
type ProfileStore interface {
	LastLocation() (domain.Location, bool)
}

// QueryLogEntry records one completed query for evaluation.
type QueryLogEntry struct {
	Query       string
	Intent      domain.Intent
	State       domain.QueryState
	Village     string
	StateName   string
	SourceCount int
	Answer      string
	Duration    time.Duration
}

// QueryLogRepositoryInterface persists query logs.
type QueryLogRepositoryInterface interface {
	Create(ctx context.Context, entry QueryLogEntry) (string, error)
}

// Question is one user query with an optional explicit location. An explicit
// location overrides anything extracted from the query text.
type Question struct {
	Query   string
	Village string
	State   string
}

// Answer is the outcome of one query turn.
type Answer struct {
	Text        string
	Intent      domain.Intent
	State       domain.QueryState
	SourceCount int
}

// AdvisoryService drives a query through routing, aggregation, and
// composition. Every query ends answered or refused; collaborator failures
// degrade the answer, they never abort it.
type AdvisoryService struct {
	router     router.Router
	aggregator SourceAggregator
	composer   AnswerComposer
	profiles   ProfileStore
	queryLogs  QueryLogRepositoryInterface
}

// NewAdvisoryService creates the service. profiles and queryLogs may be nil.
func NewAdvisoryService(r router.Router, aggregator SourceAggregator, composer AnswerComposer, profiles ProfileStore, queryLogs QueryLogRepositoryInterface) *AdvisoryService {
	return &AdvisoryService{
		router:     r,
		aggregator: aggregator,
		composer:   composer,
		profiles:   profiles,
		queryLogs:  queryLogs,
	}
}

// Answer handles one user query end to end.
func (s *AdvisoryService) Answer(ctx context.Context, q Question) (Answer, error) {
	if strings.TrimSpace(q.Query) == "" {
		return Answer{}, domain.ErrEmptyQuery
	}
	started := time.Now()

	decision, err := s.router.Route(ctx, q.Query)
	if err != nil {
		return Answer{}, err
	}
	if q.Village != "" {
		decision.Village = q.Village
	}
	if q.State != "" {
		decision.State = q.State
	}

	ctx, span := telemetry.StartSpan(ctx, "AdvisoryService.Answer", telemetry.SpanAttributes{
		Intent:    string(decision.Intent),
		Village:   decision.Village,
		State:     decision.State,
		Operation: "answer",
	})
	defer span.End()

	// Out-of-domain queries short-circuit before any collaborator is touched.
	if decision.Intent == domain.IntentNotApplicable {
		ans := Answer{
			Text:   compose.RefusalOutOfDomain,
			Intent: decision.Intent,
			State:  domain.QueryStateRefused,
		}
		s.logQuery(ctx, q.Query, decision, ans, time.Since(started))
		return ans, nil
	}

	qc := domain.QueryContext{Query: q.Query, Village: decision.Village, State: decision.State}
	if qc.Village == "" && qc.State == "" && s.profiles != nil {
		if last, ok := s.profiles.LastLocation(); ok {
			qc.Village, qc.State = last.Village, last.State
		}
	}

	// An organization lookup with no state to scope it cannot be answered
	// from verified data.
	if decision.NeedsOrgs && decision.State == "" && qc.State == "" {
		ans := Answer{
			Text:   compose.RefusalInsufficientData,
			Intent: decision.Intent,
			State:  domain.QueryStateRefused,
		}
		s.logQuery(ctx, q.Query, decision, ans, time.Since(started))
		return ans, nil
	}

	sources := s.aggregator.Aggregate(ctx, qc, decision)
	text := s.composer.Compose(ctx, q.Query, sources)

	state := domain.QueryStateAnswered
	if text == compose.RefusalInsufficientData {
		state = domain.QueryStateRefused
	}

	ans := Answer{
		Text:        text,
		Intent:      decision.Intent,
		State:       state,
		SourceCount: len(sources),
	}
	s.logQuery(ctx, q.Query, decision, ans, time.Since(started))
	return ans, nil
}

func (s *AdvisoryService) logQuery(ctx context.Context, query string, d router.Decision, ans Answer, took time.Duration) {
	if s.queryLogs == nil {
		return
	}
	_, err := s.queryLogs.Create(ctx, QueryLogEntry{
		Query:       query,
		Intent:      ans.Intent,
		State:       ans.State,
		Village:     d.Village,
		StateName:   d.State,
		SourceCount: ans.SourceCount,
		Answer:      ans.Text,
		Duration:    took,
	})
	if err != nil {
		log.Printf("advisory: failed to write query log: %v", err)
		telemetry.CaptureError(ctx, err)
	}
}
