package aggregate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/cloo-solutions/agrovisor/internal/router"
	"github.com/cloo-solutions/agrovisor/internal/telemetry"
	"github.com/cloo-solutions/agrovisor/internal/tools"
)

const (
	// perCallTimeout bounds each collaborator call independently so one slow
	// provider cannot stall the whole aggregation.
	perCallTimeout = 10 * time.Second

	// maxPerSource caps each collaborator's contribution.
	maxPerSource = 5
)

// ChunkRetriever is the always-on advisory search.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error)
}

// Geocoder resolves a village/state pair to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, village, state string) (domain.Location, error)
}

// WeatherLookup reads current conditions for a coordinate.
type WeatherLookup interface {
	CurrentConditions(ctx context.Context, lat, lon float64) (domain.WeatherReport, error)
}

// PlacesSearch finds shops and KVK offices near a coordinate.
type PlacesSearch interface {
	SearchShops(ctx context.Context, category string, lat, lon float64) ([]domain.Place, error)
	SearchKVK(ctx context.Context, lat, lon float64) ([]domain.Place, error)
}

// OrgDirectory answers farmer-producer-organization lookups.
type OrgDirectory interface {
	Nearest(lat, lon float64, limit int) []tools.ScoredFPO
	ByState(state string) []domain.FPO
}

// Aggregator fans out to the retriever and the collaborators a routing
// decision selected, normalizing every result into source documents. A failed
// or timed-out call contributes nothing; partial results are the normal case.
type Aggregator struct {
	retriever ChunkRetriever
	geocoder  Geocoder
	weather   WeatherLookup
	places    PlacesSearch
	orgs      OrgDirectory
}

func NewAggregator(retriever ChunkRetriever, geocoder Geocoder, weather WeatherLookup, places PlacesSearch, orgs OrgDirectory) *Aggregator {
	return &Aggregator{
		retriever: retriever,
		geocoder:  geocoder,
		weather:   weather,
		places:    places,
		orgs:      orgs,
	}
}

// Aggregate collects source documents for one routed query. The returned slice
// is ordered retrieval, weather, places, organizations so answers stay stable
// across runs.
func (a *Aggregator) Aggregate(ctx context.Context, qc domain.QueryContext, d router.Decision) []domain.SourceDocument {
	village, state := d.Village, d.State
	if village == "" && state == "" {
		village, state = qc.Village, qc.State
	}

	var loc *domain.Location
	if a.needsCoordinates(d) && village != "" && state != "" {
		callCtx, cancel := context.WithTimeout(ctx, perCallTimeout)
		resolved, err := a.geocoder.Geocode(callCtx, village, state)
		cancel()
		if err != nil {
			log.Printf("aggregate: geocoding %s, %s failed, skipping location-bound tools: %v", village, state, err)
			telemetry.AddBreadcrumb(ctx, "aggregate", "geocoding failed, location-bound tools skipped")
		} else {
			loc = &resolved
		}
	}

	// Fixed slots keep source order deterministic regardless of which
	// goroutine finishes first.
	var slots [4][]domain.SourceDocument
	var wg sync.WaitGroup

	run := func(slot int, fn func(ctx context.Context) []domain.SourceDocument) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, perCallTimeout)
			defer cancel()
			slots[slot] = fn(callCtx)
		}()
	}

	run(0, func(ctx context.Context) []domain.SourceDocument {
		return a.collectRetrieval(ctx, qc.Query)
	})
	if d.NeedsWeather && loc != nil {
		run(1, func(ctx context.Context) []domain.SourceDocument {
			return a.collectWeather(ctx, *loc)
		})
	}
	if loc != nil && (d.ShopCategory != "" || d.Intent == domain.IntentDirectory) {
		run(2, func(ctx context.Context) []domain.SourceDocument {
			return a.collectPlaces(ctx, d, *loc)
		})
	}
	if d.NeedsOrgs && state != "" {
		run(3, func(ctx context.Context) []domain.SourceDocument {
			return a.collectOrgs(village, state, loc)
		})
	}
	wg.Wait()

	var sources []domain.SourceDocument
	for _, s := range slots {
		sources = append(sources, s...)
	}
	return sources
}

func (a *Aggregator) needsCoordinates(d router.Decision) bool {
	return d.NeedsWeather || d.ShopCategory != "" || d.Intent == domain.IntentDirectory || d.NeedsOrgs
}

func (a *Aggregator) collectRetrieval(ctx context.Context, query string) []domain.SourceDocument {
	chunks, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		log.Printf("aggregate: advisory retrieval failed: %v", err)
		telemetry.AddBreadcrumb(ctx, "aggregate", "advisory retrieval contributed nothing")
		return nil
	}
	if len(chunks) > maxPerSource {
		chunks = chunks[:maxPerSource]
	}

	docs := make([]domain.SourceDocument, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, domain.NewRetrievalSource(c))
	}
	return docs
}

func (a *Aggregator) collectWeather(ctx context.Context, loc domain.Location) []domain.SourceDocument {
	report, err := a.weather.CurrentConditions(ctx, loc.Lat, loc.Lon)
	if err != nil {
		log.Printf("aggregate: weather lookup failed for %s: %v", loc.DisplayName, err)
		telemetry.AddBreadcrumb(ctx, "aggregate", "weather lookup contributed nothing")
		return nil
	}

	text := strings.Join(tools.AgronomicAdvice(report), "\n")
	title := "Weather for " + loc.DisplayName
	return []domain.SourceDocument{domain.NewWeatherSource(title, text, loc.Lat, loc.Lon)}
}

func (a *Aggregator) collectPlaces(ctx context.Context, d router.Decision, loc domain.Location) []domain.SourceDocument {
	var (
		places []domain.Place
		err    error
		label  string
	)
	if d.Intent == domain.IntentDirectory {
		label = "KVK"
		places, err = a.places.SearchKVK(ctx, loc.Lat, loc.Lon)
	} else {
		label = titleWords(d.ShopCategory)
		places, err = a.places.SearchShops(ctx, d.ShopCategory, loc.Lat, loc.Lon)
	}
	if err != nil {
		log.Printf("aggregate: places search failed for %s: %v", loc.DisplayName, err)
		telemetry.AddBreadcrumb(ctx, "aggregate", "places search contributed nothing")
		return nil
	}
	if len(places) == 0 {
		return nil
	}
	if len(places) > maxPerSource {
		places = places[:maxPerSource]
	}

	lines := make([]string, 0, len(places))
	for _, p := range places {
		line := fmt.Sprintf("%s - %s (%.1f km)", p.Name, p.Address, p.DistanceKM)
		if p.MapURL != "" {
			line += "\n" + p.MapURL
		}
		lines = append(lines, line)
	}

	title := fmt.Sprintf("%s near %s", label, loc.DisplayName)
	return []domain.SourceDocument{domain.NewPlacesSource(title, strings.Join(lines, "\n"), len(places))}
}

func (a *Aggregator) collectOrgs(village, state string, loc *domain.Location) []domain.SourceDocument {
	var lines []string
	if loc != nil {
		for _, f := range a.orgs.Nearest(loc.Lat, loc.Lon, maxPerSource) {
			lines = append(lines, fmt.Sprintf("%s - %s (%.1f km) | %s", f.Name, f.District, f.DistanceKM, strings.Join(f.Services, ", ")))
		}
	} else {
		for i, f := range a.orgs.ByState(state) {
			if i >= maxPerSource {
				break
			}
			lines = append(lines, fmt.Sprintf("%s - %s | %s", f.Name, f.District, strings.Join(f.Services, ", ")))
		}
	}
	if len(lines) == 0 {
		return nil
	}

	title := "FPOs in/near "
	if village != "" {
		title += village + ", "
	}
	title += state
	return []domain.SourceDocument{domain.NewOrganizationSource(title, strings.Join(lines, "\n"), len(lines))}
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
