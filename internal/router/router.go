package router

import (
	"context"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// Decision is what the router extracts from one raw query: the primary intent,
// any location hint, and which collaborators the aggregator should invoke.
type Decision struct {
	Intent       domain.Intent
	Village      string
	State        string
	ShopCategory string
	NeedsWeather bool
	NeedsOrgs    bool
	NeedsPlaces  bool
}

// Router classifies a raw user query. Implementations must be safe for
// concurrent use.
type Router interface {
	Route(ctx context.Context, query string) (Decision, error)
}
