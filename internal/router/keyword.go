package router

import (
	"context"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// agriStems is the fixed vocabulary that marks a query as agricultural.
// Matching is by substring on the lowercased query, so "fertil" covers
// fertilizer, fertiliser, and fertilization.
var agriStems = []string{
	"fertil", "irrig", "crop", "seed", "fpo", "soil", "pest",
	"tractor", "harvest", "kvk", "krishi", "weather", "rain",
	"sow", "mandi", "producer",
}

var weatherTerms = []string{"weather", "rain", "forecast", "temperature", "humidity"}

var orgTerms = []string{"fpo", "producer"}

var directoryTerms = []string{"kvk", "krishi vigyan kendra", "vigyan kendra"}

// shopCategories maps query phrases to the category keyword sent to the places
// search. Longer phrases come first so "fertilizer shop" wins over "fertilizer".
var shopCategories = []struct {
	phrase   string
	category string
}{
	{"fertilizer shop", "fertilizer shop"},
	{"seed shop", "seed shop"},
	{"pesticide shop", "pesticide shop"},
	{"tractor dealer", "tractor dealer"},
	{"farm machinery", "farm machinery"},
	{"fertilizer", "fertilizer shop"},
	{"pesticide", "pesticide shop"},
	{"tractor", "tractor dealer"},
	{"seed", "seed shop"},
}

// locationStoppers trim trailing add-ons from a location fragment, e.g.
// "moga, punjab also fpo" keeps only "moga, punjab".
var locationStoppers = []string{" also ", " and fpo", " also kvk", " also shop"}

// KeywordRouter classifies queries with deterministic stem matching. It needs
// no network call and serves as the fallback for the LLM strategy.
type KeywordRouter struct{}

func NewKeywordRouter() *KeywordRouter {
	return &KeywordRouter{}
}

func (r *KeywordRouter) Route(_ context.Context, query string) (Decision, error) {
	ql := strings.ToLower(query)

	if !containsAny(ql, agriStems) {
		return Decision{Intent: domain.IntentNotApplicable}, nil
	}

	d := Decision{Intent: domain.IntentAdvisory}
	d.Village, d.State = extractLocation(ql)
	d.NeedsWeather = containsAny(ql, weatherTerms)
	d.NeedsOrgs = containsAny(ql, orgTerms)

	// "seed" alone is an advisory stem; a shop category needs a buying cue or
	// an explicit "<thing> shop" phrase.
	wantsShop := strings.Contains(ql, "shop") || strings.Contains(ql, "dealer") ||
		strings.Contains(ql, "buy") || strings.Contains(ql, "machinery")
	if wantsShop {
		for _, sc := range shopCategories {
			if strings.Contains(ql, sc.phrase) {
				d.ShopCategory = sc.category
				d.NeedsPlaces = true
				break
			}
		}
	}

	switch {
	case d.NeedsOrgs:
		d.Intent = domain.IntentOrganization
	case containsAny(ql, directoryTerms):
		d.Intent = domain.IntentDirectory
		d.NeedsPlaces = true
	case d.NeedsPlaces:
		d.Intent = domain.IntentShop
	case d.NeedsWeather:
		d.Intent = domain.IntentWeather
	}

	return d, nil
}

// extractLocation pulls a "in <village>, <state>" hint out of the query.
func extractLocation(ql string) (village, state string) {
	_, frag, ok := strings.Cut(ql, " in ")
	if !ok {
		return "", ""
	}
	frag = strings.TrimSpace(frag)
	for _, stopper := range locationStoppers {
		if i := strings.Index(frag, stopper); i >= 0 {
			frag = strings.TrimSpace(frag[:i])
		}
	}
	frag = strings.TrimRight(frag, "?.!")

	v, s, ok := strings.Cut(frag, ",")
	if !ok {
		return "", ""
	}
	return strings.TrimSpace(v), strings.TrimSpace(s)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
