package router

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// TextGenerator is the single LLM call the router needs.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const routePrompt = `Classify the user query for an agriculture assistant.
Respond with ONLY a JSON object, no prose, of the shape:
{"intent": "weather|shop|organization|directory|advisory|other",
 "village": "", "state": "", "shop_category": "", "needs_weather": false}

Rules:
- "organization" means FPO / farmer producer organisation lookups.
- "directory" means Krishi Vigyan Kendra (KVK) lookups.
- shop_category is one of: fertilizer shop, seed shop, pesticide shop, tractor dealer, farm machinery. Empty if no shop is requested.
- village/state only if the query names a place. Empty otherwise.
- "other" if the query is not about farming at all.

Query: `

type llmDecision struct {
	Intent       string `json:"intent"`
	Village      string `json:"village"`
	State        string `json:"state"`
	ShopCategory string `json:"shop_category"`
	NeedsWeather bool   `json:"needs_weather"`
}

// LLMRouter asks a language model for a structured classification. Any
// failure, from transport errors to malformed JSON, falls back to the
// deterministic keyword strategy so routing never depends on the model.
type LLMRouter struct {
	llm      TextGenerator
	fallback *KeywordRouter
}

func NewLLMRouter(llm TextGenerator) *LLMRouter {
	return &LLMRouter{llm: llm, fallback: NewKeywordRouter()}
}

func (r *LLMRouter) Route(ctx context.Context, query string) (Decision, error) {
	raw, err := r.llm.Generate(ctx, routePrompt+query)
	if err != nil {
		log.Printf("router: llm call failed, using keyword strategy: %v", err)
		return r.fallback.Route(ctx, query)
	}

	parsed, ok := parseDecision(raw)
	if !ok {
		log.Printf("router: malformed llm output, using keyword strategy")
		return r.fallback.Route(ctx, query)
	}

	d := Decision{
		Village:      strings.TrimSpace(parsed.Village),
		State:        strings.TrimSpace(parsed.State),
		ShopCategory: strings.TrimSpace(parsed.ShopCategory),
		NeedsWeather: parsed.NeedsWeather,
	}

	switch parsed.Intent {
	case "weather":
		d.Intent = domain.IntentWeather
		d.NeedsWeather = true
	case "shop":
		d.Intent = domain.IntentShop
		d.NeedsPlaces = true
	case "organization":
		d.Intent = domain.IntentOrganization
		d.NeedsOrgs = true
	case "directory":
		d.Intent = domain.IntentDirectory
		d.NeedsPlaces = true
	case "advisory":
		d.Intent = domain.IntentAdvisory
	case "other":
		d.Intent = domain.IntentNotApplicable
	default:
		// Unknown intent value counts as malformed output.
		log.Printf("router: llm returned unknown intent %q, using keyword strategy", parsed.Intent)
		return r.fallback.Route(ctx, query)
	}

	if d.ShopCategory != "" {
		d.NeedsPlaces = true
	}
	return d, nil
}

// parseDecision tolerates markdown code fences around the JSON object but
// nothing else.
func parseDecision(raw string) (llmDecision, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var d llmDecision
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return llmDecision{}, false
	}
	return d, true
}
