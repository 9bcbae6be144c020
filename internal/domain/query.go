package domain

import "time"

// Intent is the closed set of query categories the router can produce.
type Intent string

const (
	IntentWeather       Intent = "weather"
	IntentShop          Intent = "shop"
	IntentOrganization  Intent = "organization"
	IntentDirectory     Intent = "directory"
	IntentAdvisory      Intent = "advisory"
	IntentNotApplicable Intent = "not_applicable"
)

// QueryContext carries one user turn through the pipeline. It is not persisted
// beyond the turn unless the location is explicitly saved to the profile store.
type QueryContext struct {
	Query   string
	Village string
	State   string
	History []string
}

// Location is a geocoded place.
type Location struct {
	Village     string
	State       string
	Lat         float64
	Lon         float64
	DisplayName string
	Timestamp   time.Time
}

// QueryState tracks a query through the answer pipeline.
type QueryState string

const (
	QueryStateNew         QueryState = "new"
	QueryStateRouting     QueryState = "routing"
	QueryStateAggregating QueryState = "aggregating"
	QueryStateComposing   QueryState = "composing"
	QueryStateAnswered    QueryState = "answered"
	QueryStateRefused     QueryState = "refused"
)
