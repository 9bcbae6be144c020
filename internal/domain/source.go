package domain

// SourceKind tags the origin of a piece of evidence gathered for a query.
type SourceKind string

const (
	SourceRetrieval    SourceKind = "retrieval"
	SourceWeather      SourceKind = "weather"
	SourcePlaces       SourceKind = "places"
	SourceOrganization SourceKind = "organization"
)

// SourceDocument is the uniform representation of one piece of evidence
// consumed by the answer composer. One constructor exists per tool so the
// composer never branches on raw payload shapes.
type SourceDocument struct {
	Kind  SourceKind
	Title string
	Text  string
	Meta  map[string]any
}

// NewRetrievalSource wraps a scored advisory chunk as evidence.
func NewRetrievalSource(c ScoredChunk) SourceDocument {
	title := c.Heading
	if title == "" {
		title = c.Source
	}
	if title == "" {
		title = "Advisory"
	}
	return SourceDocument{
		Kind:  SourceRetrieval,
		Title: title,
		Text:  c.Text,
		Meta: map[string]any{
			"score":      c.Score,
			"source":     c.Source,
			"page_start": c.PageStart,
			"page_end":   c.PageEnd,
		},
	}
}

// NewWeatherSource wraps a weather report as evidence.
func NewWeatherSource(title, text string, lat, lon float64) SourceDocument {
	return SourceDocument{
		Kind:  SourceWeather,
		Title: title,
		Text:  text,
		Meta:  map[string]any{"lat": lat, "lon": lon},
	}
}

// NewPlacesSource wraps a places-search listing as evidence.
func NewPlacesSource(title, text string, count int) SourceDocument {
	return SourceDocument{
		Kind:  SourcePlaces,
		Title: title,
		Text:  text,
		Meta:  map[string]any{"count": count},
	}
}

// NewOrganizationSource wraps a farmer-organization listing as evidence.
func NewOrganizationSource(title, text string, count int) SourceDocument {
	return SourceDocument{
		Kind:  SourceOrganization,
		Title: title,
		Text:  text,
		Meta:  map[string]any{"count": count},
	}
}
