package domain

// Place is one result from the places/shop search.
type Place struct {
	Name       string
	Address    string
	DistanceKM float64
	MapURL     string
}

// FPO is a farmer producer organization directory entry.
type FPO struct {
	Name     string
	District string
	State    string
	Lat      float64
	Lon      float64
	Services []string
}
