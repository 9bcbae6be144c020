package domain

// WeatherReport holds current conditions for a geocoded location. Fields that
// a provider did not supply are left at their zero value with the matching
// Has* flag unset.
type WeatherReport struct {
	LocationName string
	Lat          float64
	Lon          float64

	TemperatureC float32
	FeelsLikeC   float32
	Description  string
	Humidity     int
	PressureHPa  int
	WindSpeedMS  float32
	WindDegrees  int
	CloudCover   int

	PrecipProbability float32
	HasPrecipProb     bool

	Sources []string
}
