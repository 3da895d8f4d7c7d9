package domain

// Conditions describes current weather at a location.
type Conditions struct {
	TemperatureC float64 `json:"temperatureC"`
	WindSpeed    float64 `json:"windSpeed"`
	Code         int     `json:"code"`
	Description  string  `json:"description,omitempty"`
}

// WeatherSuggestion pairs current conditions with recipes that suit them.
type WeatherSuggestion struct {
	Conditions Conditions      `json:"conditions"`
	Theme      string          `json:"theme"`
	Recipes    []RecipeSummary `json:"recipes"`
}
