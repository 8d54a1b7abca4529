package domain

// WeatherReport is the current conditions for one city, shaped the way the
// mobile front end renders them.
type WeatherReport struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"` // °C
	Condition   string  `json:"condition"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Icon        string  `json:"icon"`
}
