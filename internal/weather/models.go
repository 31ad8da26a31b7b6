package weather

// Category is a coarse, human readable weather condition.
type Category string

const (
	CategoryClear        Category = "Clear"
	CategoryClouds       Category = "Clouds"
	CategoryFog          Category = "Fog"
	CategoryDrizzle      Category = "Drizzle"
	CategoryRain         Category = "Rain"
	CategorySnow         Category = "Snow"
	CategoryRainShowers  Category = "Rain showers"
	CategorySnowShowers  Category = "Snow showers"
	CategoryThunderstorm Category = "Thunderstorm"
	CategoryUnknown      Category = "Unknown"
)

var icons = map[Category]string{
	CategoryClear:        "☀️",
	CategoryClouds:       "☁️",
	CategoryFog:          "🌫️",
	CategoryDrizzle:      "🌦️",
	CategoryRain:         "🌧️",
	CategorySnow:         "🌨️",
	CategoryRainShowers:  "🌦️",
	CategorySnowShowers:  "🌨️",
	CategoryThunderstorm: "⛈️",
}

// Icon returns a display glyph for the category.
func (c Category) Icon() string {
	if icon, ok := icons[c]; ok {
		return icon
	}
	return "🌡️"
}

// Coordinates is a point on the globe in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HourlySeries is one day of hourly weather codes as returned by a forecast
// source. Times and Codes are parallel; Times are local wall-clock
// timestamps such as "2024-03-01T07:00".
type HourlySeries struct {
	Times []string `json:"time"`
	Codes []int    `json:"weathercode"`
}

// Len is the number of usable (time, code) pairs.
func (s HourlySeries) Len() int {
	return min(len(s.Times), len(s.Codes))
}
