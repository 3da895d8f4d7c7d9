package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"recipe-api/domain"
)

// DefaultBaseURL is the public Open-Meteo host. The API is keyless.
const DefaultBaseURL = "https://api.open-meteo.com"

const defaultTimeout = 10 * time.Second

// Client fetches current weather conditions.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client. baseURL falls back to DefaultBaseURL when empty.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type currentResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// Current returns the conditions at the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (domain.Conditions, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current_weather", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return domain.Conditions{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Conditions{}, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return domain.Conditions{}, fmt.Errorf("weather: status %d", resp.StatusCode)
	}
	var wire currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return domain.Conditions{}, fmt.Errorf("weather: decode: %w", err)
	}
	return domain.Conditions{
		TemperatureC: wire.CurrentWeather.Temperature,
		WindSpeed:    wire.CurrentWeather.WindSpeed,
		Code:         wire.CurrentWeather.WeatherCode,
		Description:  describe(wire.CurrentWeather.WeatherCode),
	}, nil
}

// describe maps WMO weather codes to short labels.
func describe(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "partly cloudy"
	case code <= 48:
		return "fog"
	case code <= 57:
		return "drizzle"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "rain showers"
	case code <= 86:
		return "snow showers"
	default:
		return "thunderstorm"
	}
}
