package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://dataservice.accuweather.com"
	userAgent      = "Wayfarer/1.0"
)

// AccuWeatherClient implements Provider using the AccuWeather Daily Forecast
// API.
type AccuWeatherClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// AccuWeatherOpts holds parameters for creating an AccuWeatherClient.
type AccuWeatherOpts struct {
	APIKey  string
	BaseURL string // defaults to the public AccuWeather endpoint
	Timeout time.Duration
}

// NewAccuWeatherClient creates a forecast client.
func NewAccuWeatherClient(opts AccuWeatherOpts) (*AccuWeatherClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("weather: api key is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AccuWeatherClient{
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// dailyForecastResponse mirrors the AccuWeather daily forecast payload,
// reduced to the fields Wayfarer consumes.
type dailyForecastResponse struct {
	DailyForecasts []struct {
		Date        string `json:"Date"`
		Temperature struct {
			Maximum struct {
				Value float64 `json:"Value"`
			} `json:"Maximum"`
			Minimum struct {
				Value float64 `json:"Value"`
			} `json:"Minimum"`
		} `json:"Temperature"`
		Day        *halfDay `json:"Day"`
		Night      *halfDay `json:"Night"`
		MobileLink string   `json:"MobileLink"`
	} `json:"DailyForecasts"`
}

type halfDay struct {
	Wind *struct {
		Speed struct {
			Value float64 `json:"Value"`
		} `json:"Speed"`
	} `json:"Wind"`
	HasPrecipitation bool `json:"HasPrecipitation"`
}

// Forecast fetches the 1-day or 5-day forecast for a location key.
func (c *AccuWeatherClient) Forecast(ctx context.Context, locationKey string, days int) ([]DailyForecast, error) {
	if !ValidHorizon(days) {
		return nil, fmt.Errorf("weather: unsupported horizon %d (want 1 or 5)", days)
	}

	params := url.Values{}
	params.Add("apikey", c.apiKey)
	params.Add("details", "true")
	params.Add("metric", "true")

	reqURL := fmt.Sprintf("%s/forecasts/v1/daily/%dday/%s?%s",
		c.baseURL, days, locationKey, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("weather: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: forecast API returned status %d", resp.StatusCode)
	}

	var payload dailyForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("weather: decode forecast: %w", err)
	}

	forecasts := make([]DailyForecast, 0, len(payload.DailyForecasts))
	for _, d := range payload.DailyForecasts {
		fc := DailyForecast{
			TempMax: d.Temperature.Maximum.Value,
			TempMin: d.Temperature.Minimum.Value,
			Link:    d.MobileLink,
		}
		if t, err := time.Parse(time.RFC3339, d.Date); err == nil {
			fc.Date = t
		}
		if d.Day != nil {
			fc.PrecipDay = d.Day.HasPrecipitation
			if d.Day.Wind != nil {
				v := d.Day.Wind.Speed.Value
				fc.WindDay = &v
			}
		}
		if d.Night != nil {
			fc.PrecipNight = d.Night.HasPrecipitation
			if d.Night.Wind != nil {
				v := d.Night.Wind.Speed.Value
				fc.WindNight = &v
			}
		}
		forecasts = append(forecasts, fc)
	}

	return forecasts, nil
}
