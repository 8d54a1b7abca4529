package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ymorita/hisho/internal/domain"
)

const BaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Doer performs an HTTP request; satisfied by *http.Client and test mocks.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches current conditions from OpenWeatherMap.
type Client struct {
	baseURL string
	apiKey  string
	lang    string
	http    Doer
}

// NewClient creates a weather client. lang controls condition descriptions
// (e.g. "ja").
func NewClient(apiKey, lang string) *Client {
	return &Client{
		baseURL: BaseURL,
		apiKey:  apiKey,
		lang:    lang,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientWithDoer is NewClient with an injectable HTTP doer.
func NewClientWithDoer(apiKey, lang, baseURL string, doer Doer) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, lang: lang, http: doer}
}

// IsConfigured returns true if an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp    float64 `json:"temp"`
		TempMax float64 `json:"temp_max"`
		TempMin float64 `json:"temp_min"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// Current returns the current conditions for city in metric units.
func (c *Client) Current(ctx context.Context, city string) (*domain.WeatherReport, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	if c.lang != "" {
		q.Set("lang", c.lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed owmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal weather: %w", err)
	}

	report := &domain.WeatherReport{
		City:        parsed.Name,
		Temperature: parsed.Main.Temp,
		High:        parsed.Main.TempMax,
		Low:         parsed.Main.TempMin,
	}
	if len(parsed.Weather) > 0 {
		report.Condition = parsed.Weather[0].Description
		report.Icon = parsed.Weather[0].Icon
	}

	return report, nil
}
