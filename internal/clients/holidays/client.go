package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const BaseURL = "https://date.nager.at/api/v3"

// Doer performs an HTTP request; satisfied by *http.Client and by test
// mocks.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Holiday is one public holiday as reported by the Nager.Date API.
type Holiday struct {
	Date      string `json:"date"` // YYYY-MM-DD
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

// Client fetches public holidays for one country. It implements
// agenda.HolidayProvider for the configured region.
type Client struct {
	baseURL string
	region  string // ISO 3166-1 alpha-2, e.g. "JP"
	http    Doer
}

// NewClient creates a holiday client for region.
func NewClient(region string) *Client {
	return &Client{
		baseURL: BaseURL,
		region:  region,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientWithDoer is NewClient with an injectable HTTP doer.
func NewClientWithDoer(region, baseURL string, doer Doer) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{baseURL: baseURL, region: region, http: doer}
}

// PublicHolidays returns the full holiday list of one year.
func (c *Client) PublicHolidays(ctx context.Context, year int) ([]Holiday, error) {
	url := fmt.Sprintf("%s/PublicHolidays/%d/%s", c.baseURL, year, c.region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday API returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var list []Holiday
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("unmarshal holidays: %w", err)
	}

	return list, nil
}

// Holidays returns the year's holiday dates as a YYYY-MM-DD set.
func (c *Client) Holidays(ctx context.Context, year int) (map[string]bool, error) {
	list, err := c.PublicHolidays(ctx, year)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(list))
	for _, h := range list {
		set[h.Date] = true
	}
	return set, nil
}
