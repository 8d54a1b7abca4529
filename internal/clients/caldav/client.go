package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/domain"
)

const (
	// Apple iCloud CalDAV endpoint
	DefaultiCloudURL = "https://caldav.icloud.com"
)

// defaultPalette assigns display colors to calendars in discovery order;
// CalDAV itself does not expose the calendar color.
var defaultPalette = []string{
	"#007AFF", "#FF3B30", "#34C759", "#FF9500", "#AF52DE", "#5AC8FA", "#FFCC00",
}

// Client is a read-only CalDAV calendar provider. It satisfies
// agenda.Provider; events are only read, never written back.
type Client struct {
	baseURL  string
	username string
	password string
	loc      *time.Location

	mu     sync.Mutex
	client *caldav.Client
}

// NewClient creates a CalDAV provider. loc is the display timezone event
// times are normalized into.
func NewClient(baseURL, username, password string, loc *time.Location) *Client {
	if baseURL == "" {
		baseURL = DefaultiCloudURL
	}
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		loc:      loc,
	}
}

// IsConfigured returns true if the client has credentials.
func (c *Client) IsConfigured() bool {
	return c.username != "" && c.password != ""
}

// connect establishes the CalDAV connection once and reuses it.
func (c *Client) connect() (*caldav.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests.
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// RequestAccess verifies the account is reachable and the credentials are
// accepted.
func (c *Client) RequestAccess(ctx context.Context) error {
	if !c.IsConfigured() {
		return agenda.ErrPermissionDenied
	}

	client, err := c.connect()
	if err != nil {
		return err
	}

	if _, err := client.FindCurrentUserPrincipal(ctx); err != nil {
		if isAuthError(err) {
			return fmt.Errorf("%w: %v", agenda.ErrPermissionDenied, err)
		}
		return fmt.Errorf("find principal: %w", err)
	}
	return nil
}

// ListCalendars enumerates the account's calendars as aggregation sources.
func (c *Client) ListCalendars(ctx context.Context) ([]domain.CalendarSource, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		if isAuthError(err) {
			return nil, fmt.Errorf("%w: %v", agenda.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	sources := make([]domain.CalendarSource, 0, len(cals))
	for i, cal := range cals {
		name := cal.Name
		if name == "" {
			name = cal.Path
		}
		sources = append(sources, domain.CalendarSource{
			ID:    cal.Path,
			Name:  name,
			Color: defaultPalette[i%len(defaultPalette)],
		})
	}

	return sources, nil
}

// ListEvents queries one calendar for event instances in [start, end).
func (c *Client) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.RawEvent, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: start,
					End:   end,
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, calendarID, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	var events []domain.RawEvent
	for _, obj := range objects {
		events = append(events, c.parseCalendarObject(calendarID, &obj)...)
	}

	return events, nil
}

// parseCalendarObject converts every VEVENT of a CalDAV object (a recurring
// event's overrides arrive as sibling components) into raw events.
func (c *Client) parseCalendarObject(calendarID string, obj *caldav.CalendarObject) []domain.RawEvent {
	if obj.Data == nil {
		return nil
	}

	var events []domain.RawEvent
	for _, comp := range obj.Data.Children {
		if comp.Name != ical.CompEvent {
			continue
		}

		ev := domain.RawEvent{SourceID: calendarID}

		if prop := comp.Props.Get(ical.PropUID); prop != nil {
			ev.EventID = prop.Value
		}
		if prop := comp.Props.Get(ical.PropSummary); prop != nil {
			ev.Title = prop.Value
		}
		if prop := comp.Props.Get(ical.PropLocation); prop != nil {
			ev.Location = prop.Value
		}

		if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
			if t, err := prop.DateTime(c.loc); err == nil {
				ev.StartAt = t.In(c.loc)
			}
			if valueType := prop.Params.Get(ical.ParamValue); valueType == string(ical.ValueDate) {
				ev.AllDay = true
			}
		}
		if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
			if t, err := prop.DateTime(c.loc); err == nil {
				ev.EndAt = t.In(c.loc)
			}
		}

		if ev.EventID == "" || ev.StartAt.IsZero() {
			continue // unusable without an identity
		}

		events = append(events, ev)
	}

	return events
}

// isAuthError sniffs authentication failures from the DAV transport.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "Unauthorized") ||
		strings.Contains(msg, "Forbidden")
}
