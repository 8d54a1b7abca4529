package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/domain"
)

const defaultColor = "#4285F4"

// Client is a read-only Google Calendar provider satisfying agenda.Provider.
type Client struct {
	service *calendar.Service
	loc     *time.Location
}

// NewClient builds an authenticated Google Calendar provider from an OAuth
// client and a previously saved token file.
func NewClient(ctx context.Context, clientID, clientSecret, tokenFile string, loc *time.Location) (*Client, error) {
	if loc == nil {
		loc = time.Local
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("load token %s: %w", tokenFile, err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &Client{service: service, loc: loc}, nil
}

// RequestAccess probes the account with a minimal calendar-list call.
func (c *Client) RequestAccess(ctx context.Context) error {
	_, err := c.service.CalendarList.List().MaxResults(1).Context(ctx).Do()
	if err != nil {
		if isAuthError(err) {
			return fmt.Errorf("%w: %v", agenda.ErrPermissionDenied, err)
		}
		return fmt.Errorf("probe calendar list: %w", err)
	}
	return nil
}

// ListCalendars enumerates the account's calendar list as sources. Google
// reports a background color per calendar, which becomes the display color.
func (c *Client) ListCalendars(ctx context.Context) ([]domain.CalendarSource, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		if isAuthError(err) {
			return nil, fmt.Errorf("%w: %v", agenda.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	sources := make([]domain.CalendarSource, 0, len(list.Items))
	for _, item := range list.Items {
		color := item.BackgroundColor
		if color == "" {
			color = defaultColor
		}
		name := item.Summary
		if item.SummaryOverride != "" {
			name = item.SummaryOverride
		}
		sources = append(sources, domain.CalendarSource{
			ID:    item.Id,
			Name:  name,
			Color: color,
		})
	}

	return sources, nil
}

// ListEvents fetches one calendar's event instances in [start, end).
// SingleEvents makes the API materialize recurring events into instances,
// so no expansion happens on our side.
func (c *Client) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.RawEvent, error) {
	call := c.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx)

	result, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]domain.RawEvent, 0, len(result.Items))
	for _, item := range result.Items {
		if item.Status == "cancelled" || item.Start == nil {
			continue
		}

		ev := domain.RawEvent{
			SourceID: calendarID,
			EventID:  item.Id,
			Title:    item.Summary,
			Location: item.Location,
		}

		if item.Start.DateTime != "" {
			t, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			ev.StartAt = t.In(c.loc)
			if item.End != nil && item.End.DateTime != "" {
				if t, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
					ev.EndAt = t.In(c.loc)
				}
			}
		} else {
			// Date-only start marks an all-day event.
			t, err := time.ParseInLocation("2006-01-02", item.Start.Date, c.loc)
			if err != nil {
				continue
			}
			ev.StartAt = t
			ev.EndAt = t.AddDate(0, 0, 1)
			ev.AllDay = true
		}

		events = append(events, ev)
	}

	return events, nil
}

func isAuthError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401 || apiErr.Code == 403
	}
	return false
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
