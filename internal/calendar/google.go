// Package calendar reads today's events from Google Calendar.
//
// Authorization uses a previously issued OAuth token stored on disk; the
// interactive consent flow that produces it is outside this service.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/agenthands/daybreak/internal/briefing"
)

// AllDayLabel marks events without a start time.
const AllDayLabel = "all day"

const untitledEvent = "(untitled)"

type Client struct {
	svc        *gcal.Service
	calendarID string

	// now is replaceable in tests.
	now func() time.Time
}

// NewClient builds a calendar client from an OAuth client-secret file and a
// stored token file. The token is refreshed automatically via its refresh
// token when expired.
func NewClient(ctx context.Context, credentialsFile, tokenFile, calendarID string) (*Client, error) {
	credBytes, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading oauth credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(credBytes, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing oauth credentials: %w", err)
	}

	tok, err := loadToken(tokenFile)
	if err != nil {
		return nil, err
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("building calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{svc: svc, calendarID: calendarID, now: time.Now}, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading oauth token: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("parsing oauth token: %w", err)
	}
	return tok, nil
}

// TodayEvents lists events in [today 00:00, tomorrow 00:00), ordered by
// start time.
func (c *Client) TodayEvents(ctx context.Context) ([]briefing.Event, error) {
	now := c.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24 * time.Hour)

	result, err := c.svc.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	events := make([]briefing.Event, 0, len(result.Items))
	for _, item := range result.Items {
		events = append(events, mapEvent(item))
	}
	return events, nil
}

func mapEvent(item *gcal.Event) briefing.Event {
	label := AllDayLabel
	if item.Start != nil && item.Start.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
			label = t.Format("15:04")
		} else {
			// Timed event with an odd timestamp: keep the raw value
			// rather than mislabel it as all-day.
			label = item.Start.DateTime
		}
	}

	title := item.Summary
	if title == "" {
		title = untitledEvent
	}

	return briefing.Event{
		TimeLabel: label,
		Title:     title,
		Location:  item.Location,
	}
}
