package briefing

import (
	"context"

	"github.com/agenthands/daybreak/internal/sleep"
)

// Event is one calendar entry for the day. TimeLabel is either a clock time
// ("09:30") or the all-day marker.
type Event struct {
	TimeLabel string `json:"time_label"`
	Title     string `json:"title"`
	Location  string `json:"location,omitempty"`
}

// DailyBriefing is the cached morning briefing for one calendar date.
type DailyBriefing struct {
	Date           string   `json:"date"`
	Summary        string   `json:"summary"`
	WeatherSummary string   `json:"weather"`
	Events         []Event  `json:"events"`
	Todos          []string `json:"todos"`
	Display        string   `json:"display"`
}

// Task is an outstanding task from the task-list collaborator.
type Task struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// WeatherSource returns a one-line forecast summary for a location.
type WeatherSource interface {
	Forecast(ctx context.Context, location string) (string, error)
}

// EventSource returns today's calendar events in display order.
type EventSource interface {
	TodayEvents(ctx context.Context) ([]Event, error)
}

// TaskSource returns outstanding tasks in provider order.
type TaskSource interface {
	ListTasks(ctx context.Context) ([]Task, error)
}

// SleepStore persists sleep analyses keyed by the session's end date.
type SleepStore interface {
	SaveSleepRecord(a sleep.Analysis) error
}

// BriefingStore persists briefings keyed by calendar date.
type BriefingStore interface {
	SaveBriefing(b DailyBriefing) error
	GetBriefing(date string) (*DailyBriefing, error)
}
