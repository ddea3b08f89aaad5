package briefing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/daybreak/internal/sleep"
)

// A night ending 2025-12-04 10:00 that classifies as Good.
const goodNightCSV = `Start,End,Duration (hr),Value,Source
2025-12-04 03:00:00,2025-12-04 04:12:00,1.2,Deep,Test
2025-12-04 04:12:00,2025-12-04 05:48:00,1.6,REM,Test
2025-12-04 05:48:00,2025-12-04 10:00:00,5.0,Core,Test`

type fixture struct {
	store   *MockStore
	weather *MockWeather
	events  *MockEvents
	tasks   *MockTasks
	llm     *MockLLM
	orc     *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		store:   NewMockStore(),
		weather: &MockWeather{Summary: "Partly cloudy, 12~18°C, 20% chance of rain"},
		events: &MockEvents{Events: []Event{
			{TimeLabel: "09:30", Title: "Standup", Location: "Room A"},
			{TimeLabel: "all day", Title: "Conference"},
		}},
		tasks: &MockTasks{Tasks: []Task{
			{ID: "1", Content: "Ship the report"},
			{ID: "2", Content: "Book flights"},
		}},
		llm: &MockLLM{Response: "Bring an umbrella. Standup at 09:30. Ship the report first."},
	}
	f.orc = NewOrchestrator(f.store, f.store, f.weather, f.events, f.tasks, f.llm)
	f.orc.now = func() time.Time {
		return time.Date(2025, 12, 4, 7, 30, 0, 0, time.UTC)
	}
	return f
}

func TestMorningCacheMiss(t *testing.T) {
	f := newFixture()

	res, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.NoError(t, err)

	assert.False(t, res.CacheHit)
	assert.Equal(t, "2025-12-04", res.Date)
	assert.Equal(t, f.llm.Response, res.Summary)
	assert.Equal(t, f.weather.Summary, res.WeatherSummary)
	assert.Equal(t, []string{"Ship the report", "Book flights"}, res.Todos)
	assert.Len(t, res.Events, 2)

	// Both the sleep record and the briefing were persisted.
	saved, ok := f.store.SleepRecords["2025-12-04"]
	require.True(t, ok)
	assert.Equal(t, sleep.QualityGood, saved.Quality)
	assert.Contains(t, f.store.Briefings, "2025-12-04")
}

func TestMorningCacheHitSkipsCollaborators(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.orc.Morning(ctx, goodNightCSV, "Hsinchu City")
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := f.orc.Morning(ctx, goodNightCSV, "Hsinchu City")
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Equal(t, first.DailyBriefing, second.DailyBriefing)

	// The second call made no external calls at all.
	assert.Equal(t, 1, f.weather.Calls)
	assert.Equal(t, 1, f.events.Calls)
	assert.Equal(t, 1, f.tasks.Calls)
	assert.Equal(t, 1, f.llm.Calls)
}

func TestMorningWeatherFailureDegrades(t *testing.T) {
	f := newFixture()
	f.weather.Err = errors.New("upstream timeout")

	res, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.NoError(t, err)

	assert.Equal(t, WeatherUnavailable, res.WeatherSummary)
	assert.Equal(t, f.llm.Response, res.Summary)
	assert.Contains(t, res.Display, WeatherUnavailable)
}

func TestMorningCalendarFailureDegrades(t *testing.T) {
	f := newFixture()
	f.events.Err = errors.New("oauth token expired")

	res, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.NoError(t, err)

	assert.Empty(t, res.Events)
	assert.Contains(t, res.Display, "No events today.")
}

func TestMorningGenerationFailureUsesFallback(t *testing.T) {
	f := newFixture()
	f.llm.Err = errors.New("quota exceeded")

	res, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.NoError(t, err)

	assert.Equal(t, "Slept 03:00 to 10:00, 7.8 hours, quality good.", res.Summary)

	// The sleep record was persisted despite the generation failure.
	assert.Contains(t, f.store.SleepRecords, "2025-12-04")
}

func TestMorningEmptyGenerationUsesFallback(t *testing.T) {
	f := newFixture()
	f.llm.Response = ""

	res, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.NoError(t, err)
	assert.Equal(t, "Slept 03:00 to 10:00, 7.8 hours, quality good.", res.Summary)
}

func TestMorningBadCSVFails(t *testing.T) {
	f := newFixture()

	_, err := f.orc.Morning(context.Background(), "Start,End,Duration (hr),Value,Source\n", "Hsinchu City")
	assert.ErrorIs(t, err, sleep.ErrEmptyInput)

	// Nothing was persisted and no generation happened.
	assert.Empty(t, f.store.SleepRecords)
	assert.Empty(t, f.store.Briefings)
	assert.Equal(t, 0, f.llm.Calls)
}

func TestMorningCacheReadFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.store.GetErr = errors.New("database is locked")

	_, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "briefing cache")
}

func TestMorningSleepStoreFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.store.SleepErr = errors.New("disk full")

	_, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sleep record")
	assert.Empty(t, f.store.Briefings)
}

func TestMorningBriefingSaveFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.store.SaveErr = errors.New("disk full")

	_, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.Error(t, err)

	// The sleep record write happened first and sticks.
	assert.Contains(t, f.store.SleepRecords, "2025-12-04")
}

func TestMorningSleepRecordSavedBeforeFetches(t *testing.T) {
	f := newFixture()
	weather := NewBlockingWeather("Sunny, 15~22°C, 10% chance of rain")
	f.orc = NewOrchestrator(f.store, f.store, weather, f.events, f.tasks, f.llm)
	f.orc.now = func() time.Time {
		return time.Date(2025, 12, 4, 7, 30, 0, 0, time.UTC)
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
		done <- outcome{res, err}
	}()

	// The weather fetch is parked; the sleep record must already be durable.
	<-weather.Started
	assert.Contains(t, f.store.SleepRecords, "2025-12-04")

	close(weather.Release)
	out := <-done
	require.NoError(t, out.err)
	assert.False(t, out.res.CacheHit)
	assert.Equal(t, weather.Summary, out.res.WeatherSummary)
}

func TestMorningTopFiveTasks(t *testing.T) {
	f := newFixture()
	f.tasks.Tasks = nil
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		f.tasks.Tasks = append(f.tasks.Tasks, Task{ID: c, Content: c})
	}

	res, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, res.Todos)
}

func TestMorningTasksFailureDegrades(t *testing.T) {
	f := newFixture()
	f.tasks.Err = errors.New("unauthorized")

	res, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.NoError(t, err)
	assert.Empty(t, res.Todos)
	assert.Contains(t, res.Display, "No todos.")
}

func TestDisplayComposition(t *testing.T) {
	f := newFixture()

	res, err := f.orc.Morning(context.Background(), goodNightCSV, "Hsinchu City")
	require.NoError(t, err)

	lines := strings.Split(res.Display, "\n")
	assert.Equal(t, "Weather: "+f.weather.Summary, lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, f.llm.Response, lines[2])
	assert.Equal(t, "", lines[3])
	assert.Equal(t, divider, lines[4])
	assert.Equal(t, "Events:", lines[5])
	assert.Equal(t, "- 09:30 Standup (Room A)", lines[6])
	assert.Equal(t, "- all day Conference", lines[7])
	assert.Equal(t, "", lines[8])
	assert.Equal(t, divider, lines[9])
	assert.Equal(t, "Todos:", lines[10])
	assert.Equal(t, "1. Ship the report", lines[11])
	assert.Equal(t, "2. Book flights", lines[12])
}

func TestBuildPromptIncludesContext(t *testing.T) {
	intervals, err := sleep.ParseCSV(goodNightCSV)
	require.NoError(t, err)
	a, err := sleep.Analyze(intervals)
	require.NoError(t, err)

	prompt := buildPrompt(a, "sunny", []Event{{TimeLabel: "09:30", Title: "Standup"}}, []string{"Ship the report"})

	assert.Contains(t, prompt, "sunny")
	assert.Contains(t, prompt, "09:30 Standup")
	assert.Contains(t, prompt, "Ship the report")
	assert.Contains(t, prompt, "7.8 hours")
	assert.Contains(t, prompt, "quality: good")
}
