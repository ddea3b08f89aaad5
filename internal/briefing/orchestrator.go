// Package briefing assembles the daily morning briefing.
//
// The orchestrator runs a single linear flow per request: cache check, sleep
// analysis, concurrent collaborator fetches, summary generation, display
// composition, cache write. The briefing for a calendar date is computed at
// most once; a cache hit answers without any external call.
package briefing

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/agenthands/daybreak/internal/llm"
	"github.com/agenthands/daybreak/internal/sleep"
)

// WeatherUnavailable is substituted when the weather collaborator fails.
const WeatherUnavailable = "weather data unavailable"

const dateLayout = "2006-01-02"

// Result is a briefing plus whether it was served from cache.
type Result struct {
	DailyBriefing
	CacheHit bool `json:"cache_hit"`
}

type Orchestrator struct {
	sleepStore SleepStore
	cache      BriefingStore
	weather    WeatherSource
	events     EventSource
	tasks      TaskSource
	generator  llm.Client

	// now is replaceable in tests.
	now func() time.Time
}

func NewOrchestrator(
	sleepStore SleepStore,
	cache BriefingStore,
	weather WeatherSource,
	events EventSource,
	tasks TaskSource,
	generator llm.Client,
) *Orchestrator {
	return &Orchestrator{
		sleepStore: sleepStore,
		cache:      cache,
		weather:    weather,
		events:     events,
		tasks:      tasks,
		generator:  generator,
		now:        time.Now,
	}
}

// Morning returns today's briefing, computing and caching it on first call.
//
// Parsing, aggregation and store failures abort the request. Collaborator
// failures do not: weather degrades to a placeholder, calendar and tasks to
// empty lists, and a generation failure to a metrics-only summary. The sleep
// record is persisted before any collaborator is contacted, so it is never
// lost to or delayed by a downstream failure.
func (o *Orchestrator) Morning(ctx context.Context, csvData, location string) (*Result, error) {
	today := o.now().Format(dateLayout)

	cached, err := o.cache.GetBriefing(today)
	if err != nil {
		return nil, fmt.Errorf("checking briefing cache: %w", err)
	}
	if cached != nil {
		return &Result{DailyBriefing: *cached, CacheHit: true}, nil
	}

	intervals, err := sleep.ParseCSV(csvData)
	if err != nil {
		return nil, err
	}
	analysis, err := sleep.Analyze(intervals)
	if err != nil {
		return nil, err
	}

	// Persist the sleep record before any collaborator call so a slow or
	// failing fetch can never delay or lose it.
	if err := o.sleepStore.SaveSleepRecord(analysis); err != nil {
		return nil, fmt.Errorf("saving sleep record: %w", err)
	}

	weatherSummary, events, tasks := o.fetchContext(ctx, location)

	todos := make([]string, 0, 5)
	for _, task := range tasks {
		if len(todos) == 5 {
			break
		}
		todos = append(todos, task.Content)
	}

	summary := o.generate(ctx, analysis, weatherSummary, events, todos)

	b := DailyBriefing{
		Date:           today,
		Summary:        summary,
		WeatherSummary: weatherSummary,
		Events:         events,
		Todos:          todos,
		Display:        composeDisplay(weatherSummary, summary, events, todos),
	}
	if err := o.cache.SaveBriefing(b); err != nil {
		return nil, fmt.Errorf("saving briefing cache: %w", err)
	}

	return &Result{DailyBriefing: b, CacheHit: false}, nil
}

// fetchContext runs the three collaborator fetches concurrently. Each result
// lands in its own variable, so no locking is needed; failures degrade to
// placeholders instead of aborting.
func (o *Orchestrator) fetchContext(ctx context.Context, location string) (string, []Event, []Task) {
	var (
		weatherSummary string
		events         []Event
		tasks          []Task
	)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		summary, err := o.weather.Forecast(ctx, location)
		if err != nil {
			log.Printf("weather fetch failed: %v", err)
			weatherSummary = WeatherUnavailable
			return
		}
		weatherSummary = summary
	}()

	go func() {
		defer wg.Done()
		result, err := o.events.TodayEvents(ctx)
		if err != nil {
			log.Printf("calendar fetch failed: %v", err)
			return
		}
		events = result
	}()

	go func() {
		defer wg.Done()
		result, err := o.tasks.ListTasks(ctx)
		if err != nil {
			log.Printf("task fetch failed: %v", err)
			return
		}
		tasks = result
	}()

	wg.Wait()
	return weatherSummary, events, tasks
}

func (o *Orchestrator) generate(ctx context.Context, a sleep.Analysis, weather string, events []Event, todos []string) string {
	prompt := buildPrompt(a, weather, events, todos)
	summary, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("summary generation failed: %v", err)
		return fallbackSummary(a)
	}
	if summary == "" {
		return fallbackSummary(a)
	}
	return summary
}

// fallbackSummary builds a deterministic summary from the sleep metrics
// alone, used whenever generation fails or returns nothing.
func fallbackSummary(a sleep.Analysis) string {
	return fmt.Sprintf("Slept %s to %s, %.1f hours, quality %s.",
		a.SleepStart.Format("15:04"),
		a.SleepEnd.Format("15:04"),
		a.ActualSleepHours,
		a.Quality)
}
