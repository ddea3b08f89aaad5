package briefing

import (
	"context"

	"github.com/agenthands/daybreak/internal/sleep"
)

type MockWeather struct {
	Summary string
	Err     error
	Calls   int
}

func (m *MockWeather) Forecast(ctx context.Context, location string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Summary, nil
}

// BlockingWeather parks in Forecast until released, signalling entry via
// Started.
type BlockingWeather struct {
	Started chan struct{}
	Release chan struct{}
	Summary string
}

func NewBlockingWeather(summary string) *BlockingWeather {
	return &BlockingWeather{
		Started: make(chan struct{}),
		Release: make(chan struct{}),
		Summary: summary,
	}
}

func (w *BlockingWeather) Forecast(ctx context.Context, location string) (string, error) {
	close(w.Started)
	<-w.Release
	return w.Summary, nil
}

type MockEvents struct {
	Events []Event
	Err    error
	Calls  int
}

func (m *MockEvents) TodayEvents(ctx context.Context) ([]Event, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Events, nil
}

type MockTasks struct {
	Tasks []Task
	Err   error
	Calls int
}

func (m *MockTasks) ListTasks(ctx context.Context) ([]Task, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tasks, nil
}

type MockLLM struct {
	Response string
	Err      error
	Calls    int
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// MockStore backs both store interfaces with in-memory maps.
type MockStore struct {
	SleepRecords map[string]sleep.Analysis
	Briefings    map[string]DailyBriefing

	SleepErr error
	SaveErr  error
	GetErr   error
}

func NewMockStore() *MockStore {
	return &MockStore{
		SleepRecords: map[string]sleep.Analysis{},
		Briefings:    map[string]DailyBriefing{},
	}
}

func (m *MockStore) SaveSleepRecord(a sleep.Analysis) error {
	if m.SleepErr != nil {
		return m.SleepErr
	}
	m.SleepRecords[a.SleepEnd.Format("2006-01-02")] = a
	return nil
}

func (m *MockStore) SaveBriefing(b DailyBriefing) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Briefings[b.Date] = b
	return nil
}

func (m *MockStore) GetBriefing(date string) (*DailyBriefing, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if b, ok := m.Briefings[date]; ok {
		return &b, nil
	}
	return nil, nil
}
