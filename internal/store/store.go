// Package store persists sleep analyses and daily briefings in SQLite.
//
// Both tables are keyed by calendar date with a unique constraint; writes go
// through an ON CONFLICT upsert so a second save for the same date replaces
// the earlier row instead of appending.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agenthands/daybreak/internal/briefing"
	"github.com/agenthands/daybreak/internal/sleep"
)

// DateLayout is the key format for both tables.
const DateLayout = "2006-01-02"

// SleepRecord is a persisted sleep analysis together with its date key.
type SleepRecord struct {
	Date string `json:"date"`
	sleep.Analysis
}

type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath and runs
// schema migration.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sleep_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT UNIQUE NOT NULL,
			sleep_start TEXT NOT NULL,
			sleep_end TEXT NOT NULL,
			total_hours REAL NOT NULL,
			actual_sleep_hours REAL NOT NULL,
			deep_hours REAL NOT NULL,
			rem_hours REAL NOT NULL,
			core_hours REAL NOT NULL,
			awake_hours REAL NOT NULL,
			awake_count INTEGER NOT NULL,
			sleep_efficiency REAL NOT NULL,
			quality TEXT NOT NULL,
			note TEXT,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS morning_cache (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT UNIQUE NOT NULL,
			summary TEXT NOT NULL,
			weather TEXT NOT NULL,
			events TEXT NOT NULL,
			todos TEXT NOT NULL,
			display TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSleepRecord upserts the analysis under the date of its session end.
// Every field of an existing row for that date is overwritten.
func (s *Store) SaveSleepRecord(a sleep.Analysis) error {
	date := a.SleepEnd.Format(DateLayout)
	_, err := s.db.Exec(`
		INSERT INTO sleep_records (
			date, sleep_start, sleep_end, total_hours, actual_sleep_hours,
			deep_hours, rem_hours, core_hours, awake_hours, awake_count,
			sleep_efficiency, quality, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			sleep_start = excluded.sleep_start,
			sleep_end = excluded.sleep_end,
			total_hours = excluded.total_hours,
			actual_sleep_hours = excluded.actual_sleep_hours,
			deep_hours = excluded.deep_hours,
			rem_hours = excluded.rem_hours,
			core_hours = excluded.core_hours,
			awake_hours = excluded.awake_hours,
			awake_count = excluded.awake_count,
			sleep_efficiency = excluded.sleep_efficiency,
			quality = excluded.quality,
			note = excluded.note`,
		date,
		a.SleepStart.Format(time.RFC3339),
		a.SleepEnd.Format(time.RFC3339),
		a.TotalHours, a.ActualSleepHours,
		a.DeepHours, a.REMHours, a.CoreHours, a.AwakeHours, a.AwakeCount,
		a.SleepEfficiency, string(a.Quality), a.Note,
	)
	if err != nil {
		return fmt.Errorf("saving sleep record for %s: %w", date, err)
	}
	return nil
}

// GetSleepRecord returns the record for the given date, or nil when absent.
func (s *Store) GetSleepRecord(date string) (*SleepRecord, error) {
	row := s.db.QueryRow(`
		SELECT date, sleep_start, sleep_end, total_hours, actual_sleep_hours,
			deep_hours, rem_hours, core_hours, awake_hours, awake_count,
			sleep_efficiency, quality, note
		FROM sleep_records WHERE date = ?`, date)

	rec, err := scanSleepRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sleep record for %s: %w", date, err)
	}
	return rec, nil
}

// RecentSleepRecords returns up to n records, newest date first.
func (s *Store) RecentSleepRecords(n int) ([]SleepRecord, error) {
	rows, err := s.db.Query(`
		SELECT date, sleep_start, sleep_end, total_hours, actual_sleep_hours,
			deep_hours, rem_hours, core_hours, awake_hours, awake_count,
			sleep_efficiency, quality, note
		FROM sleep_records ORDER BY date DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("listing recent sleep records: %w", err)
	}
	defer rows.Close()
	return collectSleepRecords(rows)
}

// SleepRecordsRange returns records with start <= date <= end, oldest first.
func (s *Store) SleepRecordsRange(start, end string) ([]SleepRecord, error) {
	rows, err := s.db.Query(`
		SELECT date, sleep_start, sleep_end, total_hours, actual_sleep_hours,
			deep_hours, rem_hours, core_hours, awake_hours, awake_count,
			sleep_efficiency, quality, note
		FROM sleep_records WHERE date BETWEEN ? AND ? ORDER BY date`, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing sleep records in range: %w", err)
	}
	defer rows.Close()
	return collectSleepRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSleepRecord(r rowScanner) (*SleepRecord, error) {
	var rec SleepRecord
	var startStr, endStr, quality string
	err := r.Scan(&rec.Date, &startStr, &endStr,
		&rec.TotalHours, &rec.ActualSleepHours,
		&rec.DeepHours, &rec.REMHours, &rec.CoreHours, &rec.AwakeHours,
		&rec.AwakeCount, &rec.SleepEfficiency, &quality, &rec.Note)
	if err != nil {
		return nil, err
	}

	rec.Quality = sleep.Quality(quality)
	if rec.SleepStart, err = time.Parse(time.RFC3339, startStr); err != nil {
		return nil, fmt.Errorf("parsing stored sleep_start: %w", err)
	}
	if rec.SleepEnd, err = time.Parse(time.RFC3339, endStr); err != nil {
		return nil, fmt.Errorf("parsing stored sleep_end: %w", err)
	}
	return &rec, nil
}

func collectSleepRecords(rows *sql.Rows) ([]SleepRecord, error) {
	var records []SleepRecord
	for rows.Next() {
		rec, err := scanSleepRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// SaveBriefing upserts the briefing under its date. Events and todos are
// stored as JSON so they round-trip without loss.
func (s *Store) SaveBriefing(b briefing.DailyBriefing) error {
	events, err := json.Marshal(b.Events)
	if err != nil {
		return fmt.Errorf("encoding events: %w", err)
	}
	todos, err := json.Marshal(b.Todos)
	if err != nil {
		return fmt.Errorf("encoding todos: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO morning_cache (date, summary, weather, events, todos, display)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			summary = excluded.summary,
			weather = excluded.weather,
			events = excluded.events,
			todos = excluded.todos,
			display = excluded.display`,
		b.Date, b.Summary, b.WeatherSummary, string(events), string(todos), b.Display,
	)
	if err != nil {
		return fmt.Errorf("saving briefing for %s: %w", b.Date, err)
	}
	return nil
}

// GetBriefing returns the cached briefing for the date, or nil when absent.
func (s *Store) GetBriefing(date string) (*briefing.DailyBriefing, error) {
	var b briefing.DailyBriefing
	var events, todos string
	err := s.db.QueryRow(`
		SELECT date, summary, weather, events, todos, display
		FROM morning_cache WHERE date = ?`, date).
		Scan(&b.Date, &b.Summary, &b.WeatherSummary, &events, &todos, &b.Display)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading briefing for %s: %w", date, err)
	}

	if err := json.Unmarshal([]byte(events), &b.Events); err != nil {
		return nil, fmt.Errorf("decoding stored events: %w", err)
	}
	if err := json.Unmarshal([]byte(todos), &b.Todos); err != nil {
		return nil, fmt.Errorf("decoding stored todos: %w", err)
	}
	return &b, nil
}
