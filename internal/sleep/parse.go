package sleep

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Stage is a sleep stage reported by the watch export.
type Stage string

const (
	StageDeep  Stage = "Deep"
	StageREM   Stage = "REM"
	StageCore  Stage = "Core"
	StageAwake Stage = "Awake"
)

// Interval is one row of the sleep export: a contiguous span spent in a
// single stage.
type Interval struct {
	Start         time.Time
	End           time.Time
	DurationHours float64
	Stage         Stage
}

// ErrEmptyInput is returned when the CSV has a header but no data rows.
var ErrEmptyInput = errors.New("sleep csv contains no data rows")

// MalformedRecordError reports a data row that could not be parsed. The row
// number is 1-based over data rows (the header is not counted).
type MalformedRecordError struct {
	Row   int
	Cause error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed sleep record at row %d: %v", e.Row, e.Cause)
}

func (e *MalformedRecordError) Unwrap() error { return e.Cause }

// Timestamps in the export are local and zone-less.
const timeLayout = "2006-01-02 15:04:05"

func parseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageDeep, StageREM, StageCore, StageAwake:
		return Stage(s), nil
	}
	return "", fmt.Errorf("unrecognized stage value %q", s)
}

// ParseCSV parses an Apple-Watch-style sleep export into intervals.
//
// Expected columns: Start, End, Duration (hr), Value, Source. Source is
// ignored. Row order is preserved and no merging is performed; callers get
// exactly one interval per data row.
func ParseCSV(data string) ([]Interval, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Start", "End", "Duration (hr)", "Value"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header missing required column %q", required)
		}
	}

	var intervals []Interval
	row := 0
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &MalformedRecordError{Row: row + 1, Cause: err}
		}
		row++

		iv, err := parseRow(record, cols)
		if err != nil {
			return nil, &MalformedRecordError{Row: row, Cause: err}
		}
		intervals = append(intervals, iv)
	}

	if len(intervals) == 0 {
		return nil, ErrEmptyInput
	}
	return intervals, nil
}

func parseRow(record []string, cols map[string]int) (Interval, error) {
	field := func(name string) (string, error) {
		idx := cols[name]
		if idx >= len(record) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return strings.TrimSpace(record[idx]), nil
	}

	var iv Interval

	startStr, err := field("Start")
	if err != nil {
		return iv, err
	}
	iv.Start, err = time.Parse(timeLayout, startStr)
	if err != nil {
		return iv, fmt.Errorf("invalid Start timestamp %q", startStr)
	}

	endStr, err := field("End")
	if err != nil {
		return iv, err
	}
	iv.End, err = time.Parse(timeLayout, endStr)
	if err != nil {
		return iv, fmt.Errorf("invalid End timestamp %q", endStr)
	}

	durStr, err := field("Duration (hr)")
	if err != nil {
		return iv, err
	}
	iv.DurationHours, err = strconv.ParseFloat(durStr, 64)
	if err != nil {
		return iv, fmt.Errorf("invalid duration %q", durStr)
	}

	stageStr, err := field("Value")
	if err != nil {
		return iv, err
	}
	iv.Stage, err = parseStage(stageStr)
	if err != nil {
		return iv, err
	}

	return iv, nil
}
