package sleep

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Quality is the overall classification of a sleep session.
type Quality string

const (
	QualityGood Quality = "good"
	QualityFair Quality = "fair"
	QualityPoor Quality = "poor"
)

// Analysis summarizes one sleep session. All hour fields and the efficiency
// are rounded to two decimals; internal summation is done at full precision.
type Analysis struct {
	SleepStart       time.Time `json:"sleep_start"`
	SleepEnd         time.Time `json:"sleep_end"`
	TotalHours       float64   `json:"total_hours"`
	ActualSleepHours float64   `json:"actual_sleep_hours"`
	DeepHours        float64   `json:"deep_hours"`
	REMHours         float64   `json:"rem_hours"`
	CoreHours        float64   `json:"core_hours"`
	AwakeHours       float64   `json:"awake_hours"`
	AwakeCount       int       `json:"awake_count"`
	SleepEfficiency  float64   `json:"sleep_efficiency"`
	Quality          Quality   `json:"quality"`
	Note             string    `json:"note"`
}

// ErrNoData is returned when there are no intervals to analyze.
var ErrNoData = errors.New("no sleep data")

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Analyze reduces a set of intervals to per-stage totals, efficiency, a
// quality classification and a human-readable note.
func Analyze(intervals []Interval) (Analysis, error) {
	if len(intervals) == 0 {
		return Analysis{}, ErrNoData
	}

	var deep, rem, core, awake float64
	awakeCount := 0
	start := intervals[0].Start
	end := intervals[0].End

	for _, iv := range intervals {
		switch iv.Stage {
		case StageDeep:
			deep += iv.DurationHours
		case StageREM:
			rem += iv.DurationHours
		case StageCore:
			core += iv.DurationHours
		case StageAwake:
			awake += iv.DurationHours
			awakeCount++
		}
		// Awake intervals still bound the session.
		if iv.Start.Before(start) {
			start = iv.Start
		}
		if iv.End.After(end) {
			end = iv.End
		}
	}

	total := deep + rem + core + awake
	actual := deep + rem + core

	efficiency := 0.0
	if total > 0 {
		efficiency = actual / total
	}

	return Analysis{
		SleepStart:       start,
		SleepEnd:         end,
		TotalHours:       round2(total),
		ActualSleepHours: round2(actual),
		DeepHours:        round2(deep),
		REMHours:         round2(rem),
		CoreHours:        round2(core),
		AwakeHours:       round2(awake),
		AwakeCount:       awakeCount,
		SleepEfficiency:  round2(efficiency),
		Quality:          classify(deep, rem, efficiency, actual),
		Note:             buildNote(start, actual, deep, awakeCount),
	}, nil
}

// classify applies the quality rules in a fixed order. Good is evaluated
// before Poor, so an input matching both resolves to Good.
func classify(deep, rem, efficiency, actual float64) Quality {
	if deep >= 1 && rem >= 1.5 && efficiency >= 0.85 && actual >= 7 {
		return QualityGood
	}
	if deep < 0.5 || actual < 5 || efficiency < 0.75 {
		return QualityPoor
	}
	return QualityFair
}

func buildNote(start time.Time, actual, deep float64, awakeCount int) string {
	var notes []string
	if start.Hour() >= 2 {
		notes = append(notes, fmt.Sprintf("went to bed late, around %d:%02d", start.Hour(), start.Minute()))
	}
	if actual < 7 {
		notes = append(notes, fmt.Sprintf("only %.1f hours of sleep, under the 7 hour target", actual))
	}
	if deep < 0.5 {
		notes = append(notes, "not enough deep sleep")
	}
	if awakeCount > 5 {
		notes = append(notes, fmt.Sprintf("woke up %d times during the night", awakeCount))
	}
	if len(notes) == 0 {
		return "sleep looks normal"
	}
	return strings.Join(notes, ". ")
}
