package briefing

import (
	"fmt"
	"strings"

	"github.com/agenthands/daybreak/internal/sleep"
)

const personalContext = `You are my personal assistant, giving me a short morning briefing.

About me:
- I live in Hsinchu
- Sleep target: in bed before 02:00, at least 7 hours
- I live with my partner

Style:
- Short, practical, no fluff
- Weather first, then schedule, then sleep
- Only mention sleep when it is clearly off (under 5 hours, or asleep after 4 AM)
- No emoji
- Do not open with a greeting`

// buildPrompt composes the structured context handed to the generation
// collaborator.
func buildPrompt(a sleep.Analysis, weather string, events []Event, todos []string) string {
	var sb strings.Builder
	sb.WriteString(personalContext)

	sb.WriteString("\n\nToday's weather:\n")
	sb.WriteString(weather)

	sb.WriteString("\n\nToday's schedule:\n")
	if len(events) == 0 {
		sb.WriteString("nothing scheduled")
	} else {
		for i, e := range events {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString("- " + e.TimeLabel + " " + e.Title)
			if e.Location != "" {
				sb.WriteString(" (" + e.Location + ")")
			}
		}
	}

	fmt.Fprintf(&sb, "\n\nLast night's sleep:\n- asleep: %s\n- awake: %s\n- actual sleep: %.1f hours\n- quality: %s",
		a.SleepStart.Format("15:04"), a.SleepEnd.Format("15:04"), a.ActualSleepHours, a.Quality)

	sb.WriteString("\n\nOutstanding tasks:\n")
	if len(todos) == 0 {
		sb.WriteString("no tasks")
	} else {
		for i, t := range todos {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString("- " + t)
		}
	}

	sb.WriteString(`

Based on the above, give me a morning reminder (under 80 words), focused on:
1. Weather prep (umbrella, temperature swing)
2. Schedule reminders (only if something important)
3. Sleep feedback (only if clearly off)
4. The one thing to tackle first today`)

	return sb.String()
}

const divider = "--------"

// composeDisplay builds the final display text in a fixed layout: weather
// line, generated summary, events block, todos block, separated by dividers.
func composeDisplay(weather, summary string, events []Event, todos []string) string {
	var sb strings.Builder

	sb.WriteString("Weather: " + weather + "\n\n")
	sb.WriteString(summary + "\n\n")

	sb.WriteString(divider + "\nEvents:\n")
	if len(events) == 0 {
		sb.WriteString("No events today.\n")
	} else {
		for _, e := range events {
			sb.WriteString("- " + e.TimeLabel + " " + e.Title)
			if e.Location != "" {
				sb.WriteString(" (" + e.Location + ")")
			}
			sb.WriteByte('\n')
		}
	}

	sb.WriteString("\n" + divider + "\nTodos:\n")
	if len(todos) == 0 {
		sb.WriteString("No todos.\n")
	} else {
		for i, t := range todos {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
		}
	}

	return sb.String()
}
