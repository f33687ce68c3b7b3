package engine_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
)

var stamp = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func generate(t *testing.T, gen *engine.Generator, students []engine.Student, ref engine.CalendarDate, trigger string) (string, engine.CalendarStats) {
	t.Helper()
	ics, stats, err := gen.Generate(students, ref, trigger, stamp)
	require.NoError(t, err)
	return string(ics), stats
}

func TestGenerate_BirthdayToday(t *testing.T) {
	students := []engine.Student{{ID: "s-1", FirstName: "John", LastName: "Doe", DateOfBirth: "2000-01-01", ClassName: "Lions"}}

	icsStr, stats := generate(t, &engine.Generator{}, students, date(2025, time.January, 1), "")

	assert.Equal(t, 1, stats.Today, "Should identify one birthday today")
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.WithBday)
	assert.Contains(t, icsStr, "BEGIN:VCALENDAR", "Should start with VCALENDAR")
	assert.Contains(t, icsStr, "SUMMARY:Birthday: John Doe (25)")
	assert.Contains(t, icsStr, "CATEGORIES:Lions")
	assert.Contains(t, icsStr, "X-WR-CALNAME:"+config.ICalCalName)
	assert.NotContains(t, icsStr, "X-WR-CALNAME;VALUE=TEXT", "Calendar name must be written without a value type")
	assert.Contains(t, icsStr, "DTSTAMP:20250101T080000Z")
}

func TestGenerate_GeneratesYearRange(t *testing.T) {
	students := []engine.Student{{ID: "s-1", FirstName: "Range", DateOfBirth: "1990-12-31"}}

	icsStr, _ := generate(t, &engine.Generator{}, students, date(2025, time.January, 1), "")

	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20241231", "Should include previous year")
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20251231", "Should include current year")
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20261231", "Should include next year")
	assert.Equal(t, 3, strings.Count(icsStr, "BEGIN:VEVENT"), "Should generate exactly 3 events (Prev, Curr, Next)")
}

func TestGenerate_BabyBornThisYear(t *testing.T) {
	students := []engine.Student{{ID: "s-1", FirstName: "Baby", DateOfBirth: "2025-05-01"}}
	gen := &engine.Generator{
		FormatSummary: func(name string, age int) string {
			if age == 0 {
				return fmt.Sprintf("Birthday: %s (Birth)", name)
			}
			return fmt.Sprintf("Birthday: %s (%d)", name, age)
		},
	}

	icsStr, _ := generate(t, gen, students, date(2025, time.January, 1), "")

	assert.NotContains(t, icsStr, "DTSTART;VALUE=DATE:20240501", "Should NOT generate event before birth")
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20250501")
	assert.Contains(t, icsStr, "SUMMARY:Birthday: Baby (Birth)")
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20260501")
	assert.Contains(t, icsStr, "SUMMARY:Birthday: Baby (1)")
	assert.Equal(t, 2, strings.Count(icsStr, "BEGIN:VEVENT"))
}

func TestGenerate_FutureBirth(t *testing.T) {
	students := []engine.Student{{ID: "s-1", FirstName: "Future", DateOfBirth: "2027-01-01"}}

	icsStr, stats := generate(t, &engine.Generator{}, students, date(2025, time.January, 1), "")

	assert.NotContains(t, icsStr, "BEGIN:VEVENT")
	assert.Equal(t, config.StubVCalendar, icsStr, "An empty feed is still a valid calendar")
	assert.Equal(t, 1, stats.WithBday)
}

func TestGenerate_LeapDayInCommonYear(t *testing.T) {
	students := []engine.Student{{ID: "s-1", FirstName: "Leap", DateOfBirth: "2000-02-29"}}

	icsStr, stats := generate(t, &engine.Generator{}, students, date(2025, time.February, 28), "")

	assert.Equal(t, 1, stats.Today, "Feb 29 birthdays are celebrated on Feb 28 in common years")
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20240229")
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20250228")
	assert.Contains(t, icsStr, "DTSTART;VALUE=DATE:20260228")
	assert.NotContains(t, icsStr, "20250301")
}

func TestGenerate_WithReminders(t *testing.T) {
	students := []engine.Student{{ID: "s-1", FirstName: "Alarm", DateOfBirth: "1990-01-01"}}

	icsStr, _ := generate(t, &engine.Generator{}, students, date(2025, time.June, 1), "-P1D")

	assert.Contains(t, icsStr, "BEGIN:VALARM", "ICS should contain an alarm component")
	assert.Contains(t, icsStr, "TRIGGER:-P1D", "Alarm trigger should match configuration")
	assert.Contains(t, icsStr, "ACTION:DISPLAY", "Alarm action should be DISPLAY")
}

func TestGenerate_NoReminder(t *testing.T) {
	students := []engine.Student{{ID: "s-1", FirstName: "Quiet", DateOfBirth: "1990-01-01"}}

	icsStr, _ := generate(t, &engine.Generator{}, students, date(2025, time.June, 1), "")
	assert.NotContains(t, icsStr, "BEGIN:VALARM")
}

func TestGenerate_SkipsMalformed(t *testing.T) {
	students := []engine.Student{
		{ID: "ok", FirstName: "Ok", DateOfBirth: "2019-05-08"},
		{ID: "bad", FirstName: "Bad", DateOfBirth: "not-a-date"},
		{ID: "empty", FirstName: "Empty"},
	}

	icsStr, stats := generate(t, &engine.Generator{}, students, date(2025, time.January, 1), "")

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 1, stats.WithBday)
	assert.Equal(t, []string{"bad", "empty"}, stats.Skipped)
	assert.Equal(t, 3, strings.Count(icsStr, "BEGIN:VEVENT"))
}

func TestGenerate_StableUIDs(t *testing.T) {
	students := []engine.Student{{ID: "s-1", FirstName: "Stable", DateOfBirth: "2019-05-08"}}

	first, _ := generate(t, &engine.Generator{}, students, date(2025, time.January, 1), "")
	second, _ := generate(t, &engine.Generator{}, students, date(2025, time.January, 1), "")
	assert.Equal(t, first, second)

	renamed := []engine.Student{{ID: "s-1", FirstName: "Renamed", DateOfBirth: "2019-05-08"}}
	third, _ := generate(t, &engine.Generator{}, renamed, date(2025, time.January, 1), "")

	uids := func(ics string) []string {
		var out []string
		for _, line := range strings.Split(ics, "\r\n") {
			if strings.HasPrefix(line, "UID:") {
				out = append(out, line)
			}
		}
		return out
	}
	require.Len(t, uids(first), 3)
	assert.Equal(t, uids(first), uids(third), "UIDs follow the student ID, not the display name")
	assert.Contains(t, uids(first)[0], "@"+config.ICalDomain)
}

func TestGenerate_NameFallback(t *testing.T) {
	students := []engine.Student{{ID: "s-1", DateOfBirth: "2019-05-08"}}

	icsStr, _ := generate(t, &engine.Generator{}, students, date(2025, time.January, 1), "")
	assert.Contains(t, icsStr, "SUMMARY:Birthday: "+config.FallbackName)
}

func TestGenerate_InvalidReference(t *testing.T) {
	_, _, err := (&engine.Generator{}).Generate(nil, date(2025, time.February, 29), "", stamp)
	assert.ErrorIs(t, err, engine.ErrInvalidDate)
}
