package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
)

// kid is a minimal Person used to check that the roster works on any record type.
type kid struct {
	id    string
	birth string
}

func (k kid) PersonID() string { return k.id }

func (k kid) BirthDate() (engine.CalendarDate, error) { return engine.ParseDate(k.birth) }

func personIDs[P engine.Person](people []P) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.PersonID()
	}
	return out
}

func TestUpcomingRoster_ClosestFirstWithLimit(t *testing.T) {
	people := []kid{
		{"may", "2019-05-08"},
		{"dec", "2019-12-15"},
		{"jan", "2019-01-01"},
	}

	roster, err := engine.UpcomingRoster(people, may1, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"may", "dec"}, personIDs(roster.People()))
	assert.Equal(t, date(2024, time.May, 8), roster.Entries[0].Next)
	assert.Equal(t, 7, roster.Entries[0].DaysUntil)
	assert.Equal(t, 5, roster.Entries[0].AgeNext)
	assert.Empty(t, roster.Skipped)
}

func TestUpcomingRoster_Limits(t *testing.T) {
	people := []kid{
		{"a", "2019-05-08"},
		{"b", "2019-12-15"},
		{"c", "2019-01-01"},
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"Zero", 0, []string{}},
		{"One", 1, []string{"a"}},
		{"Exact", 3, []string{"a", "b", "c"}},
		{"More than available", 10, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster, err := engine.UpcomingRoster(people, may1, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, personIDs(roster.People()))
			assert.Len(t, roster.Entries, min(tt.limit, len(people)))
		})
	}
}

func TestUpcomingRoster_Stable(t *testing.T) {
	people := []kid{
		{"third-year-twin-b", "2017-06-01"},
		{"early", "2019-05-02"},
		{"third-year-twin-a", "2017-06-01"},
		{"same-day-other-year", "2015-06-01"},
	}

	roster, err := engine.UpcomingRoster(people, may1, len(people))
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"early", "third-year-twin-b", "third-year-twin-a", "same-day-other-year"},
		personIDs(roster.People()),
		"Same month/day keeps input order")
}

func TestUpcomingRoster_LeapDayTiesWithFeb28(t *testing.T) {
	people := []kid{
		{"leap", "2016-02-29"},
		{"feb28", "2017-02-28"},
	}

	roster, err := engine.UpcomingRoster(people, date(2025, time.January, 1), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"leap", "feb28"}, personIDs(roster.People()))
	assert.Equal(t, roster.Entries[0].Next, roster.Entries[1].Next)
}

func TestUpcomingRoster_SkipsMalformed(t *testing.T) {
	people := []kid{
		{"ok", "2019-05-08"},
		{"garbage", "yesterday"},
		{"empty", ""},
		{"impossible", "2019-02-30"},
	}

	roster, err := engine.UpcomingRoster(people, may1, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, personIDs(roster.People()))
	assert.Equal(t, []string{"garbage", "empty", "impossible"}, roster.Skipped)
}

func TestUpcomingRoster_Empty(t *testing.T) {
	roster, err := engine.UpcomingRoster([]kid{}, may1, 5)
	require.NoError(t, err)
	assert.NotNil(t, roster.Entries)
	assert.Empty(t, roster.Entries)
	assert.Empty(t, roster.Skipped)

	roster, err = engine.UpcomingRoster[kid](nil, may1, 5)
	require.NoError(t, err)
	assert.Empty(t, roster.Entries)
}

func TestUpcomingRoster_DoesNotMutateInput(t *testing.T) {
	people := []engine.Student{
		{ID: "s-1", FirstName: "Jan", DateOfBirth: "2019-01-01"},
		{ID: "s-2", FirstName: "May", DateOfBirth: "2019-05-08"},
	}
	before := append([]engine.Student(nil), people...)

	roster, err := engine.UpcomingRoster(people, may1, 2)
	require.NoError(t, err)

	assert.Equal(t, before, people)
	assert.Equal(t, []string{"s-2", "s-1"}, personIDs(roster.People()))

	roster.Entries[0].Person.FirstName = "Changed"
	assert.Equal(t, "May", people[1].FirstName, "The roster holds copies of value records")
}

func TestUpcomingRoster_InvalidArguments(t *testing.T) {
	_, err := engine.UpcomingRoster([]kid{{"a", "2019-05-08"}}, may1, -1)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)

	_, err = engine.UpcomingRoster([]kid{{"a", "2019-05-08"}}, date(2024, time.February, 30), 1)
	assert.ErrorIs(t, err, engine.ErrInvalidDate)
}

func TestUpcomingRoster_Idempotent(t *testing.T) {
	people := []kid{{"a", "2019-05-08"}, {"b", "2010-05-08"}, {"c", "2020-02-29"}}

	first, err := engine.UpcomingRoster(people, may1, 3)
	require.NoError(t, err)
	second, err := engine.UpcomingRoster(people, may1, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// -----------------------------------------------------------------------------
// Reminders
// -----------------------------------------------------------------------------

func TestUpcomingWithin(t *testing.T) {
	people := []kid{
		{"week", "2019-05-08"},
		{"today", "2018-05-01"},
		{"edge", "2017-05-15"},
		{"month", "2016-05-31"},
		{"far", "2019-12-15"},
		{"bad", "n/a"},
	}

	rem, err := engine.UpcomingWithin(people, may1, config.DefaultWindowDays, 10)
	require.NoError(t, err)

	require.Len(t, rem.Items, 4)
	got := make([]string, len(rem.Items))
	for i, r := range rem.Items {
		got[i] = r.Person.PersonID()
	}
	assert.Equal(t, []string{"today", "week", "edge", "month"}, got)
	assert.Equal(t, []string{"bad"}, rem.Skipped)

	assert.True(t, rem.Items[0].Today)
	assert.True(t, rem.Items[0].Soon)
	assert.False(t, rem.Items[1].Today)
	assert.True(t, rem.Items[1].Soon)
	assert.True(t, rem.Items[2].Soon, "14 days out is still soon")
	assert.False(t, rem.Items[3].Soon)
	assert.Equal(t, 30, rem.Items[3].DaysUntil)
}

func TestUpcomingWithin_Limit(t *testing.T) {
	people := []kid{{"a", "2019-05-02"}, {"b", "2019-05-03"}, {"c", "2019-05-04"}}

	rem, err := engine.UpcomingWithin(people, may1, 30, 2)
	require.NoError(t, err)
	assert.Len(t, rem.Items, 2)

	rem, err = engine.UpcomingWithin(people, may1, 30, 0)
	require.NoError(t, err)
	assert.Empty(t, rem.Items)
}

func TestUpcomingWithin_InvalidArguments(t *testing.T) {
	_, err := engine.UpcomingWithin([]kid{}, may1, -1, 5)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)

	_, err = engine.UpcomingWithin([]kid{}, may1, 5, -1)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
}

// Nobody turns a negative age: births after the reference date are reported, not listed.
func TestUpcomingRoster_BirthAfterReference(t *testing.T) {
	people := []kid{
		{"far-future", "2030-01-01"},
		{"next-week", "2024-05-08"},
		{"born-today", "2024-05-01"},
		{"may", "2019-05-08"},
	}

	roster, err := engine.UpcomingRoster(people, may1, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"born-today", "may"}, personIDs(roster.People()))
	assert.Equal(t, []string{"far-future", "next-week"}, roster.Skipped)
	for _, e := range roster.Entries {
		assert.GreaterOrEqual(t, e.AgeNext, 0, e.Person.id)
	}

	reminders, err := engine.UpcomingWithin(people, may1, 30, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"far-future", "next-week"}, reminders.Skipped)
	require.Len(t, reminders.Items, 2)
	assert.Equal(t, 0, reminders.Items[0].AgeNext)
	assert.True(t, reminders.Items[0].Today)
}
