package engine_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-compass/internal/engine"
)

func date(y int, m time.Month, d int) engine.CalendarDate {
	return engine.CalendarDate{Year: y, Month: m, Day: d}
}

func TestParseDate_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    engine.CalendarDate
		wantErr bool
	}{
		{"ISO8601 Standard", "2019-05-08", date(2019, time.May, 8), false},
		{"Basic Format", "20190508", date(2019, time.May, 8), false},
		{"RFC3339", "2019-05-08T00:00:00Z", date(2019, time.May, 8), false},
		{"RFC3339 keeps the written day", "2019-05-08T23:30:00-05:00", date(2019, time.May, 8), false},
		{"Surrounding spaces", "  2019-05-08 ", date(2019, time.May, 8), false},
		{"Leap day", "2020-02-29", date(2020, time.February, 29), false},
		{"Leap day in common year", "2023-02-29", engine.CalendarDate{}, true},
		{"April 31", "2024-04-31", engine.CalendarDate{}, true},
		{"Truncated (Month-Day)", "--05-08", engine.CalendarDate{}, true},
		{"Garbage Data", "not-a-date", engine.CalendarDate{}, true},
		{"Empty Date", "", engine.CalendarDate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ParseDate(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, engine.ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewCalendarDate(t *testing.T) {
	d, err := engine.NewCalendarDate(2024, time.February, 29)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	for _, bad := range []engine.CalendarDate{
		date(2023, time.February, 29),
		date(2024, time.June, 31),
		date(2024, 13, 1),
		date(2024, time.January, 0),
		date(0, time.January, 1),
		date(10000, time.January, 1),
	} {
		_, err := engine.NewCalendarDate(bad.Year, bad.Month, bad.Day)
		assert.ErrorIs(t, err, engine.ErrInvalidDate, bad.String())
	}
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, engine.IsLeapYear(2024))
	assert.True(t, engine.IsLeapYear(2000))
	assert.False(t, engine.IsLeapYear(1900))
	assert.False(t, engine.IsLeapYear(2023))
}

func TestCalendarDate_Arithmetic(t *testing.T) {
	ref := date(2024, time.May, 1)

	assert.Equal(t, date(2024, time.May, 31), ref.AddDays(30))
	assert.Equal(t, date(2024, time.April, 30), ref.AddDays(-1))
	assert.Equal(t, 14, ref.DaysUntil(date(2024, time.May, 15)))
	assert.Equal(t, -1, ref.DaysUntil(date(2024, time.April, 30)))
	assert.Equal(t, 366, date(2024, time.January, 1).DaysUntil(date(2025, time.January, 1)))

	assert.True(t, ref.Before(date(2024, time.May, 2)))
	assert.True(t, ref.After(date(2023, time.December, 31)))
	assert.Equal(t, 0, ref.Compare(date(2024, time.May, 1)))
}

func TestDateOf_UsesLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	instant := time.Date(2024, time.April, 30, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, date(2024, time.April, 30), engine.DateOf(instant))
	assert.Equal(t, date(2024, time.May, 1), engine.DateOf(instant.In(loc)))
	assert.Equal(t, date(2024, time.May, 1), engine.Today(engine.FixedClock(instant.In(loc))))
}

func TestCalendarDate_JSON(t *testing.T) {
	type payload struct {
		Next engine.CalendarDate `json:"next"`
	}

	raw, err := json.Marshal(payload{Next: date(2024, time.May, 8)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"next":"2024-05-08"}`, string(raw))

	var back payload
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, date(2024, time.May, 8), back.Next)

	assert.Error(t, json.Unmarshal([]byte(`{"next":"2024-02-30"}`), &back))
}
