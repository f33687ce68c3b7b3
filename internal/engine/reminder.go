package engine

import (
	"fmt"

	"github.com/tartampluch/go-compass/internal/config"
)

// Reminder is a roster entry whose anniversary falls inside a reminder window.
type Reminder[P Person] struct {
	RosterEntry[P]

	Today bool // anniversary is on the reference date
	Soon  bool // within config.SoonThresholdDays
}

// Reminders is the result of UpcomingWithin.
type Reminders[P Person] struct {
	Items   []Reminder[P]
	Skipped []string
}

// UpcomingWithin returns the people whose next anniversary is at most windowDays after ref,
// closest first, capped at limit.
func UpcomingWithin[P Person](people []P, ref CalendarDate, windowDays, limit int) (Reminders[P], error) {
	if windowDays < 0 {
		return Reminders[P]{}, fmt.Errorf("%s: %d: %w", config.ErrNegativeWindow, windowDays, ErrInvalidArgument)
	}
	if limit < 0 {
		return Reminders[P]{}, fmt.Errorf("%s: %d: %w", config.ErrNegativeLimit, limit, ErrInvalidArgument)
	}

	roster, err := UpcomingRoster(people, ref, len(people))
	if err != nil {
		return Reminders[P]{}, err
	}

	items := make([]Reminder[P], 0, min(limit, len(roster.Entries)))
	for _, e := range roster.Entries {
		if e.DaysUntil > windowDays || len(items) == limit {
			break
		}
		items = append(items, Reminder[P]{
			RosterEntry: e,
			Today:       e.DaysUntil == 0,
			Soon:        e.DaysUntil <= config.SoonThresholdDays,
		})
	}
	return Reminders[P]{Items: items, Skipped: roster.Skipped}, nil
}
