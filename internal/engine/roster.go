package engine

import (
	"fmt"
	"sort"

	"github.com/tartampluch/go-compass/internal/config"
)

// Person is any record that carries a birth date.
type Person interface {
	PersonID() string
	BirthDate() (CalendarDate, error)
}

// RosterEntry pairs a person with their next anniversary relative to the roster's reference date.
type RosterEntry[P Person] struct {
	Person    P
	Next      CalendarDate
	DaysUntil int

	// AgeNext is the age the person turns on Next.
	AgeNext int
}

// Roster is an ordered, size-limited view over a caller-owned collection.
type Roster[P Person] struct {
	Entries []RosterEntry[P]

	// Skipped lists the IDs of records whose birth date could not be used:
	// malformed, or later than the reference date.
	Skipped []string
}

// People returns the persons of the roster in order.
func (r Roster[P]) People() []P {
	out := make([]P, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Person
	}
	return out
}

// UpcomingRoster orders people by how close their next anniversary is to ref and keeps the first limit.
// Ties keep input order. Records with a malformed birth date, or born after ref, are skipped, not fatal.
// The input slice is left untouched.
func UpcomingRoster[P Person](people []P, ref CalendarDate, limit int) (Roster[P], error) {
	if limit < 0 {
		return Roster[P]{}, fmt.Errorf("%s: %d: %w", config.ErrNegativeLimit, limit, ErrInvalidArgument)
	}
	if !ref.Valid() {
		return Roster[P]{}, fmt.Errorf("%s: reference %s: %w", config.ErrDateOutOfRange, ref, ErrInvalidDate)
	}

	entries, skipped := rosterEntries(people, ref)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Next.Before(entries[j].Next)
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return Roster[P]{Entries: entries, Skipped: skipped}, nil
}

func rosterEntries[P Person](people []P, ref CalendarDate) ([]RosterEntry[P], []string) {
	entries := make([]RosterEntry[P], 0, len(people))
	skipped := make([]string, 0)

	for _, p := range people {
		birth, err := p.BirthDate()
		if err == nil && (!birth.Valid() || birth.After(ref)) {
			err = ErrInvalidDate
		}
		if err != nil {
			skipped = append(skipped, p.PersonID())
			continue
		}

		next := nextAnniversary(birth, ref)
		entries = append(entries, RosterEntry[P]{
			Person:    p,
			Next:      next,
			DaysUntil: ref.DaysUntil(next),
			AgeNext:   next.Year - birth.Year,
		})
	}
	return entries, skipped
}
