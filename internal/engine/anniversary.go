package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/tartampluch/go-compass/internal/config"
)

// Error kinds surfaced by the calculator and the roster. Callers match them with errors.Is.
var (
	ErrInvalidDate     = errors.New(config.ErrKindInvalidDate)
	ErrInvalidArgument = errors.New(config.ErrKindInvalidArgument)
)

// anniversaryIn returns the anniversary of birth in year.
// Feb 29 maps to Feb 28 in common years.
func anniversaryIn(birth CalendarDate, year int) CalendarDate {
	day := birth.Day
	if birth.Month == time.February && day == 29 && !IsLeapYear(year) {
		day = config.LeapDayFallback
	}
	return CalendarDate{Year: year, Month: birth.Month, Day: day}
}

// nextAnniversary assumes both dates are valid.
func nextAnniversary(birth, ref CalendarDate) CalendarDate {
	candidate := anniversaryIn(birth, ref.Year)
	if candidate.Before(ref) {
		candidate = anniversaryIn(birth, ref.Year+1)
	}
	return candidate
}

func checkDates(birth, ref CalendarDate) error {
	if !birth.Valid() {
		return fmt.Errorf("%s: birth %s: %w", config.ErrDateOutOfRange, birth, ErrInvalidDate)
	}
	if !ref.Valid() {
		return fmt.Errorf("%s: reference %s: %w", config.ErrDateOutOfRange, ref, ErrInvalidDate)
	}
	return nil
}

// NextAnniversary returns the first anniversary of birth on or after ref.
// The result is never earlier than ref and at most 366 days after it.
func NextAnniversary(birth, ref CalendarDate) (CalendarDate, error) {
	if err := checkDates(birth, ref); err != nil {
		return CalendarDate{}, err
	}
	return nextAnniversary(birth, ref), nil
}

// AgeInYears returns the number of completed years between birth and ref.
// A birth date after ref is an ErrInvalidDate.
func AgeInYears(birth, ref CalendarDate) (int, error) {
	if err := checkDates(birth, ref); err != nil {
		return 0, err
	}
	if ref.Before(birth) {
		return 0, fmt.Errorf("%s: %s > %s: %w", config.ErrBirthInFuture, birth, ref, ErrInvalidDate)
	}

	age := ref.Year - birth.Year
	if ref.Before(anniversaryIn(birth, ref.Year)) {
		age--
	}
	return age, nil
}

// DaysUntilAnniversary returns how many days separate ref from the next anniversary (0 = today).
func DaysUntilAnniversary(birth, ref CalendarDate) (int, error) {
	next, err := NextAnniversary(birth, ref)
	if err != nil {
		return 0, err
	}
	return ref.DaysUntil(next), nil
}

// IsWithinDays reports whether the next anniversary falls in [ref, ref+windowDays].
func IsWithinDays(birth, ref CalendarDate, windowDays int) (bool, error) {
	if windowDays < 0 {
		return false, fmt.Errorf("%s: %d: %w", config.ErrNegativeWindow, windowDays, ErrInvalidArgument)
	}
	days, err := DaysUntilAnniversary(birth, ref)
	if err != nil {
		return false, err
	}
	return days <= windowDays, nil
}
