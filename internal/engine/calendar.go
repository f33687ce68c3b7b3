package engine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-compass/internal/config"
)

// Generator renders student birthdays as an iCalendar feed.
type Generator struct {
	// FormatSummary allows the caller to inject localized event titles.
	// age is 0 for the year of birth.
	FormatSummary func(name string, age int) string
}

// CalendarStats summarizes one Generate call.
type CalendarStats struct {
	Processed int
	WithBday  int
	Today     int
	Skipped   []string
}

// Generate builds the feed for ref.Year-1 .. ref.Year+1 and counts the birthdays falling on ref.
// stamp is written as DTSTAMP on every event.
func (g *Generator) Generate(students []Student, ref CalendarDate, reminderTrigger string, stamp time.Time) ([]byte, CalendarStats, error) {
	stats := CalendarStats{Skipped: make([]string, 0)}
	if !ref.Valid() {
		return nil, stats, fmt.Errorf("%s: reference %s: %w", config.ErrDateOutOfRange, ref, ErrInvalidDate)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	// Set manually, SetText adds a VALUE=TEXT param to X- properties.
	calNameProp := ical.NewProp(config.PropXWRCalName)
	calNameProp.Value = config.ICalCalName
	cal.Props.Set(calNameProp)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986 refresh hint.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(stamp.UTC())

	for _, s := range students {
		stats.Processed++

		birth, err := s.BirthDate()
		if err != nil {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyID, s.ID,
				config.LogKeyValue, s.DateOfBirth)
			stats.Skipped = append(stats.Skipped, s.ID)
			continue
		}
		stats.WithBday++

		name := s.FullName()
		if name == "" {
			name = config.FallbackName
		}

		events, isToday := g.createEvents(s, name, birth, ref, reminderTrigger)
		if isToday {
			stats.Today++
			slog.Info(config.MsgBdayToday,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyID, s.ID,
				config.LogKeyDOB, birth.String())
		}

		for _, e := range events {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
	}

	if len(cal.Children) == 0 {
		g.logSuccess(stats)
		return []byte(config.StubVCalendar), stats, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, stats, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	g.logSuccess(stats)
	return buf.Bytes(), stats, nil
}

func (g *Generator) logSuccess(stats CalendarStats) {
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompEngine,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.Processed),
			slog.Int(config.LogKeyFound, stats.WithBday),
			slog.Int(config.LogKeyToday, stats.Today),
			slog.Int(config.LogKeySkipped, len(stats.Skipped)),
		),
	)
}

// eventUID is stable across refreshes for the same student and birth date.
func eventUID(s Student, birth CalendarDate) string {
	key := s.ID
	if key == "" {
		key = s.FullName()
	}
	input := fmt.Sprintf(config.FormatHashInput, key, birth, config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash[:config.UIDHashLength])
}

// createEvents emits one all-day event per target year, never before the year of birth.
func (g *Generator) createEvents(s Student, name string, birth, ref CalendarDate, reminderTrigger string) ([]*ical.Event, bool) {
	uidBase := eventUID(s, birth)
	targetYears := []int{ref.Year - 1, ref.Year, ref.Year + 1}

	var events []*ical.Event
	isToday := false

	for _, y := range targetYears {
		if y < birth.Year {
			continue
		}

		age := y - birth.Year
		summary := g.summary(name, age)

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uidBase, y, config.ICalDomain))
		event.Props.SetText(config.PropSummary, summary)
		if s.ClassName != "" {
			event.Props.SetText(config.PropCategories, s.ClassName)
		}

		eventDate := anniversaryIn(birth, y)
		if eventDate == ref {
			isToday = true
		}

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(eventDate.Time(time.UTC))
		event.Props.Set(dtStartProp)

		if reminderTrigger != "" {
			addAlarm(event, reminderTrigger, summary)
		}

		events = append(events, event)
	}
	return events, isToday
}

func (g *Generator) summary(name string, age int) string {
	if g.FormatSummary != nil {
		if s := g.FormatSummary(name, age); s != "" {
			return s
		}
	}
	if age == 0 {
		return fmt.Sprintf(config.FallbackSummaryBirth, name)
	}
	return fmt.Sprintf(config.FallbackSummaryAge, name, age)
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid "VALUE=TEXT" param
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
