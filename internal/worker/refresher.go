// Package worker keeps the published roster in sync with the record source.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
	"github.com/tartampluch/go-compass/internal/source"
)

// Publisher receives every successful refresh.
type Publisher interface {
	Publish(students []engine.Student, ics []byte)
}

// Refresher pulls the records, renders the calendar and hands both to the Publisher.
type Refresher struct {
	Source          source.Source
	Generator       *engine.Generator
	Publisher       Publisher
	Clock           engine.Clock
	Interval        time.Duration
	ReminderTrigger string

	trigger chan struct{}
}

// NewRefresher wires a Refresher. A nil clock means the wall clock.
func NewRefresher(src source.Source, gen *engine.Generator, pub Publisher, clock engine.Clock, interval time.Duration, reminderTrigger string) *Refresher {
	if clock == nil {
		clock = engine.RealClock{}
	}
	if interval <= 0 {
		interval = config.DefaultRefreshInterval
	}
	if gen == nil {
		gen = &engine.Generator{}
	}
	return &Refresher{
		Source:          src,
		Generator:       gen,
		Publisher:       pub,
		Clock:           clock,
		Interval:        interval,
		ReminderTrigger: reminderTrigger,
		trigger:         make(chan struct{}, config.ChannelBufferSize),
	}
}

// Trigger queues a refresh without blocking. Requests made while one is pending are merged.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Refresh runs one pull. On failure the previously published snapshot stays in place.
func (r *Refresher) Refresh(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompWorker)
	log.Info(config.MsgRefreshStarted)

	students, err := r.Source.Students(ctx)
	if err != nil {
		log.Error(config.MsgRefreshFailed, config.LogKeyError, err)
		return err
	}

	now := r.Clock.Now()
	ics, stats, err := r.Generator.Generate(students, engine.DateOf(now), r.ReminderTrigger, now)
	if err != nil {
		log.Error(config.MsgRefreshFailed, config.LogKeyError, err)
		return err
	}

	r.Publisher.Publish(students, ics)

	log.Info(config.MsgRefreshDone,
		config.LogKeyCount, len(students),
		config.LogKeyToday, stats.Today,
		config.LogKeySkipped, len(stats.Skipped),
	)
	return nil
}

// Run refreshes immediately, then on every tick or Trigger until ctx is cancelled.
// Refresh errors are logged, never returned.
func (r *Refresher) Run(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	_ = r.Refresh(ctx)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, r.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return nil

		case <-r.trigger:
			_ = r.Refresh(ctx)

		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}
