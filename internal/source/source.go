// Package source supplies student records to the roster.
// The live backend and the offline variants implement the same Source interface,
// so the birthday logic is written and tested once.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
	"github.com/tartampluch/go-compass/internal/input"
)

// Source supplies the current set of student records.
type Source interface {
	Students(ctx context.Context) ([]engine.Student, error)
}

// Options selects and configures a Source.
type Options struct {
	Mode    string // config.SourceModeAPI, config.SourceModeVCard or config.SourceModeFile
	URL     string
	Path    string
	User    string
	Pass    string
	Fetcher Fetcher
}

// New builds the Source described by opts.
func New(opts Options) (Source, error) {
	switch opts.Mode {
	case config.SourceModeAPI:
		if opts.URL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if opts.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return &APISource{BaseURL: opts.URL, User: opts.User, Pass: opts.Pass, Fetcher: opts.Fetcher}, nil
	case config.SourceModeVCard:
		if opts.URL == "" && opts.Path == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return &VCardSource{Path: opts.Path, URL: opts.URL, User: opts.User, Pass: opts.Pass, Fetcher: opts.Fetcher}, nil
	case config.SourceModeFile:
		if opts.Path == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return &FileSource{Path: opts.Path}, nil
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, opts.Mode)
	}
}

// decodeStudents reads a JSON array of students and keeps the records that survive cleaning.
func decodeStudents(ctx context.Context, r io.Reader) ([]engine.Student, error) {
	var raw []engine.Student
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStudentsDecode, err)
	}

	students := make([]engine.Student, 0, len(raw))
	for _, s := range raw {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if cleaned, ok := accept(s); ok {
			students = append(students, cleaned)
		}
	}
	return students, nil
}

// accept sanitizes s and validates it, logging why a record is dropped.
func accept(s engine.Student) (engine.Student, bool) {
	cleaned, ok := clean(s)
	if !ok {
		slog.Warn(config.MsgUnsafeRecord,
			config.LogKeyComponent, config.CompSource,
			config.LogKeyID, s.ID)
		return engine.Student{}, false
	}
	if err := input.Struct(cleaned); err != nil {
		slog.Warn(config.MsgSkippedRecord,
			config.LogKeyComponent, config.CompSource,
			config.LogKeyID, s.ID,
			config.LogKeyError, err)
		return engine.Student{}, false
	}
	return cleaned, true
}

// clean strips markup from display fields. Records carrying script-like payloads are rejected.
func clean(s engine.Student) (engine.Student, bool) {
	for _, v := range []string{s.FirstName, s.LastName, s.ClassName, s.GuardianName, s.GuardianContact} {
		if input.ContainsUnsafeInput(v) {
			return engine.Student{}, false
		}
	}

	s.ID = strings.TrimSpace(s.ID)
	s.DateOfBirth = strings.TrimSpace(s.DateOfBirth)
	s.FirstName = input.SanitizeText(s.FirstName, 0)
	s.LastName = input.SanitizeText(s.LastName, 0)
	s.ClassName = input.SanitizeText(s.ClassName, 0)
	s.GuardianName = input.SanitizeText(s.GuardianName, 0)
	s.GuardianContact = input.SanitizeText(s.GuardianContact, config.MaxEmailLength)

	if strings.Contains(s.GuardianContact, "@") && !input.IsValidEmail(s.GuardianContact) {
		s.GuardianContact = ""
	}
	return s, true
}
