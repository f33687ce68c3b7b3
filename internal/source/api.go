package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
)

// APISource reads students from the ministry backend (GET <BaseURL>/students).
type APISource struct {
	BaseURL string
	User    string
	Pass    string
	Fetcher Fetcher
}

func (a *APISource) Students(ctx context.Context) ([]engine.Student, error) {
	if a.BaseURL == "" {
		return nil, errors.New(config.ErrWebURLEmpty)
	}
	if a.Fetcher == nil {
		return nil, errors.New(config.ErrFetcherMissing)
	}

	target := strings.TrimRight(a.BaseURL, "/") + config.PathStudents
	rc, err := a.Fetcher.Fetch(ctx, Request{URL: target, User: a.User, Pass: a.Pass, Accept: jsonMediaTypes})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", config.ErrSourceLoad, err)
	}
	defer func() { _ = rc.Close() }()

	students, err := decodeStudents(ctx, rc)
	if err != nil {
		return nil, err
	}

	slog.Debug(config.MsgStudentsLoaded,
		config.LogKeyComponent, config.CompSource,
		config.LogKeyMode, config.SourceModeAPI,
		config.LogKeyCount, len(students))
	return students, nil
}
