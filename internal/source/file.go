package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
)

// FileSource reads students from a local JSON export, used when the backend is unreachable.
// The file is re-read on every call so edits show up on the next refresh.
type FileSource struct {
	Path string
}

func (f *FileSource) Students(ctx context.Context) ([]engine.Student, error) {
	if f.Path == "" {
		return nil, errors.New(config.ErrLocalPathEmpty)
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStudentsFile, err)
	}
	defer func() { _ = file.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return decodeStudents(ctx, file)
}
