package source

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
)

// VCardSource imports students from a vCard export, either a local .vcf file or a CardDAV/WebDAV URL.
// BDAY becomes the date of birth and the first CATEGORIES value the class name.
type VCardSource struct {
	Path    string
	URL     string
	User    string
	Pass    string
	Fetcher Fetcher
}

func (v *VCardSource) Students(ctx context.Context) ([]engine.Student, error) {
	reader, err := v.acquireStream(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
	}
	defer func() { _ = reader.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoder := vcard.NewDecoder(reader)
	var students []engine.Student

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A broken card must not hide the rest of the export.
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompSource,
				config.LogKeyError, err)
			continue
		}

		if s, ok := accept(studentFromCard(card)); ok {
			students = append(students, s)
		}
	}
	return students, nil
}

// acquireStream opens the local file when Path is set, the URL otherwise.
func (v *VCardSource) acquireStream(ctx context.Context) (io.ReadCloser, error) {
	if v.Path != "" {
		return os.Open(v.Path)
	}
	if v.URL == "" {
		return nil, errors.New(config.ErrWebURLEmpty)
	}
	if v.Fetcher == nil {
		return nil, errors.New(config.ErrFetcherMissing)
	}
	return v.Fetcher.Fetch(ctx, Request{URL: v.URL, User: v.User, Pass: v.Pass, Accept: vcardMediaTypes})
}

// studentFromCard maps the vCard fields we understand onto a Student.
// Name strategy: N (structured) > FN (formatted, split on the first space).
func studentFromCard(card vcard.Card) engine.Student {
	s := engine.Student{
		ID:          card.Value(vcard.FieldUID),
		DateOfBirth: card.Value(vcard.FieldBirthday),
	}

	if n := card.Name(); n != nil {
		s.FirstName = n.GivenName
		s.LastName = n.FamilyName
	}
	if s.FirstName == "" {
		fn := strings.TrimSpace(card.Value(vcard.FieldFormattedName))
		first, last, _ := strings.Cut(fn, " ")
		s.FirstName = first
		s.LastName = strings.TrimSpace(last)
	}

	if categories := card.Categories(); len(categories) > 0 {
		s.ClassName = strings.TrimSpace(categories[0])
	}

	if s.ID == "" && s.FirstName != "" {
		key := fmt.Sprintf(config.FormatHashInput, s.FullName(), s.DateOfBirth, config.UIDSalt)
		hash := sha256.Sum256([]byte(key))
		s.ID = fmt.Sprintf("%x", hash[:config.UIDHashLength])
	}
	return s
}
