package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/tartampluch/go-compass/internal/config"
)

// Media types each source asks for, most preferred first.
var (
	jsonMediaTypes  = []string{config.MimeJSON}
	vcardMediaTypes = []string{config.MimeVCard, config.MimeXVCard, config.MimeDirectory, config.MimeAnyFallback}
)

// Request describes one download of student records.
type Request struct {
	URL  string
	User string
	Pass string

	// Accept lists the media types the caller can decode. It is sent as the Accept header,
	// and a response declaring any other Content-Type is rejected. "*/*" accepts anything.
	Accept []string
}

// Fetcher retrieves a remote document (student JSON or a vCard export).
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (io.ReadCloser, error)
}

// HTTPFetcher implements Fetcher over net/http.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher with the configured client timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: config.HTTPTimeout,
		},
	}
}

// Fetch downloads req.URL with optional basic auth.
// Query strings are stripped from logs since they may carry tokens.
// The body is capped at config.MaxHTTPResponseSize.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (io.ReadCloser, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, u.Scheme+"://"+u.Host+u.Path),
	)
	log.Debug(config.MsgDownloadStart)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRequestBuild, err)
	}
	httpReq.Header.Set(config.HeaderUserAgent, config.UserAgent)
	if len(req.Accept) > 0 {
		httpReq.Header.Set(config.HeaderAccept, strings.Join(req.Accept, ", "))
	}
	if req.User != "" || req.Pass != "" {
		httpReq.SetBasicAuth(req.User, req.Pass)
	}

	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.Warn(config.MsgStatusError, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return nil, fmt.Errorf("%s: %s", config.ErrFetchStatus, resp.Status)
	}

	contentType := resp.Header.Get(config.HeaderContentType)
	if !acceptable(contentType, req.Accept) {
		_ = resp.Body.Close()
		log.Warn(config.MsgContentRejected, slog.String(config.LogKeyMediaType, contentType))
		return nil, fmt.Errorf("%s: %q", config.ErrContentType, contentType)
	}

	log.Info(config.MsgDownloading, slog.Int64(config.LogKeyLength, resp.ContentLength))

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, config.MaxHTTPResponseSize),
		Closer: resp.Body,
	}, nil
}

// acceptable reports whether a response Content-Type matches one of the accepted media types.
// A missing Content-Type or an empty accept list lets the decoder decide.
func acceptable(contentType string, accept []string) bool {
	if contentType == "" || len(accept) == 0 {
		return true
	}
	got, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, a := range accept {
		want, _, err := mime.ParseMediaType(a)
		if err != nil {
			continue
		}
		switch {
		case want == "*/*":
			return true
		case strings.HasSuffix(want, "/*"):
			if strings.HasPrefix(got, strings.TrimSuffix(want, "*")) {
				return true
			}
		case want == got:
			return true
		}
	}
	return false
}

// limitedReadCloser keeps the connection closable while the reads are capped.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}
