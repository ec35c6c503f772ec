// Package fetch retrieves raw CSS text from a URL or a local path.
package fetch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"cssmap/misc"
)

// Error wraps any failure to retrieve source bytes. It is fatal for the
// owning source.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("unable to fetch '%s': %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher retrieves CSS sources. URLs are fetched over HTTP(S), everything
// else is treated as a local path and accepted only when it carries a CSS
// file extension and exists on disk.
type Fetcher struct {
	client *resty.Client
	log    *zap.Logger
}

// New creates a fetcher. Zero timeout means no timeout.
func New(timeout time.Duration, userAgent string, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	if userAgent == "" {
		userAgent = misc.GetUserAgent()
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/css,*/*;q=0.1")

	return &Fetcher{client: client, log: log.Named("fetch")}
}

// Fetch returns the raw text of the source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	start := time.Now()

	if isURL(source) {
		resp, err := f.client.R().SetContext(ctx).Get(source)
		if err != nil {
			return nil, &Error{Source: source, Err: err}
		}
		if resp.IsError() {
			return nil, &Error{Source: source, Err: fmt.Errorf("unexpected status: %s", resp.Status())}
		}
		f.log.Debug("Fetched source", zap.String("url", source), zap.Int("bytes", len(resp.Body())), zap.Duration("elapsed", time.Since(start)))
		return resp.Body(), nil
	}

	if !isCSSPath(source) {
		return nil, &Error{Source: source, Err: fmt.Errorf("not a URL and not a css file")}
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, &Error{Source: source, Err: err}
	}
	f.log.Debug("Read source file", zap.String("path", source), zap.Int("bytes", len(data)))
	return data, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isCSSPath(s string) bool {
	return strings.HasSuffix(strings.ToLower(s), ".css")
}
