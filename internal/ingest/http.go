package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/ad-cutoff/internal/utils"
)

// GetWithRetry downloads url, retrying transport errors and non-2xx replies.
func GetWithRetry(ctx context.Context, c HTTPClient, url string, b utils.Backoff, log *slog.Logger) ([]byte, error) {
	var body []byte
	err := b.Do(ctx, func(i int) error {
		var err error
		body, err = getBody(ctx, c, url)
		if err != nil && i < b.Retries() {
			log.Warn("report fetch failed, retrying", slog.String("url", url), slog.Int("attempt", i+1), slog.String("err", err.Error()))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, nil
}

// FetchSources downloads every report URL. Any URL that still fails after
// retries fails the whole fetch.
func FetchSources(ctx context.Context, c HTTPClient, urls []string, b utils.Backoff, log *slog.Logger) ([]Source, error) {
	if len(urls) == 0 {
		return nil, ErrNoSources
	}
	out := make([]Source, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			body, err := GetWithRetry(gctx, c, u, b, log)
			if err != nil {
				return err
			}
			out[i] = Source{Name: path.Base(u), Body: bytes.NewReader(body)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
