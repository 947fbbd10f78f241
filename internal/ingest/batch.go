package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string { return e.Source + ": " + e.Err.Error() }

// BatchError is returned when no source in a batch could be parsed.
type BatchError struct {
	Failed []SourceError
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d source(s) failed: %s", len(e.Failed), strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	out := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Err
	}
	return out
}

// Parsed is the union of every successfully parsed source in a batch.
type Parsed struct {
	Sources   int
	Records   []models.RawRecord
	Discarded int
	Errors    []SourceError
}

// ErrorStrings flattens per-source failures for reporting.
func (p Parsed) ErrorStrings() []string {
	if len(p.Errors) == 0 {
		return nil
	}
	out := make([]string, len(p.Errors))
	for i, e := range p.Errors {
		out[i] = e.Error()
	}
	return out
}

// ParseBatch parses all sources concurrently and returns only once every one
// has finished. Failed sources are listed in Parsed.Errors while the others
// still contribute records; an error is returned only when all of them fail.
func ParseBatch(ctx context.Context, sources []Source) (Parsed, error) {
	if len(sources) == 0 {
		return Parsed{}, ErrNoSources
	}
	results := make([]ParseResult, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = ParseCSV(src)
			return nil
		})
	}
	_ = g.Wait()

	p := Parsed{Sources: len(sources)}
	for i, res := range results {
		if errs[i] != nil {
			p.Errors = append(p.Errors, SourceError{Source: sources[i].Name, Err: errs[i]})
			continue
		}
		p.Records = append(p.Records, res.Records...)
		p.Discarded += res.Discarded
	}
	if len(p.Errors) == len(sources) {
		return p, &BatchError{Failed: p.Errors}
	}
	return p, nil
}

// IsBatchFailure reports whether err means no source could be used.
func IsBatchFailure(err error) bool {
	var be *BatchError
	return errors.Is(err, ErrNoSources) || errors.As(err, &be)
}
