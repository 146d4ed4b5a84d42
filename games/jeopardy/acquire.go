/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrNotEnoughClues = errors.New("not enough playable clues")

// CategoryFailure records why one category could not be fully populated.
type CategoryFailure struct {
	ID    int
	Title string
	Err   error
}

// AcquireError is returned alongside a usable GameState when some categories
// ended up with fewer than NumCluesPerCategory clues.
type AcquireError struct {
	Failures []CategoryFailure
}

func (e *AcquireError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d of %d categories incomplete", len(e.Failures), NumCategories)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; category %d: %v", f.ID, f.Err)
	}

	return b.String()
}

func (e *AcquireError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}

	return errs
}

// Acquirer builds a fresh GameState from a Source.
type Acquirer struct {
	source      Source
	concurrency int
	logger      zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type AcquirerOption func(*Acquirer)

// WithRand makes sampling use rng, for reproducible games.
func WithRand(rng *rand.Rand) AcquirerOption {
	return func(a *Acquirer) {
		a.rng = rng
	}
}

// WithConcurrency bounds the number of clue fetches in flight. Values below 1
// remove the bound.
func WithConcurrency(n int) AcquirerOption {
	return func(a *Acquirer) {
		a.concurrency = n
	}
}

func WithLogger(logger zerolog.Logger) AcquirerOption {
	return func(a *Acquirer) {
		a.logger = logger
	}
}

func NewAcquirer(src Source, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		source:      src,
		concurrency: NumCategories,
		logger:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.concurrency < 1 {
		a.concurrency = -1
	}

	if a.rng == nil {
		a.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return a
}

// Acquire picks NumCategories categories out of a pool of CategoryPoolSize,
// fetches every chosen category's clues in parallel and waits for all of them
// before sampling NumCluesPerCategory clues from each.
//
// A failed clue fetch does not stop the others. The returned state is always
// usable when err is nil or an *AcquireError; any other error means no
// categories could be listed.
func (a *Acquirer) Acquire(ctx context.Context) (*GameState, error) {
	listed, err := a.source.Categories(ctx, CategoryPoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	pool := distinctCategories(listed)
	if len(pool) < NumCategories {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrNotEnoughCategories, NumCategories, len(pool))
	}

	a.mu.Lock()
	chosen := Sample(a.rng, pool, NumCategories)
	a.mu.Unlock()

	pools := make([][]Clue, len(chosen))
	errs := make([]error, len(chosen))

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)

	for i, c := range chosen {
		g.Go(func() error {
			clues, err := a.source.Clues(ctx, c.ID)
			if err != nil {
				a.logger.Error().Err(err).Int("category", c.ID).Str("title", c.Title).Msg("failed to fetch clues")
				errs[i] = err

				return nil
			}
			pools[i] = clues

			return nil
		})
	}

	// fetch errors are collected in errs
	g.Wait()

	state := &GameState{
		Categories: make([]Category, len(chosen)),
	}

	var failures []CategoryFailure

	used := make(map[int]bool, NumCategories*NumCluesPerCategory)

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, c := range chosen {
		state.Categories[i] = Category{
			ID:    c.ID,
			Title: c.Title,
		}

		if errs[i] != nil {
			failures = append(failures, CategoryFailure{ID: c.ID, Title: c.Title, Err: errs[i]})
			continue
		}

		picked := Sample(a.rng, playableClues(pools[i], used), NumCluesPerCategory)
		for _, clue := range picked {
			used[clue.ID] = true
		}
		state.Categories[i].Clues = picked

		if len(picked) < NumCluesPerCategory {
			failures = append(failures, CategoryFailure{
				ID:    c.ID,
				Title: c.Title,
				Err:   fmt.Errorf("%w: %d of %d", ErrNotEnoughClues, len(picked), NumCluesPerCategory),
			})
		}
	}

	if len(failures) > 0 {
		return state, &AcquireError{Failures: failures}
	}

	return state, nil
}

func distinctCategories(listed []CategorySummary) []CategorySummary {
	seen := make(map[int]bool, len(listed))

	out := make([]CategorySummary, 0, len(listed))
	for _, c := range listed {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}

	return out
}

// playableClues drops clues with missing text, repeated ids and ids already
// used elsewhere in the session.
func playableClues(clues []Clue, used map[int]bool) []Clue {
	seen := make(map[int]bool, len(clues))

	out := make([]Clue, 0, len(clues))
	for _, clue := range clues {
		if !clue.playable() || used[clue.ID] || seen[clue.ID] {
			continue
		}
		seen[clue.ID] = true
		out = append(out, clue)
	}

	return out
}
