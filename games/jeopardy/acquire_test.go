/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSource struct {
	categories []Category
	listErr    error
	failing    map[int]error
	delay      time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	mu       sync.Mutex
	peak     int32
}

func newFakeSource(numCategories, cluesEach int) *fakeSource {
	src := &fakeSource{failing: map[int]error{}}

	for i := 1; i <= numCategories; i++ {
		c := Category{ID: i, Title: fmt.Sprintf("Category %d", i)}
		for k := 0; k < cluesEach; k++ {
			id := i*100 + k
			c.Clues = append(c.Clues, Clue{
				ID:     id,
				Prompt: fmt.Sprintf("prompt %d", id),
				Reveal: fmt.Sprintf("reveal %d", id),
			})
		}
		src.categories = append(src.categories, c)
	}

	return src
}

func (f *fakeSource) Categories(_ context.Context, count int) ([]CategorySummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	out := []CategorySummary{}
	for _, c := range f.categories[:min(count, len(f.categories))] {
		out = append(out, CategorySummary{ID: c.ID, Title: c.Title, ClueCount: len(c.Clues)})
	}

	return out, nil
}

func (f *fakeSource) Clues(ctx context.Context, categoryID int) ([]Clue, error) {
	f.calls.Add(1)

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	if n > f.peak {
		f.peak = n
	}
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := f.failing[categoryID]; ok {
		return nil, err
	}

	for _, c := range f.categories {
		if c.ID == categoryID {
			return append([]Clue(nil), c.Clues...), nil
		}
	}

	return nil, ErrUnknownCategory
}

func seeded() AcquirerOption {
	return WithRand(rand.New(rand.NewPCG(1, 2)))
}

func TestAcquireBuildsCompleteState(t *testing.T) {
	src := newFakeSource(CategoryPoolSize, 9)

	state, err := NewAcquirer(src, seeded()).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if err := state.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !state.Complete() {
		t.Fatal("expected complete state")
	}

	if got := src.calls.Load(); got != NumCategories {
		t.Errorf("expected %d clue fetches, got %d", NumCategories, got)
	}
}

func TestAcquireIsRandomAcrossGames(t *testing.T) {
	src := newFakeSource(CategoryPoolSize, 20)
	a := NewAcquirer(src, seeded())

	seen := map[string]bool{}
	for range 5 {
		state, err := a.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}

		key := ""
		for _, c := range state.Categories {
			key += fmt.Sprintf("%d:%d,", c.ID, c.Clues[0].ID)
		}
		seen[key] = true
	}

	if len(seen) < 2 {
		t.Error("five games produced identical boards")
	}
}

func TestAcquireSkipsRepeatedAndBlankClues(t *testing.T) {
	src := newFakeSource(CategoryPoolSize, 6)

	// every category also offers the same three clues, plus one without text
	for i := range src.categories {
		src.categories[i].Clues = append(src.categories[i].Clues,
			Clue{ID: 1, Prompt: "shared", Reveal: "shared"},
			Clue{ID: 2, Prompt: "shared", Reveal: "shared"},
			Clue{ID: 3, Prompt: "shared", Reveal: "shared"},
			Clue{ID: 4, Prompt: "", Reveal: "no prompt"},
		)
	}

	state, err := NewAcquirer(src, seeded()).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if err := state.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	for _, c := range state.Categories {
		for _, clue := range c.Clues {
			if clue.ID == 4 {
				t.Errorf("category %d picked a clue without a prompt", c.ID)
			}
		}
	}
}

func TestAcquireContinuesPastFailedCategory(t *testing.T) {
	boom := errors.New("boom")

	src := newFakeSource(NumCategories, 5)
	src.failing[3] = boom

	state, err := NewAcquirer(src, seeded()).Acquire(context.Background())

	var acqErr *AcquireError
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected *AcquireError, got %v", err)
	}

	if !errors.Is(err, boom) {
		t.Errorf("expected error to wrap the fetch failure, got %v", err)
	}

	if len(acqErr.Failures) != 1 || acqErr.Failures[0].ID != 3 {
		t.Fatalf("unexpected failures: %+v", acqErr.Failures)
	}

	if got := src.calls.Load(); got != NumCategories {
		t.Errorf("expected every category to be fetched, got %d fetches", got)
	}

	if len(state.Categories) != NumCategories {
		t.Fatalf("expected %d categories, got %d", NumCategories, len(state.Categories))
	}

	for _, c := range state.Categories {
		want := NumCluesPerCategory
		if c.ID == 3 {
			want = 0
		}

		if len(c.Clues) != want {
			t.Errorf("category %d: expected %d clues, got %d", c.ID, want, len(c.Clues))
		}
	}

	if state.Complete() {
		t.Error("state with a failed category reported complete")
	}
}

func TestAcquireReportsShortCategory(t *testing.T) {
	src := newFakeSource(NumCategories, 5)
	src.categories[0].Clues = src.categories[0].Clues[:2]

	state, err := NewAcquirer(src, seeded()).Acquire(context.Background())
	if !errors.Is(err, ErrNotEnoughClues) {
		t.Fatalf("expected ErrNotEnoughClues, got %v", err)
	}

	for _, c := range state.Categories {
		if c.ID == 1 && len(c.Clues) != 2 {
			t.Errorf("expected the short category to keep its 2 clues, got %d", len(c.Clues))
		}
	}
}

func TestAcquireNeedsEnoughCategories(t *testing.T) {
	src := newFakeSource(NumCategories-2, 5)

	state, err := NewAcquirer(src).Acquire(context.Background())
	if !errors.Is(err, ErrNotEnoughCategories) {
		t.Fatalf("expected ErrNotEnoughCategories, got %v", err)
	}

	if state != nil {
		t.Error("expected no state")
	}
}

func TestAcquireListFailure(t *testing.T) {
	src := newFakeSource(CategoryPoolSize, 5)
	src.listErr = errors.New("unreachable")

	if _, err := NewAcquirer(src).Acquire(context.Background()); !errors.Is(err, src.listErr) {
		t.Fatalf("expected list error, got %v", err)
	}

	if got := src.calls.Load(); got != 0 {
		t.Errorf("expected no clue fetches, got %d", got)
	}
}

func TestAcquireBoundsConcurrentFetches(t *testing.T) {
	src := newFakeSource(CategoryPoolSize, 5)
	src.delay = 20 * time.Millisecond

	state, err := NewAcquirer(src, seeded(), WithConcurrency(2)).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if !state.Complete() {
		t.Error("expected complete state after all fetches joined")
	}

	if src.peak > 2 {
		t.Errorf("expected at most 2 fetches in flight, saw %d", src.peak)
	}
}

func TestAcquireHonoursDeadline(t *testing.T) {
	src := newFakeSource(CategoryPoolSize, 5)
	src.delay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	state, err := NewAcquirer(src, seeded()).Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	if len(state.Categories) != NumCategories {
		t.Errorf("expected titles for all %d categories, got %d", NumCategories, len(state.Categories))
	}
}

func TestSample(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	got := Sample(rng, items, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}

	seen := map[int]bool{}
	for _, v := range got {
		if seen[v] {
			t.Errorf("duplicate %d in sample", v)
		}
		seen[v] = true
	}

	for i, v := range items {
		if v != i+1 {
			t.Fatal("Sample modified its input")
		}
	}

	if got := Sample(rng, items, 20); len(got) != len(items) {
		t.Errorf("expected oversized sample to return every item, got %d", len(got))
	}

	if got := Sample(rng, items, 0); got != nil {
		t.Errorf("expected nil for empty sample, got %v", got)
	}
}
