/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package jeopardy fetches trivia categories and clues from a quiz source and
// turns them into a board of cells that reveal their text one step at a time.
package jeopardy

import (
	"errors"
	"fmt"
)

const (
	NumCategories       = 6
	NumCluesPerCategory = 5

	// CategoryPoolSize is the largest category list the quiz API will supply.
	CategoryPoolSize = 14
)

var (
	ErrNotEnoughCategories = errors.New("not enough categories")
	ErrUnknownCategory     = errors.New("unknown category")
)

// Clue is a single prompt/reveal pair.
type Clue struct {
	ID     int    `json:"id" yaml:"id"`
	Prompt string `json:"prompt" yaml:"prompt"`
	Reveal string `json:"reveal" yaml:"reveal"`
}

func (c Clue) playable() bool {
	return c.Prompt != "" && c.Reveal != ""
}

// CategorySummary is a category as listed by a Source, before its clues are known.
type CategorySummary struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	ClueCount int    `json:"clues_count"`
}

type Category struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Clues []Clue `json:"clues"`
}

// GameState is everything one game session needs to build a board.
// It is rebuilt from scratch on every start.
type GameState struct {
	Categories []Category `json:"categories"`
}

// Complete reports whether every category carries a full set of clues.
func (s *GameState) Complete() bool {
	if len(s.Categories) != NumCategories {
		return false
	}

	for _, c := range s.Categories {
		if len(c.Clues) != NumCluesPerCategory {
			return false
		}
	}

	return true
}

// Validate checks the shape of a fully acquired state and that no category or
// clue id repeats within it.
func (s *GameState) Validate() error {
	if len(s.Categories) != NumCategories {
		return fmt.Errorf("expected %d categories, got %d", NumCategories, len(s.Categories))
	}

	categories := make(map[int]bool, NumCategories)
	clues := make(map[int]bool, NumCategories*NumCluesPerCategory)

	for _, c := range s.Categories {
		if categories[c.ID] {
			return fmt.Errorf("duplicate category id %d", c.ID)
		}
		categories[c.ID] = true

		if len(c.Clues) != NumCluesPerCategory {
			return fmt.Errorf("category %d: expected %d clues, got %d", c.ID, NumCluesPerCategory, len(c.Clues))
		}

		for _, clue := range c.Clues {
			if clues[clue.ID] {
				return fmt.Errorf("duplicate clue id %d", clue.ID)
			}
			clues[clue.ID] = true
		}
	}

	return nil
}
