/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource serves categories from a local YAML clue pack:
//
//	categories:
//	  - id: 1
//	    title: Rivers
//	    clues:
//	      - id: 10
//	        prompt: It flows through Cairo
//	        reveal: The Nile
type FileSource struct {
	categories []Category
	byID       map[int]int
}

type clueFile struct {
	Categories []Category `yaml:"categories"`
}

func LoadFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadFileSource(f)
}

func ReadFileSource(r io.Reader) (*FileSource, error) {
	var pack clueFile

	if err := yaml.NewDecoder(r).Decode(&pack); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode clue file: %w", err)
	}

	src := &FileSource{
		categories: pack.Categories,
		byID:       make(map[int]int, len(pack.Categories)),
	}

	for i, c := range pack.Categories {
		if _, exists := src.byID[c.ID]; exists {
			return nil, fmt.Errorf("clue file: duplicate category id %d", c.ID)
		}
		src.byID[c.ID] = i
	}

	return src, nil
}

func (s *FileSource) Categories(ctx context.Context, count int) ([]CategorySummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := max(0, min(count, len(s.categories)))

	// A pack may hold more categories than one listing returns, so every
	// listing draws its own random selection.
	out := make([]CategorySummary, 0, n)
	for _, i := range rand.Perm(len(s.categories))[:n] {
		c := s.categories[i]
		out = append(out, CategorySummary{
			ID:        c.ID,
			Title:     c.Title,
			ClueCount: len(c.Clues),
		})
	}

	return out, nil
}

func (s *FileSource) Clues(ctx context.Context, categoryID int) ([]Clue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i, ok := s.byID[categoryID]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", categoryID, ErrUnknownCategory)
	}

	return append([]Clue(nil), s.categories[i].Clues...), nil
}
