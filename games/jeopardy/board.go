/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchCell      = errors.New("no such cell")
	ErrCellRevealed    = errors.New("cell already revealed")
	ErrCellUnavailable = errors.New("cell has no clue")
)

type CellState int

const (
	Hidden CellState = iota
	PromptShown
	RevealShown

	// Unavailable marks a cell whose category came back short of clues.
	Unavailable
)

func (s CellState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case PromptShown:
		return "prompt_shown"
	case RevealShown:
		return "reveal_shown"
	case Unavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("CellState(%d)", int(s))
	}
}

func (s CellState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CellState) UnmarshalText(text []byte) error {
	for _, c := range []CellState{Hidden, PromptShown, RevealShown, Unavailable} {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}

	return fmt.Errorf("unknown cell state %q", text)
}

type cell struct {
	clue  Clue
	state CellState
}

// next advances the cell one step. The walk is Hidden, PromptShown,
// RevealShown, and stops there.
func (c *cell) next() error {
	switch c.state {
	case Hidden:
		c.state = PromptShown
	case PromptShown:
		c.state = RevealShown
	case RevealShown:
		return ErrCellRevealed
	default:
		return ErrCellUnavailable
	}

	return nil
}

// Board is the playable grid for one GameState: one column per category, one
// row per clue. It is not safe for concurrent use.
type Board struct {
	categories []CategoryView
	columns    [][]cell
	remaining  int
}

type CategoryView struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// CellView is what a viewer may see of a cell. Text holds the prompt once the
// cell is PromptShown and the reveal once it is RevealShown.
type CellView struct {
	Column int       `json:"column"`
	Row    int       `json:"row"`
	ClueID int       `json:"clue_id,omitempty"`
	State  CellState `json:"state"`
	Text   string    `json:"text,omitempty"`
}

type BoardView struct {
	Categories []CategoryView `json:"categories"`
	Rows       [][]CellView   `json:"rows"`
	Finished   bool           `json:"finished"`
}

func NewBoard(state *GameState) *Board {
	b := &Board{
		categories: make([]CategoryView, len(state.Categories)),
		columns:    make([][]cell, len(state.Categories)),
	}

	for col, category := range state.Categories {
		b.categories[col] = CategoryView{
			ID:    category.ID,
			Title: category.Title,
		}

		column := make([]cell, NumCluesPerCategory)
		for row := range column {
			if row < len(category.Clues) {
				column[row] = cell{clue: category.Clues[row], state: Hidden}
				b.remaining++
			} else {
				column[row] = cell{state: Unavailable}
			}
		}
		b.columns[col] = column
	}

	return b
}

func (b *Board) Columns() int {
	return len(b.columns)
}

func (b *Board) Rows() int {
	return NumCluesPerCategory
}

func (b *Board) lookup(column, row int) (*cell, error) {
	if column < 0 || column >= len(b.columns) || row < 0 || row >= NumCluesPerCategory {
		return nil, fmt.Errorf("%w: column %d, row %d", ErrNoSuchCell, column, row)
	}

	return &b.columns[column][row], nil
}

// Activate moves a cell one step along its reveal sequence and returns its new
// view.
func (b *Board) Activate(column, row int) (CellView, error) {
	c, err := b.lookup(column, row)
	if err != nil {
		return CellView{}, err
	}

	if err := c.next(); err != nil {
		return b.view(column, row), err
	}

	if c.state == RevealShown {
		b.remaining--
	}

	return b.view(column, row), nil
}

func (b *Board) Cell(column, row int) (CellView, error) {
	if _, err := b.lookup(column, row); err != nil {
		return CellView{}, err
	}

	return b.view(column, row), nil
}

// Finished reports whether every playable cell has been fully revealed.
func (b *Board) Finished() bool {
	return b.remaining == 0
}

func (b *Board) view(column, row int) CellView {
	c := b.columns[column][row]

	v := CellView{
		Column: column,
		Row:    row,
		ClueID: c.clue.ID,
		State:  c.state,
	}

	switch c.state {
	case PromptShown:
		v.Text = c.clue.Prompt
	case RevealShown:
		v.Text = c.clue.Reveal
	}

	return v
}

// View renders the board row by row, the way it is laid out on screen.
func (b *Board) View() BoardView {
	rows := make([][]CellView, NumCluesPerCategory)
	for row := range rows {
		rows[row] = make([]CellView, len(b.columns))
		for col := range b.columns {
			rows[row][col] = b.view(col, row)
		}
	}

	return BoardView{
		Categories: append([]CategoryView(nil), b.categories...),
		Rows:       rows,
		Finished:   b.Finished(),
	}
}
