/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

import "context"

// Source supplies categories and their clue pools.
type Source interface {
	Categories(ctx context.Context, count int) ([]CategorySummary, error)
	Clues(ctx context.Context, categoryID int) ([]Clue, error)
}
