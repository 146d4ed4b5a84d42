/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

import "math/rand/v2"

// Sample returns up to n elements of items picked uniformly at random without
// replacement, in random order. items is left untouched.
func Sample[T any](rng *rand.Rand, items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	if n <= 0 {
		return nil
	}

	out := make([]T, n)
	for i, j := range rng.Perm(len(items))[:n] {
		out[i] = items[j]
	}

	return out
}
