package domain

import (
	"strings"
	"unicode"
)

// MoveItem returns a copy of items with the element at from removed and
// reinserted at to. Only the elements strictly between the two positions
// shift; everything else keeps its relative order. Indices must be in range.
func MoveItem[T any](items []T, from, to int) []T {
	out := make([]T, len(items))
	copy(out, items)
	if from == to {
		return out
	}
	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out
}

// Slugify lowercases title and replaces each run of whitespace with "-".
func Slugify(title string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(title)), unicode.IsSpace)
	return strings.Join(fields, "-")
}
