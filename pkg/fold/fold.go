// Copyright (c) 2026 Aldex. All rights reserved.

// Package fold produces canonical comparison keys for catalog matching.
//
// # Usage
//
// Album titles and artist names arrive with inconsistent casing across
// metadata sources ("ABBEY ROAD" vs "Abbey Road"). Key collapses those
// variants onto one value so the catalog resolver can compare them without
// treating casing as a distinct album.
package fold

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Key converts a string into its case-insensitive comparison form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFC so composed and decomposed forms compare equal.
// 2. Lowercases the result.
// 3. Trims surrounding whitespace.
//
// Accents are deliberately preserved: "Beyoncé" and "Beyonce" are different
// artist spellings, not casing variants.
func Key(s string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFC.String(s)))
}

// Equal reports whether two strings share the same comparison key.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}
