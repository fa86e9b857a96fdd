// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// NormalizeSymbol trims and uppercases an asset symbol.
// Empty or whitespace-only input yields "".
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// UniqueSymbols normalizes a symbol list and removes duplicates while
// preserving first-seen order. Blank entries are dropped.
func UniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	unique := make([]string, 0, len(symbols))
	for _, s := range symbols {
		normalized := NormalizeSymbol(s)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		unique = append(unique, normalized)
	}
	return unique
}

// BaseSymbol strips quote-currency and index decorations so a symbol can be
// used for topic lookups against commentary sources.
// "BTC-USD" -> "BTC", "^GSPC" -> "GSPC".
func BaseSymbol(symbol string) string {
	s := NormalizeSymbol(symbol)
	s = strings.TrimPrefix(s, "^")
	s = strings.TrimSuffix(s, "-USD")
	return strings.ReplaceAll(s, "-", "")
}
