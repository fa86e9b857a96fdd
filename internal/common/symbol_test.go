package common

import (
	"testing"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"aapl", "AAPL"},
		{"  msft  ", "MSFT"},
		{"BTC-USD", "BTC-USD"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeSymbol(tt.input); got != tt.want {
				t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUniqueSymbols(t *testing.T) {
	input := []string{"aapl", "MSFT", "AAPL", "  ", "", "tsla", "msft"}
	got := UniqueSymbols(input)

	want := []string{"AAPL", "MSFT", "TSLA"}
	if len(got) != len(want) {
		t.Fatalf("UniqueSymbols returned %d symbols, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBaseSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"BTC-USD", "BTC"},
		{"^GSPC", "GSPC"},
		{"aapl", "AAPL"},
		{"ETH-USD", "ETH"},
		{"BRK-B", "BRKB"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := BaseSymbol(tt.input); got != tt.want {
				t.Errorf("BaseSymbol(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
