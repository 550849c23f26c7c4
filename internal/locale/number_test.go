package locale

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12,5", "12.5"},
		{"12.5", "12.5"},
		{"100000", "100000"},
		{"100.000", "100000"},
		{"1.250.000,75", "1250000.75"},
		{"Rp 112.500", "112500"},
		{"15%", "15"},
		{"", "0"},
		{"  ", "0"},
		{"-2,25", "-2.25"},
		{"0.500", "0.5"},
		{"0.250", "0.25"},
		{"-0.750", "-0.75"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			if err != nil {
				t.Fatalf("ParseNumber(%q) error: %v", tt.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseNumber(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseNumberInvalid(t *testing.T) {
	for _, in := range []string{"abc", "1,2,3", "12,5x"} {
		if _, err := ParseNumber(in); err == nil {
			t.Errorf("ParseNumber(%q) expected error", in)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(decimal.NewFromInt(112500), 0); got != "112.500" {
		t.Errorf("FormatNumber = %q, want 112.500", got)
	}
	if got := FormatNumber(decimal.RequireFromString("1250000.75"), 2); got != "1.250.000,75" {
		t.Errorf("FormatNumber = %q, want 1.250.000,75", got)
	}
	if got := FormatNumber(decimal.RequireFromString("-12.5"), 1); got != "-12,5" {
		t.Errorf("FormatNumber = %q, want -12,5", got)
	}
	if got := FormatRupiah(decimal.NewFromInt(337500)); got != "Rp 337.500" {
		t.Errorf("FormatRupiah = %q", got)
	}
}
