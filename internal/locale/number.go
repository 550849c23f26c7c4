// Package locale parses and renders numbers the way operators type them:
// Indonesian notation, comma as decimal mark and dot as thousands separator.
package locale

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var dottedThousands = regexp.MustCompile(`^-?[1-9]\d{0,2}(\.\d{3})+$`)

// ParseNumber converts operator input into a decimal.
//
// "12,5" and "1.250.000,75" use a comma decimal mark; "100.000" is read as
// grouped thousands unless it starts with 0 ("0.500" is a half); "12.5" is
// a plain dot decimal. Empty input is zero.
// A leading "Rp" and a trailing "%" are ignored.
func ParseNumber(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Rp")
	s = strings.TrimSuffix(s, "%")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, nil
	}
	switch {
	case strings.Contains(s, ","):
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, fmt.Errorf("locale: invalid number %q", raw)
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dottedThousands.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("locale: invalid number %q: %w", raw, err)
	}
	return d, nil
}

// MustParse is ParseNumber for literals known to be valid.
func MustParse(s string) decimal.Decimal {
	d, err := ParseNumber(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatNumber renders d with Indonesian grouping and the given number of
// decimal places, e.g. 1250000.75 -> "1.250.000,75".
func FormatNumber(d decimal.Decimal, places int32) string {
	d = d.Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.Truncate(0)
	// message.Printer is not safe for concurrent use.
	p := message.NewPrinter(language.Indonesian)
	out := p.Sprintf("%d", whole.IntPart())
	if places > 0 {
		frac := d.Sub(whole).Shift(places).Round(0).IntPart()
		out += "," + fmt.Sprintf("%0*d", places, frac)
	}
	return sign + out
}

// FormatRupiah renders an amount as whole rupiah, e.g. "Rp 112.500".
func FormatRupiah(d decimal.Decimal) string {
	return "Rp " + FormatNumber(d, 0)
}
