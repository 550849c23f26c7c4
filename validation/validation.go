package validation

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Violations maps a field name to a violation code ("required", "must_be_positive", ...).
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the violated fields in a stable order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// RequiredID flags zero foreign keys.
func RequiredID(field string, id uint, v Violations) {
	if id == 0 {
		v[field] = "required"
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v[field] = "out_of_range"
	}
}

// OneOf flags values outside the allowed set (case-sensitive).
func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_choice"
}

// NotFuture flags dates after today.
func NotFuture(field string, t time.Time, v Violations) {
	if t.IsZero() {
		return
	}
	today := time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	if !t.Before(today) {
		v[field] = "must_not_be_future"
	}
}
