package resource

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Entity is a list element with a server id and an optional pid token.
type Entity interface {
	EntityID() int64
	EntityPID() string
}

// Record is an untyped entity as decoded from JSON.
type Record map[string]any

func (r Record) EntityID() int64   { return r.Int("id") }
func (r Record) EntityPID() string { return r.String("pid") }

func (r Record) ID() int64     { return r.Int("id") }
func (r Record) PID() string   { return r.String("pid") }
func (r Record) PubID() string { return r.String("pubid") }

func (r Record) Has(k string) bool {
	_, ok := r[k]
	return ok
}

// String renders field k as text; nil and absent fields are "".
func (r Record) String(k string) string {
	switch v := r[k].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int reads field k as an integer, accepting JSON numbers and numeric strings.
func (r Record) Int(k string) int64 {
	switch v := r[k].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	}
	return 0
}

// Merge returns a copy of r with patch applied.
func (r Record) Merge(patch map[string]any) Record {
	out := make(Record, len(r)+len(patch))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// DecodeJSON is the default normalizer: plain json.Unmarshal into T.
func DecodeJSON[T Entity](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}
