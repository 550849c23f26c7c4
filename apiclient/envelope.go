package apiclient

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Envelope is the body of mutation and show responses. Backends disagree on
// the success marker, so both "success": true and "status": "ok"/"success"
// are accepted.
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Status  Status          `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Header  json.RawMessage `json:"header,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
}

// OK reports whether the envelope signals success.
func (e Envelope) OK() bool {
	if e.Success != nil && *e.Success {
		return true
	}
	s := strings.ToLower(strings.TrimSpace(string(e.Status)))
	return s == "ok" || s == "success"
}

// HasHeader reports whether a non-null header record was sent.
func (e Envelope) HasHeader() bool {
	h := bytes.TrimSpace(e.Header)
	return len(h) > 0 && !bytes.Equal(h, []byte("null"))
}

// FieldErrors flattens "errors" into field -> message. Values given as lists
// keep their first entry.
func (e Envelope) FieldErrors() map[string]string {
	if len(e.Errors) == 0 {
		return nil
	}
	var raw map[string]json.RawMessage
	if json.Unmarshal(e.Errors, &raw) != nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[k] = s
			continue
		}
		var list []string
		if json.Unmarshal(v, &list) == nil && len(list) > 0 {
			out[k] = list[0]
		}
	}
	return out
}

// Status accepts a JSON string, number or boolean.
type Status string

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = Status(str)
		return nil
	}
	*s = Status(strings.Trim(string(b), `"`))
	return nil
}
