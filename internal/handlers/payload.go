package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/LittleKatyusha/Sapi/internal/locale"
	"github.com/shopspring/decimal"
)

var (
	errBadPayload = errors.New("invalid request payload")
	decimalType   = reflect.TypeOf(decimal.Decimal{})
	unmarshalerT  = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
)

// payload is a request body normalized to JSON fields, whatever its
// content type, plus the uploaded file if any.
type payload struct {
	fields map[string]json.RawMessage
	file   *multipart.FileHeader
}

// readPayload parses a JSON, multipart or urlencoded body. Form values are
// converted to JSON according to the json-tagged field types of model, so
// "12,5" becomes a decimal and "3" a number.
func readPayload(r *http.Request, model any, fileField string, maxBytes int64) (payload, error) {
	p := payload{fields: map[string]json.RawMessage{}}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return p, errBadPayload
		}
		p.fromForm(r.MultipartForm.Value, model)
		if fhs := r.MultipartForm.File[fileField]; fileField != "" && len(fhs) > 0 {
			p.file = fhs[0]
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return p, errBadPayload
		}
		p.fromForm(r.PostForm, model)
	default:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
		if err != nil {
			return p, errBadPayload
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return p, nil
		}
		if err := json.Unmarshal(body, &p.fields); err != nil {
			return p, errBadPayload
		}
		p.normalizeDecimals(model)
	}
	return p, nil
}

// normalizeDecimals rewrites locale formatted decimal strings ("12,5",
// "100.000") in a JSON body to plain decimal notation.
func (p payload) normalizeDecimals(model any) {
	for k, t := range jsonFieldTypes(reflect.TypeOf(model)) {
		raw, ok := p.fields[k]
		if !ok || t != decimalType {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) != nil {
			continue
		}
		if strings.TrimSpace(s) == "" {
			delete(p.fields, k)
			continue
		}
		if d, err := locale.ParseNumber(s); err == nil {
			p.fields[k], _ = json.Marshal(d.String())
		}
	}
}

func (p payload) fromForm(values map[string][]string, model any) {
	types := jsonFieldTypes(reflect.TypeOf(model))
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		if raw, ok := formValueJSON(types[k], vs[0]); ok {
			p.fields[k] = raw
		}
	}
}

// decode applies the fields onto dst. Keys absent from the payload leave
// dst untouched.
func (p payload) decode(dst any) error {
	b, err := json.Marshal(p.fields)
	if err != nil {
		return errBadPayload
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return errBadPayload
	}
	return nil
}

func (p payload) has(key string) bool {
	_, ok := p.fields[key]
	return ok
}

// str returns a string field; null and absent both yield "".
func (p payload) str(key string) string {
	var s string
	if raw, ok := p.fields[key]; ok {
		if json.Unmarshal(raw, &s) != nil {
			return strings.Trim(string(raw), `"`)
		}
	}
	if s == "null" {
		return ""
	}
	return s
}

// id returns a numeric id field given as number or numeric string.
func (p payload) id(key string) uint {
	s := p.str(key)
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// jsonFieldTypes maps json names to field types, descending into embedded structs.
func jsonFieldTypes(t reflect.Type) map[string]reflect.Type {
	out := map[string]reflect.Type{}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			for k, v := range jsonFieldTypes(f.Type) {
				out[k] = v
			}
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[name] = f.Type
	}
	return out
}

func formValueJSON(t reflect.Type, s string) (json.RawMessage, bool) {
	quoted := func(v string) json.RawMessage {
		b, _ := json.Marshal(v)
		return b
	}
	if s == "null" {
		return json.RawMessage("null"), true
	}
	if t == nil {
		return quoted(s), true
	}
	if t == decimalType {
		if strings.TrimSpace(s) == "" {
			return nil, false
		}
		d, err := locale.ParseNumber(s)
		if err != nil {
			return quoted(s), true
		}
		return quoted(d.String()), true
	}
	if reflect.PointerTo(t).Implements(unmarshalerT) && t.Kind() == reflect.Struct {
		if s == "" {
			return nil, false
		}
		return quoted(s), true
	}
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s == "" {
			return nil, false
		}
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			return quoted(s), true
		}
		return json.RawMessage(s), true
	case reflect.Bool:
		b := s == "on" || s == "1" || strings.EqualFold(s, "true")
		return json.RawMessage(strconv.FormatBool(b)), true
	case reflect.Map, reflect.Slice, reflect.Struct:
		if json.Valid([]byte(s)) {
			return json.RawMessage(s), true
		}
		return nil, false
	}
	return quoted(s), true
}
