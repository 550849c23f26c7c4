package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"sort"
	"strconv"
)

// File is an upload inside a Post payload map.
type File struct {
	Name   string
	Reader io.Reader
}

// asFields returns body as a string-keyed map when it is one.
func asFields(body any) (map[string]any, bool) {
	if body == nil {
		return nil, false
	}
	v := reflect.ValueOf(body)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func hasFile(fields map[string]any) bool {
	for _, v := range fields {
		switch v.(type) {
		case File, *File:
			return true
		}
	}
	return false
}

func encodeMultipart(fields map[string]any) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writePart(mw, k, fields[k]); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writePart(mw *multipart.Writer, key string, v any) error {
	switch f := v.(type) {
	case *File:
		if f == nil {
			return nil
		}
		return writePart(mw, key, *f)
	case File:
		if f.Reader == nil {
			return nil
		}
		w, err := mw.CreateFormFile(key, f.Name)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f.Reader)
		return err
	}
	s, err := formValue(v)
	if err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	return mw.WriteField(key, s)
}

// formValue renders a scalar as form text; nil becomes "null" so the server
// can tell an explicit null from an absent field.
func formValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}
