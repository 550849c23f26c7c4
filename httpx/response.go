package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response body of every mutation and show endpoint.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Header  any    `json:"header,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Table is the DataTables list response.
type Table struct {
	Draw            int   `json:"draw"`
	RecordsTotal    int64 `json:"recordsTotal"`
	RecordsFiltered int64 `json:"recordsFiltered"`
	Data            any   `json:"data"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"status":"error","message":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, status int, msg string, data any) {
	JSON(w, status, Envelope{Status: StatusOK, Message: msg, Data: data})
}

// JSONError writes a failed envelope; details end up under "errors".
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, Envelope{Status: StatusError, Message: msg, Errors: details})
}
