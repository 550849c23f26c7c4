package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/LittleKatyusha/Sapi/i18n"
)

var (
	// ErrNoToken is returned before any I/O when an authenticated call has no token.
	ErrNoToken         = errors.New("apiclient: no auth token")
	ErrSessionExpired  = errors.New("apiclient: session expired")
	ErrForbidden       = errors.New("apiclient: forbidden")
	ErrNotFound        = errors.New("apiclient: not found")
	ErrServer          = errors.New("apiclient: server error")
	ErrTransport       = errors.New("apiclient: transport error")
	ErrInvalidResponse = errors.New("apiclient: invalid response")

	// ErrRejected means the server answered but refused the operation.
	ErrRejected = errors.New("apiclient: rejected")
)

// Error describes a failed call. errors.Is matches its Kind and the
// underlying cause.
type Error struct {
	Kind    error
	Method  string
	Path    string
	Status  int
	Message string            // server message, verbatim
	Fields  map[string]string // per-field validation messages, if sent
	Err     error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Kind)
	if e.Status != 0 {
		s += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrSessionExpired
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrServer
	case status >= 400:
		return ErrRejected
	}
	return nil
}

// UserMessage renders err as an Indonesian sentence for end users.
func UserMessage(err error) string {
	return UserMessageIn(i18n.DefaultLang, err)
}

// UserMessageIn renders err in lang. Rejections carry the server message
// unchanged.
func UserMessageIn(lang string, err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	switch {
	case errors.Is(err, ErrRejected):
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
		return i18n.T(lang, "request_rejected")
	case errors.Is(err, ErrNoToken), errors.Is(err, ErrSessionExpired):
		return i18n.T(lang, "unauthenticated")
	case errors.Is(err, ErrForbidden):
		return i18n.T(lang, "forbidden")
	case errors.Is(err, ErrNotFound):
		return i18n.T(lang, "not_found")
	case errors.Is(err, ErrServer):
		return i18n.T(lang, "server_error")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return i18n.T(lang, "request_canceled")
	case errors.Is(err, ErrTransport):
		return i18n.T(lang, "network_error")
	case errors.Is(err, ErrInvalidResponse):
		return i18n.T(lang, "invalid_response")
	}
	return err.Error()
}
