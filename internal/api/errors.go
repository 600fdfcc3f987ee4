// internal/api/errors.go
//
// Error values surfaced by the API client and the helpers controllers use
// to turn them into user-facing notices.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken is returned by calls that need a session token when none is
// stored.  Controllers normally check the session first and never see it.
var ErrNoToken = errors.New("no session token")

// Error is a non-2xx reply from the movie API.
//
// Message mirrors the server's `message` field and Detail its `error`
// field; either may be empty.  Body keeps the raw reply for logging.
type Error struct {
	Status  int
	Message string
	Detail  string
	Body    []byte
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	case e.Detail != "":
		return fmt.Sprintf("api: %d %s", e.Status, e.Detail)
	default:
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
}

// newError decodes the optional JSON envelope of an error reply.  NestJS
// style bodies carry `message` as a string or as a list of strings.
func newError(status int, body []byte) *Error {
	e := &Error{Status: status, Body: body}

	var env struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil {
		return e
	}
	e.Detail = env.Error

	var s string
	if json.Unmarshal(env.Message, &s) == nil {
		e.Message = s
		return e
	}
	var list []string
	if json.Unmarshal(env.Message, &list) == nil && len(list) > 0 {
		e.Message = list[0]
	}
	return e
}

// RequiresLogin reports whether a failed read should send the browser back
// to the login page.
//
// Every failure qualifies, including 5xx and transport errors.  This is the
// one place to narrow it (for example to 401/403 only).
func RequiresLogin(err error) bool {
	return err != nil
}

// MessageOr returns the server `message` carried by err, or fallback.
func MessageOr(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}

// DetailOr returns the server `error` field carried by err, or fallback.
func DetailOr(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Detail != "" {
		return ae.Detail
	}
	return fallback
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
