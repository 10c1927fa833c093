package backend

import (
	"encoding/json"
	"errors"
	"strings"
)

// UnknownErrorMessage is shown when a failure carries no message at all.
const UnknownErrorMessage = "unknown error"

// Error is a failed backend call. Detail holds the backend's own error text
// from a {"detail": ...} envelope.
type Error struct {
	StatusCode int
	Detail     string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage picks the text shown to the user: the backend detail when
// present, else the error text, else "unknown error".
func UserMessage(err error) string {
	if err == nil {
		return UnknownErrorMessage
	}
	var be *Error
	if errors.As(err, &be) {
		if be.Detail != "" {
			return be.Detail
		}
		if be.Message != "" {
			return be.Message
		}
		if be.Err != nil && be.Err.Error() != "" {
			return be.Err.Error()
		}
		return UnknownErrorMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}

// parseDetail extracts the detail field of an error body. String details are
// returned as is; list details (validation errors) are joined by their msg
// fields; anything else is returned as raw JSON.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if string(envelope.Detail) == "null" {
		return ""
	}
	return string(envelope.Detail)
}
