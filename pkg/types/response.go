package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SuccessEnvelope wraps every successful register response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// StatusFlag is the backend's "status" field. Some endpoints send a boolean,
// others a string such as "success".
type StatusFlag bool

func (f *StatusFlag) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = false
		return nil
	}
	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		*f = StatusFlag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "success", "ok", "1":
			*f = true
		default:
			*f = false
		}
		return nil
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		*f = n != 0
		return nil
	}
	*f = false
	return nil
}

// RemoteEnvelope is the {status, message, data} shape returned by the store backend.
type RemoteEnvelope[T any] struct {
	Status  StatusFlag `json:"status"`
	Message string     `json:"message"`
	Data    T          `json:"data"`
}

// RemoteErrorBody captures the loosely-typed error payloads the backend emits.
// Validation failures carry per-field messages under "errors".
type RemoteErrorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

// FieldErrors flattens the "errors" member when it is an object of string lists.
func (b RemoteErrorBody) FieldErrors() map[string][]string {
	if len(b.Errors) == 0 {
		return nil
	}
	var fields map[string][]string
	if err := json.Unmarshal(b.Errors, &fields); err == nil && len(fields) > 0 {
		return fields
	}
	var single map[string]string
	if err := json.Unmarshal(b.Errors, &single); err == nil && len(single) > 0 {
		fields = make(map[string][]string, len(single))
		for k, v := range single {
			fields[k] = []string{v}
		}
		return fields
	}
	return nil
}

// BestMessage picks the first non-empty human readable message.
func (b RemoteErrorBody) BestMessage() string {
	if m := strings.TrimSpace(b.Message); m != "" {
		return m
	}
	if m := strings.TrimSpace(b.Error); m != "" {
		return m
	}
	for _, msgs := range b.FieldErrors() {
		for _, m := range msgs {
			if strings.TrimSpace(m) != "" {
				return m
			}
		}
	}
	return ""
}
