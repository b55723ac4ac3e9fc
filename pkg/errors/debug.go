package errors

import (
	"errors"
	"fmt"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus  int    `json:"upstream_status,omitempty"`
	UpstreamMessage string `json:"upstream_message,omitempty"`
	UpstreamPath    string `json:"upstream_path,omitempty"`
}

// Upstream describes a failed call to the remote store API.
type Upstream struct {
	Method  string
	Path    string
	Status  int
	Message string
	Fields  map[string][]string
}

func (u *Upstream) Error() string {
	if u == nil {
		return ""
	}
	if u.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", u.Method, u.Path, u.Status, u.Message)
	}
	return fmt.Sprintf("%s %s: status %d", u.Method, u.Path, u.Status)
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var upstream *Upstream
	if errors.As(err, &upstream) {
		d.UpstreamStatus = upstream.Status
		d.UpstreamMessage = upstream.Message
		d.UpstreamPath = upstream.Path
	}

	return d
}
