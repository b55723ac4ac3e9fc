package apiclient

import (
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/types"
)

// Unwrap returns the envelope data when status is true. A logical rejection
// (HTTP success with status=false) becomes a CONFLICT carrying the server message.
func Unwrap[T any](env types.RemoteEnvelope[T], fallback string) (T, error) {
	if !env.Status {
		var zero T
		return zero, pkgerrors.New(pkgerrors.CodeConflict, messageOr(env.Message, fallback))
	}
	return env.Data, nil
}
