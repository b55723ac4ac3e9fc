package auth

import (
	"strings"

	pkgauth "github.com/tokosehat/kasir/pkg/auth"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/types"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) normalize() error {
	r.Username = strings.TrimSpace(r.Username)
	fields := map[string]string{}
	if r.Username == "" {
		fields["username"] = "username wajib diisi"
	}
	if r.Password == "" {
		fields["password"] = "password wajib diisi"
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fields)
}

// LoginResult is what the register shows after a successful login.
type LoginResult struct {
	Message string       `json:"message"`
	User    pkgauth.User `json:"user"`
}

// loginResponse carries the token next to data rather than inside it.
type loginResponse struct {
	Status  types.StatusFlag `json:"status"`
	Message string           `json:"message"`
	Data    *pkgauth.User    `json:"data"`
	Token   string           `json:"token"`
}
