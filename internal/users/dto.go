package users

import (
	"strings"

	"github.com/tokosehat/kasir/pkg/auth"
	"github.com/tokosehat/kasir/pkg/enums"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
)

const minPasswordLength = 6

// User is an account as listed by the backend.
type User struct {
	auth.User
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type RegisterRequest struct {
	Nama     string     `json:"nama" validate:"required,max=255"`
	Username string     `json:"username" validate:"required,max=100"`
	Password string     `json:"password" validate:"required,min=6"`
	HakAkses enums.Role `json:"hak_akses" validate:"required,oneof=admin kasir pemilik"`
}

func (r *RegisterRequest) normalize() error {
	fields := identityFields(&r.Nama, &r.Username, r.HakAkses)
	if len(r.Password) < minPasswordLength {
		fields["password"] = "password minimal 6 karakter"
	}
	return fieldError(fields)
}

type UpdateRequest struct {
	Nama     string     `json:"nama" validate:"required,max=255"`
	Username string     `json:"username" validate:"required,max=100"`
	HakAkses enums.Role `json:"hak_akses" validate:"required,oneof=admin kasir pemilik"`
}

func (r *UpdateRequest) normalize() error {
	return fieldError(identityFields(&r.Nama, &r.Username, r.HakAkses))
}

// ChangePasswordRequest is checked locally before it is sent: the new password
// and its confirmation must match.
type ChangePasswordRequest struct {
	CurrentPassword         string `json:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,min=6"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required"`
}

func (r *ChangePasswordRequest) normalize() error {
	fields := map[string]string{}
	if r.CurrentPassword == "" {
		fields["current_password"] = "password lama wajib diisi"
	}
	if len(r.NewPassword) < minPasswordLength {
		fields["new_password"] = "password baru minimal 6 karakter"
	}
	if r.NewPassword != r.NewPasswordConfirmation {
		fields["new_password_confirmation"] = "Konfirmasi password tidak cocok"
	}
	return fieldError(fields)
}

type searchRequest struct {
	Search string `json:"search"`
	Limit  int    `json:"limit"`
}

func identityFields(nama, username *string, role enums.Role) map[string]string {
	*nama = strings.TrimSpace(*nama)
	*username = strings.TrimSpace(*username)
	fields := map[string]string{}
	if *nama == "" {
		fields["nama"] = "nama wajib diisi"
	}
	if *username == "" {
		fields["username"] = "username wajib diisi"
	}
	if !role.IsValid() {
		fields["hak_akses"] = "hak akses harus admin, kasir, atau pemilik"
	}
	return fields
}

func fieldError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fields)
}
