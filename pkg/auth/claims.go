package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tokosehat/kasir/pkg/enums"
)

// User is the cashier identity returned by the store backend on login.
type User struct {
	ID       int64      `json:"id"`
	Nama     string     `json:"nama"`
	Username string     `json:"username"`
	HakAkses enums.Role `json:"hak_akses"`
}

// Valid reports whether the user carries enough identity to ring up a sale.
func (u *User) Valid() bool {
	return u != nil && u.ID > 0
}

// TokenClaims holds the registered claims the register cares about.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// TokenInfo summarizes an inspected bearer token.
type TokenInfo struct {
	Subject   string
	ExpiresAt *time.Time
	Opaque    bool
}

// Expired reports whether the token carried an exp claim that has passed.
func (i TokenInfo) Expired(now time.Time) bool {
	if i.ExpiresAt == nil {
		return false
	}
	return !now.Before(*i.ExpiresAt)
}
