package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrEmptyToken = errors.New("token is empty")

// InspectToken reads the claims of a bearer token without verifying its signature.
// The store backend is the verifier; the register only needs exp to drop stale sessions.
// Tokens that are not JWTs (for example "12|abcdef" personal access tokens) are reported as opaque.
func InspectToken(tokenString string) (TokenInfo, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return TokenInfo{}, ErrEmptyToken
	}
	if strings.Count(tokenString, ".") != 2 {
		return TokenInfo{Opaque: true}, nil
	}

	claims := &TokenClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("inspecting token: %w", err)
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		info.ExpiresAt = &exp
	}
	return info, nil
}

// BearerHeader formats the Authorization header value for a token.
func BearerHeader(token string) string {
	return "Bearer " + strings.TrimSpace(token)
}
