// Package auth signs the cashier in against the store backend and keeps the
// resulting token in the register session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tokosehat/kasir/pkg/apiclient"
	pkgauth "github.com/tokosehat/kasir/pkg/auth"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
)

const msgLoginFailed = "Login gagal"

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context) error
	CurrentUser() (*pkgauth.User, bool)
}

type sessionStore interface {
	Save(ctx context.Context, token string, user *pkgauth.User) error
	Clear(ctx context.Context) error
	User() *pkgauth.User
	IsAuthenticated() bool
}

type service struct {
	api     *apiclient.Client
	session sessionStore
	logg    *logger.Logger
}

func NewService(api *apiclient.Client, session sessionStore, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if session == nil {
		return nil, fmt.Errorf("session required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{api: api, session: session, logg: logg}, nil
}

// Login exchanges credentials for a bearer token and stores it with the user.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := s.api.Post(ctx, "/login", req, &resp); err != nil {
		return nil, loginError(err)
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" || resp.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, messageOr(resp.Message, msgLoginFailed))
	}
	if !resp.Data.HakAkses.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "hak akses tidak dikenal")
	}

	if err := s.session.Save(ctx, token, resp.Data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "simpan sesi")
	}
	s.logg.Info(s.logg.WithUserID(ctx, resp.Data.ID), "cashier logged in")
	return &LoginResult{Message: resp.Message, User: *resp.Data}, nil
}

// Logout drops the token and user. The backend keeps no register state to revoke.
func (s *service) Logout(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hapus sesi")
	}
	return nil
}

func (s *service) CurrentUser() (*pkgauth.User, bool) {
	if !s.session.IsAuthenticated() {
		return nil, false
	}
	user := s.session.User()
	return user, user != nil
}

// loginError keeps the server's message when it answered, falling back to
// "Login gagal". Unreachable backends keep the client's own message.
func loginError(err error) error {
	var upstream *pkgerrors.Upstream
	if !errors.As(err, &upstream) {
		return err
	}
	code := pkgerrors.CodeUnauthorized
	if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeUnauthorized {
		code = typed.Code()
	}
	return pkgerrors.Wrap(code, err, messageOr(upstream.Message, msgLoginFailed))
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}
