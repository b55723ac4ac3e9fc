// Package users administers register accounts on the store backend.
package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tokosehat/kasir/pkg/apiclient"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/types"
)

const defaultSearchLimit = 10

type Service interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (*User, error)
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*User, error)
	Delete(ctx context.Context, id int64) error
	ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error
	Search(ctx context.Context, query string, limit int) ([]User, error)
}

type service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	return &service{api: api}, nil
}

func (s *service) List(ctx context.Context) ([]User, error) {
	var env types.RemoteEnvelope[[]User]
	if err := s.api.Get(ctx, "/users", nil, &env); err != nil {
		return nil, err
	}
	return apiclient.Unwrap(env, "Gagal mengambil data user")
}

func (s *service) Get(ctx context.Context, id int64) (*User, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[User]
	if err := s.api.Get(ctx, path(id), nil, &env); err != nil {
		return nil, err
	}
	user, err := apiclient.Unwrap(env, "Gagal mengambil detail user")
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates an account. The backend only allows admins to do this.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[User]
	if err := s.api.Post(ctx, "/register", req, &env); err != nil {
		return nil, err
	}
	user, err := apiclient.Unwrap(env, "Gagal mendaftarkan user")
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *service) Update(ctx context.Context, id int64, req UpdateRequest) (*User, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[User]
	if err := s.api.Put(ctx, path(id), req, &env); err != nil {
		return nil, err
	}
	user, err := apiclient.Unwrap(env, "Gagal mengupdate user")
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.api.Delete(ctx, path(id), nil)
}

func (s *service) ChangePassword(ctx context.Context, id int64, req ChangePasswordRequest) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := req.normalize(); err != nil {
		return err
	}
	return s.api.Patch(ctx, path(id)+"/change-password", req, nil)
}

func (s *service) Search(ctx context.Context, query string, limit int) ([]User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []User{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	var env types.RemoteEnvelope[[]User]
	if err := s.api.Post(ctx, "/users/search", searchRequest{Search: query, Limit: limit}, &env); err != nil {
		return nil, err
	}
	found, err := apiclient.Unwrap(env, "Gagal mencari user")
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []User{}
	}
	return found, nil
}

func path(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}

func requireID(id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "id user tidak valid")
	}
	return nil
}
