package transactions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tokosehat/kasir/pkg/apiclient"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/types"
)

type Service interface {
	List(ctx context.Context) ([]Transaction, error)
	Get(ctx context.Context, id int64) (*Transaction, error)
	Cancel(ctx context.Context, id int64) error
	Submit(ctx context.Context, req CreateRequest) (*Result, error)
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

func (s *service) List(ctx context.Context) ([]Transaction, error) {
	var env types.RemoteEnvelope[[]Transaction]
	if err := s.api.Get(ctx, "/transaksi", nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []Transaction{}, nil
	}
	return env.Data, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Transaction, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "id transaksi tidak valid")
	}
	var env types.RemoteEnvelope[*Transaction]
	if err := s.api.Get(ctx, path(id), nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Transaksi tidak ditemukan")
	}
	return env.Data, nil
}

func (s *service) Cancel(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "id transaksi tidak valid")
	}
	return s.api.Delete(ctx, path(id), nil)
}

// Submit persists a sale. It performs exactly one backend call; a response with
// status=false is returned as a Result, not an error, so callers can keep the cart.
func (s *service) Submit(ctx context.Context, req CreateRequest) (*Result, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Keranjang belanja kosong!")
	}
	var env types.RemoteEnvelope[*Transaction]
	if err := s.api.Post(ctx, "/transaksi", req, &env); err != nil {
		return nil, err
	}
	result := &Result{Status: bool(env.Status), Message: env.Message, Data: env.Data}
	if result.Status && result.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaksi berhasil tanpa data")
	}
	return result, nil
}

func path(id int64) string {
	return "/transaksi/" + strconv.FormatInt(id, 10)
}
