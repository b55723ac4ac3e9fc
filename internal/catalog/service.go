package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tokosehat/kasir/pkg/apiclient"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/types"
)

const DefaultSearchLimit = 10

type Service interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, req ProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, req ProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SearchProducts(ctx context.Context, query string, limit int) (*SearchResult, error)
	UpdateStock(ctx context.Context, id int64, req StockRequest) (*Product, error)

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error)
	UpdateCategory(ctx context.Context, id int64, req CategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListUnits(ctx context.Context) ([]Unit, error)
	GetUnit(ctx context.Context, id int64) (*Unit, error)
	CreateUnit(ctx context.Context, req UnitRequest) (*Unit, error)
	UpdateUnit(ctx context.Context, id int64, req UnitRequest) (*Unit, error)
	DeleteUnit(ctx context.Context, id int64) error
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

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	var env types.RemoteEnvelope[[]Product]
	if err := s.api.Get(ctx, "/produk", nil, &env); err != nil {
		return nil, err
	}
	return apiclient.Unwrap(env, "Gagal mengambil data produk")
}

func (s *service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	if err := requireID(id, "produk"); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Product]
	if err := s.api.Get(ctx, "/produk/"+strconv.FormatInt(id, 10), nil, &env); err != nil {
		return nil, err
	}
	product, err := apiclient.Unwrap(env, "Gagal mengambil detail produk")
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *service) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Product]
	if err := s.api.Post(ctx, "/produk", req, &env); err != nil {
		return nil, err
	}
	product, err := apiclient.Unwrap(env, "Gagal membuat produk")
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id int64, req ProductRequest) (*Product, error) {
	if err := requireID(id, "produk"); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Product]
	if err := s.api.Put(ctx, "/produk/"+strconv.FormatInt(id, 10), req, &env); err != nil {
		return nil, err
	}
	product, err := apiclient.Unwrap(env, "Gagal mengupdate produk")
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if err := requireID(id, "produk"); err != nil {
		return err
	}
	return s.api.Delete(ctx, "/produk/"+strconv.FormatInt(id, 10), nil)
}

// SearchProducts looks products up by code or name. A blank query returns an
// empty result without calling the backend.
func (s *service) SearchProducts(ctx context.Context, query string, limit int) (*SearchResult, error) {
	term := strings.TrimSpace(query)
	if term == "" {
		return &SearchResult{Products: []Product{}}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	params := url.Values{}
	params.Set("search", term)
	params.Set("limit", strconv.Itoa(limit))

	var body struct {
		Status  types.StatusFlag `json:"status"`
		Message string           `json:"message"`
		SearchResult
	}
	if err := s.api.Get(ctx, "/produk/search", params, &body); err != nil {
		return nil, err
	}
	if !body.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, messageOr(body.Message, "Gagal mencari produk"))
	}
	result := body.SearchResult
	if result.Products == nil {
		result.Products = []Product{}
	}
	return &result, nil
}

func (s *service) UpdateStock(ctx context.Context, id int64, req StockRequest) (*Product, error) {
	if err := requireID(id, "produk"); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Product]
	if err := s.api.Patch(ctx, "/produk/"+strconv.FormatInt(id, 10)+"/stock", req, &env); err != nil {
		return nil, err
	}
	product, err := apiclient.Unwrap(env, "Gagal mengupdate stok")
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func requireID(id int64, resource string) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("id %s tidak valid", resource))
	}
	return nil
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}
