package catalog

import (
	"context"
	"strconv"

	"github.com/tokosehat/kasir/pkg/apiclient"
	"github.com/tokosehat/kasir/pkg/types"
)

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	var env types.RemoteEnvelope[[]Category]
	if err := s.api.Get(ctx, "/kategori-produk", nil, &env); err != nil {
		return nil, err
	}
	return apiclient.Unwrap(env, "Gagal mengambil data kategori")
}

func (s *service) GetCategory(ctx context.Context, id int64) (*Category, error) {
	if err := requireID(id, "kategori"); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Category]
	if err := s.api.Get(ctx, categoryPath(id), nil, &env); err != nil {
		return nil, err
	}
	category, err := apiclient.Unwrap(env, "Gagal mengambil detail kategori")
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *service) CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Category]
	if err := s.api.Post(ctx, "/kategori-produk", req, &env); err != nil {
		return nil, err
	}
	category, err := apiclient.Unwrap(env, "Gagal membuat kategori")
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id int64, req CategoryRequest) (*Category, error) {
	if err := requireID(id, "kategori"); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Category]
	if err := s.api.Put(ctx, categoryPath(id), req, &env); err != nil {
		return nil, err
	}
	category, err := apiclient.Unwrap(env, "Gagal mengupdate kategori")
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *service) DeleteCategory(ctx context.Context, id int64) error {
	if err := requireID(id, "kategori"); err != nil {
		return err
	}
	return s.api.Delete(ctx, categoryPath(id), nil)
}

func (s *service) ListUnits(ctx context.Context) ([]Unit, error) {
	var env types.RemoteEnvelope[[]Unit]
	if err := s.api.Get(ctx, "/satuan", nil, &env); err != nil {
		return nil, err
	}
	return apiclient.Unwrap(env, "Gagal mengambil data satuan")
}

func (s *service) GetUnit(ctx context.Context, id int64) (*Unit, error) {
	if err := requireID(id, "satuan"); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Unit]
	if err := s.api.Get(ctx, unitPath(id), nil, &env); err != nil {
		return nil, err
	}
	unit, err := apiclient.Unwrap(env, "Gagal mengambil detail satuan")
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (s *service) CreateUnit(ctx context.Context, req UnitRequest) (*Unit, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Unit]
	if err := s.api.Post(ctx, "/satuan", req, &env); err != nil {
		return nil, err
	}
	unit, err := apiclient.Unwrap(env, "Gagal membuat satuan")
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (s *service) UpdateUnit(ctx context.Context, id int64, req UnitRequest) (*Unit, error) {
	if err := requireID(id, "satuan"); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var env types.RemoteEnvelope[Unit]
	if err := s.api.Put(ctx, unitPath(id), req, &env); err != nil {
		return nil, err
	}
	unit, err := apiclient.Unwrap(env, "Gagal mengupdate satuan")
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (s *service) DeleteUnit(ctx context.Context, id int64) error {
	if err := requireID(id, "satuan"); err != nil {
		return err
	}
	return s.api.Delete(ctx, unitPath(id), nil)
}

func categoryPath(id int64) string {
	return "/kategori-produk/" + strconv.FormatInt(id, 10)
}

func unitPath(id int64) string {
	return "/satuan/" + strconv.FormatInt(id, 10)
}
