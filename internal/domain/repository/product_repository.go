package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/pkg/pagination"
)

// ProductRepository defines the interface for product data operations
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *ProductFilterParams) ([]entity.Product, int64, error)
}

// ProductFilterParams contains filtering parameters for product queries
type ProductFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	FilterID   *uuid.UUID
}

// FilterRepository defines the interface for filter data operations
type FilterRepository interface {
	Create(ctx context.Context, filter *entity.Filter) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Filter, error)
	GetByName(ctx context.Context, name string) (*entity.Filter, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Filter, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]entity.Filter, error)
}
