package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	domainRepo "github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/pkg/pagination"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).
		Preload("Filters").
		First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update saves the product columns and replaces its filter associations
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Filters").Save(product).Error; err != nil {
			return err
		}
		return tx.Model(product).Association("Filters").Replace(product.Filters)
	})
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product := &entity.Product{ID: id}
		if err := tx.Model(product).Association("Filters").Clear(); err != nil {
			return err
		}
		return tx.Delete(product).Error
	})
}

func (r *productRepository) List(ctx context.Context, params *domainRepo.ProductFilterParams) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	query := r.db.WithContext(ctx).Model(&entity.Product{}).
		Scopes(SearchByName(params.Search), WithFilter(params.FilterID))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Scopes(Paginate(params.Pagination)).
		Preload("Filters").
		Order("name ASC").
		Find(&products).Error

	return products, total, err
}

type filterRepository struct {
	db *gorm.DB
}

// NewFilterRepository creates a new filter repository
func NewFilterRepository(db *gorm.DB) domainRepo.FilterRepository {
	return &filterRepository{db: db}
}

func (r *filterRepository) Create(ctx context.Context, filter *entity.Filter) error {
	return r.db.WithContext(ctx).Create(filter).Error
}

func (r *filterRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Filter, error) {
	var filter entity.Filter
	err := r.db.WithContext(ctx).First(&filter, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &filter, nil
}

// GetByName matches names case-insensitively
func (r *filterRepository) GetByName(ctx context.Context, name string) (*entity.Filter, error) {
	var filter entity.Filter
	err := r.db.WithContext(ctx).
		First(&filter, "LOWER(name) = ?", strings.ToLower(name)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &filter, nil
}

// GetByIDs retrieves multiple filters in a single query
func (r *filterRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Filter, error) {
	if len(ids) == 0 {
		return []entity.Filter{}, nil
	}
	var filters []entity.Filter
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&filters).Error
	return filters, err
}

func (r *filterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_filters WHERE filter_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Filter{}, "id = ?", id).Error
	})
}

func (r *filterRepository) List(ctx context.Context) ([]entity.Filter, error) {
	var filters []entity.Filter
	err := r.db.WithContext(ctx).Order("name ASC").Find(&filters).Error
	return filters, err
}
