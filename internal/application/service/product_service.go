package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/pkg/apperror"
	"github.com/sangkips/recibo-api/pkg/pagination"
)

// ProductService handles menu item operations
type ProductService struct {
	productRepo repository.ProductRepository
	filterRepo  repository.FilterRepository
}

// NewProductService creates a new product service
func NewProductService(
	productRepo repository.ProductRepository,
	filterRepo repository.FilterRepository,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		filterRepo:  filterRepo,
	}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name         string
	PriceInCents int64
	ImageURL     string
	FilterIDs    []uuid.UUID
}

// CreateProduct creates a new menu item
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	product := &entity.Product{
		Name:         strings.TrimSpace(input.Name),
		PriceInCents: input.PriceInCents,
		ImageURL:     strings.TrimSpace(input.ImageURL),
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	filters, err := s.resolveFilters(ctx, input.FilterIDs)
	if err != nil {
		return nil, err
	}
	product.Filters = filters

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.productRepo.GetByID(ctx, product.ID)
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists products with search and filter tag
func (s *ProductService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(products, pag), nil
}

// UpdateProductInput represents the update product input. Nil fields are kept
type UpdateProductInput struct {
	Name         *string
	PriceInCents *int64
	ImageURL     *string
	FilterIDs    *[]uuid.UUID
}

// UpdateProduct updates a product
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input *UpdateProductInput) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.PriceInCents != nil {
		product.PriceInCents = *input.PriceInCents
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if input.FilterIDs != nil {
		filters, err := s.resolveFilters(ctx, *input.FilterIDs)
		if err != nil {
			return nil, err
		}
		product.Filters = filters
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.productRepo.GetByID(ctx, product.ID)
}

// DeleteProduct deletes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

// resolveFilters loads the filters for ids, failing if any of them is unknown
func (s *ProductService) resolveFilters(ctx context.Context, ids []uuid.UUID) ([]entity.Filter, error) {
	if len(ids) == 0 {
		return []entity.Filter{}, nil
	}

	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	filters, err := s.filterRepo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(filters) != len(unique) {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "filterIds", Message: "contains unknown filters"},
		})
	}
	return filters, nil
}

func validateProduct(p *entity.Product) error {
	var fieldErrors []apperror.FieldError

	switch {
	case p.Name == "":
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "name", Message: "is required"})
	case len([]rune(p.Name)) > 100:
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "name", Message: "must be at most 100 characters"})
	}
	if p.PriceInCents <= 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "priceInCents", Message: "must be greater than 0"})
	}
	if len(p.ImageURL) > 500 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "imageUrl", Message: "must be at most 500 characters"})
	}

	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}
