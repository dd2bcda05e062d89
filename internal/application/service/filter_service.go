package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/pkg/apperror"
)

// FilterService manages the tags used to group menu items
type FilterService struct {
	filterRepo repository.FilterRepository
}

// NewFilterService creates a new filter service
func NewFilterService(filterRepo repository.FilterRepository) *FilterService {
	return &FilterService{filterRepo: filterRepo}
}

// CreateFilter creates a filter with a unique name
func (s *FilterService) CreateFilter(ctx context.Context, name string) (*entity.Filter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "name", Message: "is required"}})
	}
	if len([]rune(name)) > 50 {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "name", Message: "must be at most 50 characters"}})
	}

	existing, err := s.filterRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Filter already exists")
	}

	filter := &entity.Filter{Name: name}
	if err := s.filterRepo.Create(ctx, filter); err != nil {
		return nil, err
	}
	return filter, nil
}

// ListFilters returns every filter ordered by name
func (s *FilterService) ListFilters(ctx context.Context) ([]entity.Filter, error) {
	filters, err := s.filterRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if filters == nil {
		filters = []entity.Filter{}
	}
	return filters, nil
}

// DeleteFilter deletes a filter and detaches it from products
func (s *FilterService) DeleteFilter(ctx context.Context, id uuid.UUID) error {
	filter, err := s.filterRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if filter == nil {
		return apperror.NewNotFoundError("Filter")
	}
	return s.filterRepo.Delete(ctx, id)
}
