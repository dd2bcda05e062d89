package request

import "github.com/google/uuid"

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Name         string      `json:"name"`
	PriceInCents int64       `json:"priceInCents"`
	ImageURL     string      `json:"imageUrl"`
	FilterIDs    []uuid.UUID `json:"filterIds"`
}

// UpdateProductRequest represents a product update request
type UpdateProductRequest struct {
	Name         *string      `json:"name"`
	PriceInCents *int64       `json:"priceInCents"`
	ImageURL     *string      `json:"imageUrl"`
	FilterIDs    *[]uuid.UUID `json:"filterIds"`
}

// ProductFilterRequest represents product list query parameters
type ProductFilterRequest struct {
	Search   string `form:"search"`
	FilterID string `form:"filter_id"`
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
}

// CreateFilterRequest represents a filter creation request
type CreateFilterRequest struct {
	Name string `json:"name"`
}
