package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/application/service"
	"github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/request"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/response"
	"github.com/sangkips/recibo-api/pkg/pagination"
)

// ProductHandler handles menu item HTTP requests
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List handles listing products with search, filter tag and pagination
func (h *ProductHandler) List(c *gin.Context) {
	var req request.ProductFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.ProductFilterParams{
		Pagination: &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage},
		Search:     req.Search,
	}
	params.Pagination.Validate()

	if req.FilterID != "" {
		filterID, err := uuid.Parse(req.FilterID)
		if err != nil {
			response.BadRequest(c, "Invalid filter ID")
			return
		}
		params.FilterID = &filterID
	}

	result, err := h.productService.ListProducts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Products retrieved successfully", result)
}

// Get handles getting a single product
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved successfully", product)
}

// Create handles creating a product
func (h *ProductHandler) Create(c *gin.Context) {
	var req request.CreateProductRequest
	if !bindJSON(c, &req, false) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &service.CreateProductInput{
		Name:         req.Name,
		PriceInCents: req.PriceInCents,
		ImageURL:     req.ImageURL,
		FilterIDs:    req.FilterIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Product created successfully", product)
}

// Update handles updating a product
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	var req request.UpdateProductRequest
	if !bindJSON(c, &req, false) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &service.UpdateProductInput{
		Name:         req.Name,
		PriceInCents: req.PriceInCents,
		ImageURL:     req.ImageURL,
		FilterIDs:    req.FilterIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product updated successfully", product)
}

// Delete handles deleting a product
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product deleted successfully", nil)
}
