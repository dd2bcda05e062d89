package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/recibo-api/internal/application/service"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/request"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/response"
)

// FilterHandler handles menu filter tag requests
type FilterHandler struct {
	filterService *service.FilterService
}

// NewFilterHandler creates a new filter handler
func NewFilterHandler(filterService *service.FilterService) *FilterHandler {
	return &FilterHandler{filterService: filterService}
}

// List handles listing all filters
func (h *FilterHandler) List(c *gin.Context) {
	filters, err := h.filterService.ListFilters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Filters retrieved successfully", filters)
}

// Create handles creating a filter
func (h *FilterHandler) Create(c *gin.Context) {
	var req request.CreateFilterRequest
	if !bindJSON(c, &req, false) {
		return
	}

	filter, err := h.filterService.CreateFilter(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Filter created successfully", filter)
}

// Delete handles deleting a filter
func (h *FilterHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "filter")
	if !ok {
		return
	}

	if err := h.filterService.DeleteFilter(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Filter deleted successfully", nil)
}
