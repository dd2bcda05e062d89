package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/recibo-api/internal/application/service"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/request"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/response"
)

// ReceiptHandler handles checkout and receipt lookup requests
type ReceiptHandler struct {
	orderService *service.OrderService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(orderService *service.OrderService) *ReceiptHandler {
	return &ReceiptHandler{orderService: orderService}
}

// Create handles checkout: the cart becomes a receipt with a call number
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req request.CreateReceiptRequest
	if !bindJSON(c, &req, false) {
		return
	}

	receipt, err := h.orderService.CreateOrder(c.Request.Context(), &service.CreateOrderInput{
		Lines:         request.ToCartLines(req.Items),
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		ServiceType:   req.ServiceType,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Receipt created successfully", receipt)
}

// RequestPreferential handles a priority-service request without items
func (h *ReceiptHandler) RequestPreferential(c *gin.Context) {
	var req request.PreferentialRequest
	if !bindJSON(c, &req, true) {
		return
	}

	receipt, err := h.orderService.RequestPreferentialService(c.Request.Context(), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Preferential service requested", receipt)
}

// List handles listing every receipt in creation order
func (h *ReceiptHandler) List(c *gin.Context) {
	receipts, err := h.orderService.ListOrders(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipts retrieved successfully", receipts)
}

// ListPendingPreferential handles listing priority requests waiting for staff
func (h *ReceiptHandler) ListPendingPreferential(c *gin.Context) {
	receipts, err := h.orderService.ListPendingPreferential(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Pending preferential requests retrieved successfully", receipts)
}

// Get handles getting a receipt by ID
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "receipt")
	if !ok {
		return
	}

	receipt, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", receipt)
}

// GetByCallNumber handles the customer looking up a receipt by its call number
func (h *ReceiptHandler) GetByCallNumber(c *gin.Context) {
	receipt, err := h.orderService.GetOrderByCallNumber(c.Request.Context(), c.Param("callNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", receipt)
}

// Update handles staff corrections to notes, payment method or items
func (h *ReceiptHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "receipt")
	if !ok {
		return
	}

	var req request.UpdateReceiptRequest
	if !bindJSON(c, &req, false) {
		return
	}

	input := &service.UpdateOrderInput{
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Items != nil {
		lines := request.ToCartLines(*req.Items)
		input.Lines = &lines
	}

	receipt, err := h.orderService.UpdateOrder(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt updated successfully", receipt)
}

// Clear handles removing every receipt, freeing all call numbers
func (h *ReceiptHandler) Clear(c *gin.Context) {
	if err := h.orderService.ClearAllOrders(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipts cleared successfully", nil)
}
