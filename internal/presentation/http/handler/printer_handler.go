package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/recibo-api/internal/application/service"
	"github.com/sangkips/recibo-api/internal/presentation/http/dto/response"
)

// PrinterHandler handles printer-related HTTP requests
type PrinterHandler struct {
	printerService *service.PrinterService
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *service.PrinterService) *PrinterHandler {
	return &PrinterHandler{printerService: printerService}
}

// GetStatus returns the current printer connection status
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	status := h.printerService.GetStatus(c.Request.Context())
	response.OK(c, "Printer status retrieved", status)
}

// PrintReceipt prints (or reprints) the ticket of a receipt
func (h *PrinterHandler) PrintReceipt(c *gin.Context) {
	id, ok := parseID(c, "id", "receipt")
	if !ok {
		return
	}

	receipt, err := h.printerService.PrintReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Ticket sent to printer", gin.H{
		"id":            receipt.ID,
		"numeroChamada": receipt.CallNumber,
	})
}
