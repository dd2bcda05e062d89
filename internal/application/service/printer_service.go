package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/enum"
	"github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/internal/telemetry"
	"github.com/sangkips/recibo-api/pkg/apperror"
	"github.com/sangkips/recibo-api/pkg/printer"
)

// PrinterService formats receipts as tickets and sends them to the thermal printer
type PrinterService struct {
	printer     printer.Printer
	receiptRepo repository.ReceiptRepository
	storeName   string
	width       int
	metrics     *telemetry.ReceiptMetrics
	logger      *slog.Logger
}

// NewPrinterService creates a new printer service. metrics may be nil
func NewPrinterService(
	p printer.Printer,
	receiptRepo repository.ReceiptRepository,
	storeName string,
	width int,
	metrics *telemetry.ReceiptMetrics,
	logger *slog.Logger,
) *PrinterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrinterService{
		printer:     p,
		receiptRepo: receiptRepo,
		storeName:   storeName,
		width:       width,
		metrics:     metrics,
		logger:      logger,
	}
}

// PrinterStatus returns the current printer status information
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	t := s.printer.Type()
	return &PrinterStatus{
		Configured: t != "none",
		Connected:  s.printer.IsConnected(ctx),
		Type:       t,
	}
}

// PrintReceipt fetches a receipt and prints its ticket
func (s *PrinterService) PrintReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}

	if _, err := s.PrintTicket(ctx, receipt); err != nil {
		return receipt, err
	}
	return receipt, nil
}

// PrintTicket formats and prints r, returning the bytes sent
func (s *PrinterService) PrintTicket(ctx context.Context, r *entity.Receipt) ([]byte, error) {
	data := FormatTicket(r, s.storeName, s.width)

	if err := s.printer.Print(ctx, data); err != nil {
		s.recordPrint("error")
		s.logger.ErrorContext(ctx, "Printer error",
			slog.String("receipt_id", r.ID.String()),
			slog.String("call_number", r.CallNumber),
			slog.Any("error", err),
		)
		return data, apperror.NewAppError(503, "Failed to print ticket")
	}

	s.recordPrint("ok")
	return data, nil
}

func (s *PrinterService) recordPrint(result string) {
	if s.metrics != nil {
		s.metrics.ReceiptsPrinted.WithLabelValues(result).Inc()
	}
}

// FormatTicket converts a receipt into ESC/POS bytes with the call number as a banner
func FormatTicket(r *entity.Receipt, storeName string, width int) []byte {
	doc := printer.NewDocument(width)

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(storeName).
		SetFontSize(printer.FontNormal).
		SetBold(false).
		Text("SENHA").
		SetAlign(printer.AlignLeft)

	doc.Banner(r.CallNumber)

	if r.ServiceType == enum.ServiceTypePreferential {
		doc.SetAlign(printer.AlignCenter).
			SetBold(true).
			Text("ATENDIMENTO PREFERENCIAL").
			SetBold(false).
			SetAlign(printer.AlignLeft)
	}

	doc.Separator('-').
		KeyValue("Data:", r.CreatedAt.In(time.Local).Format("02/01/2006 15:04"))
	if r.PaymentMethod != "" && r.PaymentMethod != enum.PaymentPreferentialOnly {
		doc.KeyValue("Pagamento:", r.PaymentMethod)
	}

	if len(r.Lines) > 0 {
		doc.Separator('-')
		for _, line := range r.Lines {
			doc.ItemLine(line.Quantity, line.Name, printer.Money(line.Subtotal()))
			if line.Quantity > 1 {
				doc.TextF("  @ %s cada", printer.Money(line.UnitPrice))
			}
		}
		doc.Separator('-').
			SetBold(true).
			KeyValue("TOTAL:", printer.Money(r.Total)).
			SetBold(false)
	}

	if r.Notes != "" {
		doc.Separator('-').
			Text("Obs:").
			Wrapped(r.Notes)
	}

	// Footer
	doc.Separator('-').
		SetAlign(printer.AlignCenter).
		Text("Aguarde sua senha no painel").
		SetAlign(printer.AlignLeft).
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
