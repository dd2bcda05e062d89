package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/enum"
	"github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/internal/telemetry"
	"github.com/sangkips/recibo-api/pkg/apperror"
	"github.com/sangkips/recibo-api/pkg/callnumber"
	"github.com/sangkips/recibo-api/pkg/notify"
)

// OrderService handles the order-to-receipt flow
type OrderService struct {
	receiptRepo repository.ReceiptRepository
	builder     *ReceiptBuilder
	validate    *validator.Validate
	notifier    notify.Notifier
	metrics     *telemetry.ReceiptMetrics
	logger      *slog.Logger
	printer     *PrinterService
}

// NewOrderService creates a new order service. metrics may be nil
func NewOrderService(
	receiptRepo repository.ReceiptRepository,
	builder *ReceiptBuilder,
	notifier notify.Notifier,
	metrics *telemetry.ReceiptMetrics,
	logger *slog.Logger,
) *OrderService {
	if notifier == nil {
		notifier = notify.NewNullNotifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		receiptRepo: receiptRepo,
		builder:     builder,
		validate:    newLineValidator(),
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
	}
}

// EnableAutoPrint prints a ticket for every receipt right after it is created
func (s *OrderService) EnableAutoPrint(printer *PrinterService) {
	s.printer = printer
}

// CreateOrderInput represents the create order input
type CreateOrderInput struct {
	Lines         []entity.CartLine
	Notes         string
	PaymentMethod string
	ServiceType   string // NORMAL, PREFERENCIAL or empty for NORMAL
}

// UpdateOrderInput holds the fields staff may change. Nil fields are kept
type UpdateOrderInput struct {
	Notes         *string
	PaymentMethod *string
	Lines         *[]entity.CartLine
}

// receiptEvent is the payload published for receipt events
type receiptEvent struct {
	ID          uuid.UUID        `json:"id"`
	CallNumber  string           `json:"numeroChamada"`
	ServiceType enum.ServiceType `json:"tipoAtendimento"`
	Total       int64            `json:"total"`
	ItemCount   int              `json:"itemCount"`
}

// CreateOrder validates the cart and stores a receipt with a fresh call number
func (s *OrderService) CreateOrder(ctx context.Context, input *CreateOrderInput) (*entity.Receipt, error) {
	serviceType, err := enum.ParseServiceType(input.ServiceType)
	if err != nil {
		s.recordFailure("validation")
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "tipoAtendimento", Message: "must be NORMAL or PREFERENCIAL"},
		})
	}

	if len(input.Lines) == 0 && serviceType == enum.ServiceTypeNormal {
		s.recordFailure("empty_cart")
		return nil, apperror.ErrEmptyCart
	}

	lines, err := s.validateLines(input.Lines)
	if err != nil {
		s.recordFailure("validation")
		return nil, err
	}

	buildInput := BuildInput{
		Lines:         lines,
		Notes:         strings.TrimSpace(input.Notes),
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		ServiceType:   serviceType,
	}

	receipt, err := s.receiptRepo.Create(ctx, func(live callnumber.Set) (*entity.Receipt, error) {
		return s.builder.Build(buildInput, live)
	})
	if err != nil {
		switch {
		case errors.Is(err, apperror.ErrCallNumbersExhausted):
			s.recordFailure("exhausted")
			return nil, err
		case errors.Is(err, apperror.ErrTotalOverflow):
			s.recordFailure("overflow")
			return nil, err
		}
		s.recordFailure("store")
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}
	ensureLines(receipt)

	if s.metrics != nil {
		s.metrics.ReceiptsCreated.WithLabelValues(receipt.ServiceType.String()).Inc()
		s.metrics.ReceiptValue.Observe(float64(receipt.Total))
		s.metrics.ReceiptItemCount.Observe(float64(len(receipt.Lines)))
		s.metrics.ReceiptsLive.Inc()
	}

	s.logger.InfoContext(ctx, "Receipt created",
		slog.String("receipt_id", receipt.ID.String()),
		slog.String("call_number", receipt.CallNumber),
		slog.String("service_type", receipt.ServiceType.String()),
		slog.Int64("total", receipt.Total),
	)

	s.publish(ctx, notify.EventReceiptCreated, eventFor(receipt))

	if s.printer != nil {
		if _, err := s.printer.PrintTicket(ctx, receipt); err != nil {
			s.logger.WarnContext(ctx, "Auto print failed",
				slog.String("call_number", receipt.CallNumber),
				slog.Any("error", err),
			)
		}
	}

	return receipt, nil
}

// RequestPreferentialService creates a receipt that only asks for priority service
func (s *OrderService) RequestPreferentialService(ctx context.Context, notes string) (*entity.Receipt, error) {
	return s.CreateOrder(ctx, &CreateOrderInput{
		Notes:         notes,
		PaymentMethod: enum.PaymentPreferentialOnly,
		ServiceType:   string(enum.ServiceTypePreferential),
	})
}

// ListOrders returns every stored receipt in creation order
func (s *OrderService) ListOrders(ctx context.Context) ([]entity.Receipt, error) {
	receipts, err := s.receiptRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	return normalize(receipts), nil
}

// ListPendingPreferential returns preferential receipts that carry no items
func (s *OrderService) ListPendingPreferential(ctx context.Context) ([]entity.Receipt, error) {
	receipts, err := s.receiptRepo.ListByServiceType(ctx, enum.ServiceTypePreferential)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferential receipts: %w", err)
	}

	pending := make([]entity.Receipt, 0, len(receipts))
	for i := range receipts {
		if receipts[i].IsPendingPreferential() {
			pending = append(pending, receipts[i])
		}
	}
	return normalize(pending), nil
}

// GetOrder returns a receipt by ID
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	ensureLines(receipt)
	return receipt, nil
}

// GetOrderByCallNumber returns the receipt currently holding code
func (s *OrderService) GetOrderByCallNumber(ctx context.Context, code string) (*entity.Receipt, error) {
	if !callnumber.Valid(code) {
		return nil, apperror.NewNotFoundError("Receipt")
	}

	receipt, err := s.receiptRepo.GetByCallNumber(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	ensureLines(receipt)
	return receipt, nil
}

// UpdateOrder changes notes, payment method or items. Fields left nil keep their
// stored value and the total is recomputed from the items; call number, ID,
// creation time and service type never change
func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, input *UpdateOrderInput) (*entity.Receipt, error) {
	var lines []entity.CartLine
	if input.Lines != nil {
		validated, err := s.validateLines(*input.Lines)
		if err != nil {
			return nil, err
		}
		lines = validated
	}

	receipt, err := s.receiptRepo.Update(ctx, id, func(r *entity.Receipt) error {
		if input.Notes != nil {
			r.Notes = strings.TrimSpace(*input.Notes)
		}
		if input.PaymentMethod != nil {
			r.PaymentMethod = strings.TrimSpace(*input.PaymentMethod)
		}
		if input.Lines != nil {
			if len(lines) == 0 && r.ServiceType == enum.ServiceTypeNormal {
				return apperror.ErrEmptyCart
			}
			r.Lines = lines
		}

		total, err := ComputeTotal(r.Lines)
		if err != nil {
			return err
		}
		r.Total = total
		return nil
	})
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update receipt: %w", err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	ensureLines(receipt)

	s.publish(ctx, notify.EventReceiptUpdated, eventFor(receipt))
	return receipt, nil
}

// ClearAllOrders removes every receipt and frees all call numbers
func (s *OrderService) ClearAllOrders(ctx context.Context) error {
	if err := s.receiptRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear receipts: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ReceiptsCleared.Inc()
		s.metrics.ReceiptsLive.Set(0)
	}
	s.logger.InfoContext(ctx, "All receipts cleared")
	s.publish(ctx, notify.EventReceiptsCleared, nil)
	return nil
}

// validateLines trims names and checks each line, returning a copy
func (s *OrderService) validateLines(in []entity.CartLine) ([]entity.CartLine, error) {
	lines := make([]entity.CartLine, len(in))
	var fieldErrors []apperror.FieldError

	for i, l := range in {
		lines[i] = entity.CartLine{
			Name:      strings.TrimSpace(l.Name),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
		if err := s.validate.Struct(lines[i]); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return nil, err
			}
			for _, fe := range verrs {
				fieldErrors = append(fieldErrors, apperror.FieldError{
					Field:   fmt.Sprintf("itens[%d].%s", i, fe.Field()),
					Message: lineErrorMessage(fe),
				})
			}
		}
	}

	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}
	return lines, nil
}

func (s *OrderService) publish(ctx context.Context, name string, data any) {
	event := notify.Event{Name: name, OccurredAt: s.builder.now(), Data: data}
	if err := s.notifier.Publish(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.NotificationsFailed.Inc()
		}
		s.logger.WarnContext(ctx, "Failed to publish receipt event",
			slog.String("event", name),
			slog.Any("error", err),
		)
	}
}

func (s *OrderService) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.CreateFailures.WithLabelValues(reason).Inc()
	}
}

func newLineValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func lineErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	}
	return "is invalid"
}

func eventFor(r *entity.Receipt) receiptEvent {
	return receiptEvent{
		ID:          r.ID,
		CallNumber:  r.CallNumber,
		ServiceType: r.ServiceType,
		Total:       r.Total,
		ItemCount:   len(r.Lines),
	}
}

func ensureLines(r *entity.Receipt) {
	if r.Lines == nil {
		r.Lines = []entity.CartLine{}
	}
}

func normalize(receipts []entity.Receipt) []entity.Receipt {
	if receipts == nil {
		return []entity.Receipt{}
	}
	for i := range receipts {
		ensureLines(&receipts[i])
	}
	return receipts
}
