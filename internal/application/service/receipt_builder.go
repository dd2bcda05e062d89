package service

import (
	"errors"
	"math"
	"time"

	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/enum"
	"github.com/sangkips/recibo-api/pkg/apperror"
	"github.com/sangkips/recibo-api/pkg/callnumber"
)

// BuildInput carries the already validated fields of a new receipt
type BuildInput struct {
	Lines         []entity.CartLine
	Notes         string
	PaymentMethod string
	ServiceType   enum.ServiceType
}

// ReceiptBuilder turns a cart into a receipt with a free call number.
// It does not enforce the empty-cart policy
type ReceiptBuilder struct {
	allocator *callnumber.Allocator
	now       func() time.Time
}

// NewReceiptBuilder creates a builder. A nil clock uses the current UTC time
func NewReceiptBuilder(allocator *callnumber.Allocator, now func() time.Time) *ReceiptBuilder {
	if allocator == nil {
		allocator = callnumber.NewAllocator(nil)
	}
	if now == nil {
		now = func() time.Time {
			// Databases keep microseconds
			return time.Now().UTC().Truncate(time.Microsecond)
		}
	}
	return &ReceiptBuilder{allocator: allocator, now: now}
}

// Build computes the total, assigns a call number not in live and stamps the creation time
func (b *ReceiptBuilder) Build(input BuildInput, live callnumber.Set) (*entity.Receipt, error) {
	total, err := ComputeTotal(input.Lines)
	if err != nil {
		return nil, err
	}

	code, err := b.allocator.Allocate(live)
	if err != nil {
		if errors.Is(err, callnumber.ErrExhausted) {
			return nil, apperror.ErrCallNumbersExhausted
		}
		return nil, err
	}

	lines := make([]entity.CartLine, len(input.Lines))
	copy(lines, input.Lines)

	return &entity.Receipt{
		CallNumber:    code,
		CreatedAt:     b.now(),
		Notes:         input.Notes,
		PaymentMethod: input.PaymentMethod,
		ServiceType:   input.ServiceType,
		Total:         total,
		Lines:         lines,
	}, nil
}

// ComputeTotal sums quantity * unit price over lines, failing with
// apperror.ErrTotalOverflow when the result does not fit in an int64
func ComputeTotal(lines []entity.CartLine) (int64, error) {
	var total int64
	for _, l := range lines {
		sub, ok := mulInt64(int64(l.Quantity), l.UnitPrice)
		if !ok {
			return 0, apperror.ErrTotalOverflow
		}
		total, ok = addInt64(total, sub)
		if !ok {
			return 0, apperror.ErrTotalOverflow
		}
	}
	return total, nil
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
