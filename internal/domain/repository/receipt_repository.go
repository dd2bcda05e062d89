package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/enum"
	"github.com/sangkips/recibo-api/pkg/callnumber"
)

// BuildFunc builds a receipt given the call numbers currently in use.
// It runs inside the store's critical section and must not call back into the store
type BuildFunc func(live callnumber.Set) (*entity.Receipt, error)

// MutateFunc changes a loaded receipt in place. Like BuildFunc it runs inside
// the store's critical section and must not call back into the store
type MutateFunc func(receipt *entity.Receipt) error

// ReceiptRepository defines the interface for receipt data operations
type ReceiptRepository interface {
	// Create snapshots the live call numbers, builds the receipt and stores it
	// atomically with respect to other Create, Update and DeleteAll calls
	Create(ctx context.Context, build BuildFunc) (*entity.Receipt, error)
	// List returns every receipt in insertion order
	List(ctx context.Context) ([]entity.Receipt, error)
	ListByServiceType(ctx context.Context, serviceType enum.ServiceType) ([]entity.Receipt, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	GetByCallNumber(ctx context.Context, callNumber string) (*entity.Receipt, error)
	// Update loads the receipt, applies mutate and persists notes, payment
	// method, lines and total in one step. Returns (nil, nil) if the receipt
	// does not exist; an error from mutate is returned unchanged and nothing is written
	Update(ctx context.Context, id uuid.UUID, mutate MutateFunc) (*entity.Receipt, error)
	DeleteAll(ctx context.Context) error
}
