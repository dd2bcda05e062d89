// Package memory keeps receipts in process memory. Everything is lost on restart
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/enum"
	domainRepo "github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/pkg/callnumber"
)

// ReceiptStore is a ReceiptRepository backed by a slice in insertion order
type ReceiptStore struct {
	mu       sync.RWMutex
	receipts []*entity.Receipt
	byID     map[uuid.UUID]*entity.Receipt
	byCode   map[string]*entity.Receipt
	seq      int64
}

// NewReceiptStore creates an empty store
func NewReceiptStore() *ReceiptStore {
	return &ReceiptStore{
		byID:   make(map[uuid.UUID]*entity.Receipt),
		byCode: make(map[string]*entity.Receipt),
	}
}

var _ domainRepo.ReceiptRepository = (*ReceiptStore)(nil)

func (s *ReceiptStore) Create(ctx context.Context, build domainRepo.BuildFunc) (*entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(callnumber.Set, len(s.byCode))
	for code := range s.byCode {
		live.Add(code)
	}

	receipt, err := build(live)
	if err != nil {
		return nil, err
	}
	if _, taken := s.byCode[receipt.CallNumber]; taken {
		return nil, fmt.Errorf("call number %s already in use", receipt.CallNumber)
	}

	stored := receipt.Clone()
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if _, taken := s.byID[stored.ID]; taken {
		return nil, fmt.Errorf("receipt %s already exists", stored.ID)
	}
	s.seq++
	stored.Seq = s.seq
	stored.UpdatedAt = stored.CreatedAt
	for i := range stored.Lines {
		if stored.Lines[i].ID == uuid.Nil {
			stored.Lines[i].ID = uuid.New()
		}
		stored.Lines[i].ReceiptID = stored.ID
		stored.Lines[i].Position = i
	}

	s.receipts = append(s.receipts, stored)
	s.byID[stored.ID] = stored
	s.byCode[stored.CallNumber] = stored

	return stored.Clone(), nil
}

func (s *ReceiptStore) List(ctx context.Context) ([]entity.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		out = append(out, *r.Clone())
	}
	return out, nil
}

func (s *ReceiptStore) ListByServiceType(ctx context.Context, serviceType enum.ServiceType) ([]entity.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Receipt, 0)
	for _, r := range s.receipts {
		if r.ServiceType == serviceType {
			out = append(out, *r.Clone())
		}
	}
	return out, nil
}

func (s *ReceiptStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byID[id].Clone(), nil
}

func (s *ReceiptStore) GetByCallNumber(ctx context.Context, callNumber string) (*entity.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byCode[callNumber].Clone(), nil
}

func (s *ReceiptStore) Update(ctx context.Context, id uuid.UUID, mutate domainRepo.MutateFunc) (*entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok {
		return nil, nil
	}

	// mutate works on a copy so a failed update leaves the stored receipt untouched
	draft := stored.Clone()
	if err := mutate(draft); err != nil {
		return nil, err
	}

	stored.Notes = draft.Notes
	stored.PaymentMethod = draft.PaymentMethod
	stored.Total = draft.Total
	stored.UpdatedAt = time.Now().UTC()
	stored.Lines = make([]entity.CartLine, len(draft.Lines))
	for i, l := range draft.Lines {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.ReceiptID = stored.ID
		l.Position = i
		stored.Lines[i] = l
	}

	return stored.Clone(), nil
}

func (s *ReceiptStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receipts = nil
	s.byID = make(map[uuid.UUID]*entity.Receipt)
	s.byCode = make(map[string]*entity.Receipt)
	return nil
}

// Len returns the number of stored receipts
func (s *ReceiptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.receipts)
}
