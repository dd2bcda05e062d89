package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/enum"
	domainRepo "github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/pkg/callnumber"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxCreateAttempts bounds rebuilds after a unique index violation, which
// only happens when another process inserted the same call number
const maxCreateAttempts = 3

type receiptRepository struct {
	db *gorm.DB
	mu sync.Mutex // serializes Create, Update and DeleteAll within this process
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) domainRepo.ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, build domainRepo.BuildFunc) (*entity.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		receipt, err := r.createOnce(ctx, build)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to store receipt after %d attempts: %w", maxCreateAttempts, lastErr)
}

func (r *receiptRepository) createOnce(ctx context.Context, build domainRepo.BuildFunc) (*entity.Receipt, error) {
	var created *entity.Receipt

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var codes []string
		if err := tx.Model(&entity.Receipt{}).Pluck("call_number", &codes).Error; err != nil {
			return fmt.Errorf("failed to load call numbers: %w", err)
		}

		receipt, err := build(callnumber.NewSet(codes...))
		if err != nil {
			return err
		}

		var lastSeq int64
		if err := tx.Model(&entity.Receipt{}).Select("COALESCE(MAX(seq), 0)").Scan(&lastSeq).Error; err != nil {
			return fmt.Errorf("failed to read receipt sequence: %w", err)
		}
		receipt.Seq = lastSeq + 1
		for i := range receipt.Lines {
			receipt.Lines[i].Position = i
		}

		if err := tx.Create(receipt).Error; err != nil {
			return err
		}
		created = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *receiptRepository) List(ctx context.Context) ([]entity.Receipt, error) {
	var receipts []entity.Receipt
	err := r.query(ctx).Order("seq").Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) ListByServiceType(ctx context.Context, serviceType enum.ServiceType) ([]entity.Receipt, error) {
	var receipts []entity.Receipt
	err := r.query(ctx).
		Where("service_type = ?", serviceType).
		Order("seq").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := r.query(ctx).First(&receipt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) GetByCallNumber(ctx context.Context, callNumber string) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := r.query(ctx).First(&receipt, "call_number = ?", callNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) Update(ctx context.Context, id uuid.UUID, mutate domainRepo.MutateFunc) (*entity.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated *entity.Receipt

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receipt entity.Receipt
		err := forUpdate(tx).
			Preload("Lines", func(db *gorm.DB) *gorm.DB {
				return db.Order("position")
			}).
			First(&receipt, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load receipt: %w", err)
		}

		if err := mutate(&receipt); err != nil {
			return err
		}

		receipt.UpdatedAt = time.Now().UTC()
		err = tx.Model(&entity.Receipt{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"notes":          receipt.Notes,
				"payment_method": receipt.PaymentMethod,
				"total":          receipt.Total,
				"updated_at":     receipt.UpdatedAt,
			}).Error
		if err != nil {
			return err
		}

		if err := tx.Where("receipt_id = ?", id).Delete(&entity.CartLine{}).Error; err != nil {
			return fmt.Errorf("failed to replace receipt lines: %w", err)
		}
		for i := range receipt.Lines {
			receipt.Lines[i].ID = uuid.Nil
			receipt.Lines[i].ReceiptID = id
			receipt.Lines[i].Position = i
		}
		if len(receipt.Lines) > 0 {
			if err := tx.Create(&receipt.Lines).Error; err != nil {
				return fmt.Errorf("failed to store receipt lines: %w", err)
			}
		}

		updated = &receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *receiptRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Receipt rows are locked before their lines, the same order Update uses
		var ids []uuid.UUID
		if err := forUpdate(tx).Model(&entity.Receipt{}).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to lock receipts: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&entity.CartLine{}).Error; err != nil {
			return fmt.Errorf("failed to delete receipt lines: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&entity.Receipt{}).Error; err != nil {
			return fmt.Errorf("failed to delete receipts: %w", err)
		}
		return nil
	})
}

// forUpdate adds SELECT ... FOR UPDATE on PostgreSQL. SQLite has no row locks
// and already serializes writers
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *receiptRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}
