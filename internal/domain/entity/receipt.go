package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Receipt is a customer order with its call number
type Receipt struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	Seq           int64            `gorm:"not null;uniqueIndex" json:"-"` // insertion order
	CallNumber    string           `gorm:"size:4;not null;uniqueIndex" json:"numeroChamada"`
	CreatedAt     time.Time        `gorm:"not null;index" json:"dataCriacao"`
	Notes         string           `gorm:"type:text" json:"observacoes"`
	PaymentMethod string           `gorm:"size:100" json:"formaPagamento"`
	ServiceType   enum.ServiceType `gorm:"size:20;not null;index" json:"tipoAtendimento"`
	Total         int64            `gorm:"not null;default:0" json:"total"` // Stored in cents
	UpdatedAt     time.Time        `json:"-"`

	// Relationships
	Lines []CartLine `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"itens"`
}

// BeforeCreate generates a UUID before creating a new receipt
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}

// IsPendingPreferential reports whether the receipt is a priority-only request
func (r *Receipt) IsPendingPreferential() bool {
	return r.ServiceType == enum.ServiceTypePreferential && len(r.Lines) == 0
}

// Clone returns a deep copy of the receipt
func (r *Receipt) Clone() *Receipt {
	if r == nil {
		return nil
	}
	c := *r
	if r.Lines != nil {
		c.Lines = make([]CartLine, len(r.Lines))
		copy(c.Lines, r.Lines)
	}
	return &c
}

// CartLine is one item of a receipt
type CartLine struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"-"`
	ReceiptID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position  int       `gorm:"not null" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"nome" validate:"required,max=255"`
	Quantity  int       `gorm:"not null" json:"quantidade" validate:"gt=0"`
	UnitPrice int64     `gorm:"not null" json:"preco" validate:"gte=0"` // Stored in cents
}

// BeforeCreate generates a UUID before creating a new line
func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CartLine model
func (CartLine) TableName() string {
	return "receipt_lines"
}

// Subtotal returns quantity times unit price. Callers that need overflow
// detection use the receipt builder instead
func (l CartLine) Subtotal() int64 {
	return int64(l.Quantity) * l.UnitPrice
}
