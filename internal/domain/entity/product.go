package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents a menu item offered at the counter
type Product struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	PriceInCents int64          `gorm:"not null" json:"priceInCents"`
	ImageURL     string         `gorm:"size:500" json:"imageUrl,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Filters []Filter `gorm:"many2many:product_filters;" json:"filters"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// GetPriceDecimal returns the price as a decimal (for display)
func (p *Product) GetPriceDecimal() float64 {
	return float64(p.PriceInCents) / 100
}

// Filter is a tag used to group menu items, e.g. "Bebidas" or "Vegano"
type Filter struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new filter
func (f *Filter) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Filter model
func (Filter) TableName() string {
	return "filters"
}
