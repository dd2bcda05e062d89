package repository

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/pkg/pagination"
	"gorm.io/gorm"
)

// Paginate returns a GORM scope applying offset and limit
func Paginate(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			return db
		}
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}

// SearchByName filters by a case-insensitive substring of the name column.
// LOWER keeps it portable between PostgreSQL and SQLite
func SearchByName(search string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		search = strings.TrimSpace(search)
		if search == "" {
			return db
		}
		return db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
}

// WithFilter keeps only products tagged with the given filter
func WithFilter(filterID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filterID == nil {
			return db
		}
		return db.Where("id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Table("product_filters").
				Select("product_id").
				Where("filter_id = ?", *filterID))
	}
}
