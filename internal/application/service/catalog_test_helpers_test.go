package service

import (
	"testing"

	"github.com/sangkips/recibo-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/recibo-api/internal/infrastructure/repository"
	"github.com/stretchr/testify/require"
)

func newCatalogServices(t *testing.T) (*ProductService, *FilterService) {
	t.Helper()

	db, err := database.NewSQLiteDB("file::memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	filterRepo := infraRepo.NewFilterRepository(db)
	productRepo := infraRepo.NewProductRepository(db)
	return NewProductService(productRepo, filterRepo), NewFilterService(filterRepo)
}
