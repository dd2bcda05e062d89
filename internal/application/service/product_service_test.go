package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/pkg/apperror"
	"github.com/sangkips/recibo-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_CreateProduct(t *testing.T) {
	products, filters := newCatalogServices(t)
	ctx := context.Background()

	drinks, err := filters.CreateFilter(ctx, "Bebidas")
	require.NoError(t, err)

	p, err := products.CreateProduct(ctx, &CreateProductInput{
		Name:         "  Suco de Laranja ",
		PriceInCents: 850,
		FilterIDs:    []uuid.UUID{drinks.ID, drinks.ID},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Suco de Laranja", p.Name)
	assert.Equal(t, 8.5, p.GetPriceDecimal())
	require.Len(t, p.Filters, 1)
	assert.Equal(t, "Bebidas", p.Filters[0].Name)
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	products, _ := newCatalogServices(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateProductInput
		field string
	}{
		{"missing name", CreateProductInput{Name: "  ", PriceInCents: 100}, "name"},
		{"long name", CreateProductInput{Name: strings.Repeat("x", 101), PriceInCents: 100}, "name"},
		{"zero price", CreateProductInput{Name: "Agua", PriceInCents: 0}, "priceInCents"},
		{"long image url", CreateProductInput{Name: "Agua", PriceInCents: 100, ImageURL: strings.Repeat("u", 501)}, "imageUrl"},
		{"unknown filter", CreateProductInput{Name: "Agua", PriceInCents: 100, FilterIDs: []uuid.UUID{uuid.New()}}, "filterIds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := products.CreateProduct(ctx, &input)
			require.Error(t, err)

			appErr := apperror.GetAppError(err)
			assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
			require.NotEmpty(t, appErr.Errors)
			assert.Equal(t, tt.field, appErr.Errors[0].Field)
		})
	}
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	products, filters := newCatalogServices(t)
	ctx := context.Background()

	vegan, err := filters.CreateFilter(ctx, "Vegano")
	require.NoError(t, err)

	p, err := products.CreateProduct(ctx, &CreateProductInput{Name: "Salada", PriceInCents: 1800, FilterIDs: []uuid.UUID{vegan.ID}})
	require.NoError(t, err)

	price := int64(2000)
	none := []uuid.UUID{}
	updated, err := products.UpdateProduct(ctx, p.ID, &UpdateProductInput{PriceInCents: &price, FilterIDs: &none})
	require.NoError(t, err)
	assert.Equal(t, "Salada", updated.Name)
	assert.Equal(t, int64(2000), updated.PriceInCents)
	assert.Empty(t, updated.Filters)

	bad := int64(-1)
	_, err = products.UpdateProduct(ctx, p.ID, &UpdateProductInput{PriceInCents: &bad})
	assert.Equal(t, http.StatusUnprocessableEntity, apperror.GetAppError(err).Code)

	require.NoError(t, products.DeleteProduct(ctx, p.ID))
	_, err = products.GetProduct(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(products.DeleteProduct(ctx, p.ID)))
}

func TestProductService_ListProducts(t *testing.T) {
	products, filters := newCatalogServices(t)
	ctx := context.Background()

	drinks, err := filters.CreateFilter(ctx, "Bebidas")
	require.NoError(t, err)

	for _, in := range []CreateProductInput{
		{Name: "Refrigerante", PriceInCents: 600, FilterIDs: []uuid.UUID{drinks.ID}},
		{Name: "Suco", PriceInCents: 800, FilterIDs: []uuid.UUID{drinks.ID}},
		{Name: "Hamburguer", PriceInCents: 2500},
	} {
		in := in
		_, err := products.CreateProduct(ctx, &in)
		require.NoError(t, err)
	}

	all, err := products.ListProducts(ctx, &repository.ProductFilterParams{Pagination: &pagination.PaginationParams{Page: 1, PerPage: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Pagination.Total)
	assert.Len(t, all.Items, 2)
	assert.True(t, all.Pagination.HasNext)

	byFilter, err := products.ListProducts(ctx, &repository.ProductFilterParams{
		Pagination: pagination.DefaultPagination(),
		FilterID:   &drinks.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byFilter.Pagination.Total)

	search, err := products.ListProducts(ctx, &repository.ProductFilterParams{
		Pagination: pagination.DefaultPagination(),
		Search:     "HAMB",
	})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)
	assert.Equal(t, "Hamburguer", search.Items[0].Name)
}
