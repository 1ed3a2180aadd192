package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/catalog"
	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/shared"
	"github.com/b2bstore/backend/internal/infrastructure/persistence"
)

func setupDisplay(t *testing.T) (*DisplayService, *gorm.DB, *partner.Client) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalog.Product{}, &catalog.Brand{}, &catalog.Category{}, &catalog.Price{},
		&partner.Client{},
	))
	ctx := context.Background()

	client := partner.NewClient("CLI-1", "Ferreteria Sol")
	client.DiscountPct = decimal.NewFromInt(15)
	client.PriceList = "T1"
	client.AppliesVAT = true
	require.NoError(t, persistence.NewGormClientRepository(db).Save(ctx, client))

	brand := catalog.NewBrand("Acme")
	require.NoError(t, persistence.NewGormBrandRepository(db).Save(ctx, brand))

	category := catalog.NewCategory("Tornilleria")
	require.NoError(t, persistence.NewGormCategoryRepository(db).Save(ctx, category))

	listed := catalog.NewProduct("ART-001", "Tornillo M6")
	listed.ListPrice = decimal.NewFromFloat(33.33)
	listed.BrandID = &brand.ID
	listed.CategoryID = &category.ID
	require.NoError(t, persistence.NewGormProductRepository(db).Save(ctx, listed))

	tiered := catalog.NewProduct("ART-002", "Arandela M6")
	tiered.ListPrice = decimal.NewFromInt(100)
	require.NoError(t, persistence.NewGormProductRepository(db).Save(ctx, tiered))
	require.NoError(t, persistence.NewGormPriceRepository(db).Upsert(ctx,
		catalog.NewPrice(tiered.ID, "T1", "EUR", decimal.NewFromInt(80))))

	hidden := catalog.NewProduct("ART-003", "Descatalogado")
	hidden.SetActive(false)
	require.NoError(t, persistence.NewGormProductRepository(db).Save(ctx, hidden))

	svc := NewDisplayService(
		persistence.NewGormProductRepository(db),
		persistence.NewGormPriceRepository(db),
		persistence.NewGormBrandRepository(db),
		persistence.NewGormCategoryRepository(db),
		persistence.NewGormClientRepository(db),
		decimal.NewFromInt(10),
	)
	return svc, db, client
}

func viewByCode(t *testing.T, views []ProductView, code string) *ProductView {
	t.Helper()
	for i := range views {
		if views[i].Code == code {
			return &views[i]
		}
	}
	t.Fatalf("no view for %s", code)
	return nil
}

func TestListProducts(t *testing.T) {
	svc, _, client := setupDisplay(t)

	views, err := svc.ListProducts(context.Background(), client.ID)
	require.NoError(t, err)
	require.Len(t, views, 2, "deactivated products stay hidden")

	// 33.33 list, 15% discount -> 28.33, 10% markup -> 31.16, VAT -> 37.70
	listed := viewByCode(t, views, "ART-001")
	assert.Equal(t, "Acme", listed.Brand)
	assert.Equal(t, "Tornilleria", listed.Category)
	assert.True(t, listed.Price.List.Equal(decimal.NewFromFloat(33.33)))
	assert.True(t, listed.Price.Discounted.Equal(decimal.NewFromFloat(28.33)))
	assert.True(t, listed.Price.Final.Equal(decimal.NewFromFloat(37.70)), "got %s", listed.Price.Final)
	assert.True(t, listed.Price.VATApplied)

	// The T1 row overrides the 100.00 list price
	tiered := viewByCode(t, views, "ART-002")
	assert.True(t, tiered.Price.List.Equal(decimal.NewFromInt(80)))
	assert.Empty(t, tiered.Category)
}

func TestListProductsWithoutVAT(t *testing.T) {
	svc, db, client := setupDisplay(t)
	ctx := context.Background()

	client.AppliesVAT = false
	require.NoError(t, persistence.NewGormClientRepository(db).Save(ctx, client))

	views, err := svc.ListProducts(ctx, client.ID)
	require.NoError(t, err)

	// 80 * 0.85 = 68.00, * 1.10 = 74.80, no VAT stage
	tiered := viewByCode(t, views, "ART-002")
	assert.True(t, tiered.Price.Final.Equal(decimal.NewFromFloat(74.80)))
	assert.False(t, tiered.Price.VATApplied)
}

func TestListProductsInactiveClient(t *testing.T) {
	svc, db, client := setupDisplay(t)
	ctx := context.Background()

	client.SetActive(false)
	require.NoError(t, persistence.NewGormClientRepository(db).Save(ctx, client))

	_, err := svc.ListProducts(ctx, client.ID)
	assert.ErrorIs(t, err, shared.ErrClientInactive)
}
