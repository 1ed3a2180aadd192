package sync

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/catalog"
	"github.com/b2bstore/backend/internal/domain/inventory"
	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/infrastructure/ledger"
	"github.com/b2bstore/backend/internal/infrastructure/persistence"
)

func setupSyncDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalog.Product{},
		&catalog.Brand{},
		&catalog.Category{},
		&catalog.Price{},
		&partner.Client{},
		&partner.Province{},
		&partner.ShippingZone{},
		&inventory.StockLevel{},
	))
	return db
}

func TestProductSyncerCreateAndUpdate(t *testing.T) {
	db := setupSyncDB(t)
	syncer := NewProductSyncer(db, zap.NewNop())
	ctx := context.Background()

	snap := &ledger.ProductSnapshot{Records: []ledger.ProductRecord{
		{
			Code:       "ART-001",
			Name:       "Tornillo M6",
			Brand:      "Acme",
			Category:   "Tornilleria",
			ListPrice:  "1.234,56",
			Exportable: "S",
			ImagePath:  `C:\fotos\art001.jpg`,
			Prices: []ledger.PriceRecord{
				{PriceList: "T1", Currency: "EUR", Amount: "10,50"},
			},
		},
	}}

	summary := syncer.Sync(ctx, snap)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Failed)

	products := persistence.NewGormProductRepository(db)
	product, err := products.FindByExternalCode(ctx, "ART-001")
	require.NoError(t, err)
	assert.Equal(t, "Tornillo M6", product.Name)
	assert.True(t, product.ListPrice.Equal(decimal.NewFromFloat(1234.56)))
	assert.Equal(t, "art001.jpg", product.ImageFilename)
	assert.True(t, product.IsActive())
	require.NotNil(t, product.BrandID)
	require.NotNil(t, product.CategoryID)

	price, err := persistence.NewGormPriceRepository(db).FindForProductList(ctx, product.ID, "T1", "EUR")
	require.NoError(t, err)
	assert.True(t, price.Amount.Equal(decimal.NewFromFloat(10.5)))

	// Replaying the same code updates in place, never duplicates
	snap.Records[0].Name = "Tornillo M6 inox"
	snap.Records[0].Exportable = "N"
	summary = syncer.Sync(ctx, snap)
	assert.Equal(t, 1, summary.Updated)

	count, err := products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	product, err = products.FindByExternalCode(ctx, "ART-001")
	require.NoError(t, err)
	assert.Equal(t, "Tornillo M6 inox", product.Name)
	assert.False(t, product.IsActive())
}

func TestProductSyncerBlankBrandUsesPlaceholder(t *testing.T) {
	db := setupSyncDB(t)
	syncer := NewProductSyncer(db, zap.NewNop())
	ctx := context.Background()

	snap := &ledger.ProductSnapshot{Records: []ledger.ProductRecord{
		{Code: "ART-001", Name: "A", Brand: "   ", Exportable: "S"},
		{Code: "ART-002", Name: "B", Exportable: "S"},
	}}
	summary := syncer.Sync(ctx, snap)
	assert.Equal(t, 2, summary.Created)

	// Both blank brands resolve to one placeholder row
	var brandCount int64
	require.NoError(t, db.Model(&catalog.Brand{}).Count(&brandCount).Error)
	assert.Equal(t, int64(1), brandCount)

	var brand catalog.Brand
	require.NoError(t, db.First(&brand).Error)
	assert.Equal(t, catalog.PlaceholderName, brand.Name)
}

func TestProductSyncerNonPositivePriceRemovesRow(t *testing.T) {
	db := setupSyncDB(t)
	syncer := NewProductSyncer(db, zap.NewNop())
	ctx := context.Background()

	rec := ledger.ProductRecord{
		Code: "ART-001", Name: "A", Exportable: "S",
		Prices: []ledger.PriceRecord{{PriceList: "T1", Currency: "EUR", Amount: "5,00"}},
	}
	syncer.Sync(ctx, &ledger.ProductSnapshot{Records: []ledger.ProductRecord{rec}})

	rec.Prices[0].Amount = "0"
	summary := syncer.Sync(ctx, &ledger.ProductSnapshot{Records: []ledger.ProductRecord{rec}})
	assert.Equal(t, 0, summary.Failed)

	var priceCount int64
	require.NoError(t, db.Model(&catalog.Price{}).Count(&priceCount).Error)
	assert.Equal(t, int64(0), priceCount)
}

func TestProductSyncerIsolatesBadRecords(t *testing.T) {
	db := setupSyncDB(t)
	syncer := NewProductSyncer(db, zap.NewNop())
	ctx := context.Background()

	// The validator would reject this snapshot; the syncer still contains
	// the blast radius of a bad row to that row
	snap := &ledger.ProductSnapshot{Records: []ledger.ProductRecord{
		{Code: "ART-001", Name: "Good", Exportable: "S"},
		{Code: "ART-BAD", Name: "Bad", ListPrice: "garbage", Exportable: "S"},
		{Code: "ART-003", Name: "Also good", Exportable: "S"},
	}}

	summary := syncer.Sync(ctx, snap)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "ART-BAD")

	products := persistence.NewGormProductRepository(db)
	_, err := products.FindByExternalCode(ctx, "ART-003")
	assert.NoError(t, err)
}

func TestStockSyncer(t *testing.T) {
	db := setupSyncDB(t)
	ctx := context.Background()

	product := catalog.NewProduct("ART-001", "Tornillo")
	require.NoError(t, persistence.NewGormProductRepository(db).Save(ctx, product))

	syncer := NewStockSyncer(db, zap.NewNop())
	snap := &ledger.StockSnapshot{Records: []ledger.StockRecord{
		{ProductCode: "ART-001", Warehouse: "W1", Quantity: "12,5"},
		{ProductCode: "ART-001", Warehouse: "W2", Quantity: "-3"},
		{ProductCode: "ART-001", Warehouse: "W3", Quantity: "garbage"},
		{ProductCode: "UNKNOWN", Warehouse: "W1", Quantity: "7"},
	}}

	summary := syncer.Sync(ctx, snap)
	assert.Equal(t, 3, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	stock := persistence.NewGormStockRepository(db)
	level, err := stock.FindForProductWarehouse(ctx, product.ID, "W1")
	require.NoError(t, err)
	assert.True(t, level.Quantity.Equal(decimal.NewFromFloat(12.5)))

	// Negative clamps to zero
	level, err = stock.FindForProductWarehouse(ctx, product.ID, "W2")
	require.NoError(t, err)
	assert.True(t, level.Quantity.IsZero())

	// Garbage coerces to zero
	level, err = stock.FindForProductWarehouse(ctx, product.ID, "W3")
	require.NoError(t, err)
	assert.True(t, level.Quantity.IsZero())

	// Replay updates rather than duplicating
	snap.Records[0].Quantity = "20"
	summary = syncer.Sync(ctx, snap)
	assert.Equal(t, 3, summary.Updated)

	level, err = stock.FindForProductWarehouse(ctx, product.ID, "W1")
	require.NoError(t, err)
	assert.True(t, level.Quantity.Equal(decimal.NewFromInt(20)))
}

func TestClientSyncerZoneMatching(t *testing.T) {
	db := setupSyncDB(t)
	ctx := context.Background()

	zone := partner.NewShippingZone("Z1", "Zona  Norte")
	require.NoError(t, persistence.NewGormShippingZoneRepository(db).Save(ctx, zone))

	syncer := NewClientSyncer(db, zap.NewNop())
	snap := &ledger.ClientSnapshot{Records: []ledger.ClientRecord{
		{
			Code: "CLI-1", Name: "Ferreteria Lopez", VATNumber: "B12345678",
			Discount: "10,00", AppliesVAT: "N", PaymentTerms: "30 dias",
			PriceList: "T1", ZoneName: "zona norte", Exportable: "S",
		},
		{
			Code: "CLI-2", Name: "Sin zona", AppliesVAT: "S",
			ZoneName: "desconocida", Exportable: "S",
		},
	}}

	summary := syncer.Sync(ctx, snap)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Failed)

	clients := persistence.NewGormClientRepository(db)
	matched, err := clients.FindByExternalCode(ctx, "CLI-1")
	require.NoError(t, err)
	require.NotNil(t, matched.ShippingZoneID)
	assert.Equal(t, zone.ID, *matched.ShippingZoneID)
	assert.False(t, matched.AppliesVAT)
	assert.True(t, matched.DiscountPct.Equal(decimal.NewFromInt(10)))

	// Unmatched zone name leaves the client zoneless
	unmatched, err := clients.FindByExternalCode(ctx, "CLI-2")
	require.NoError(t, err)
	assert.Nil(t, unmatched.ShippingZoneID)
}

func TestZoneSyncerRename(t *testing.T) {
	db := setupSyncDB(t)
	ctx := context.Background()
	syncer := NewZoneSyncer(db, zap.NewNop())

	snap := &ledger.ZoneSnapshot{Records: []ledger.ZoneRecord{
		{Code: "Z1", Name: "Zona Norte", Exportable: "S"},
	}}
	summary := syncer.Sync(ctx, snap)
	assert.Equal(t, 1, summary.Created)

	snap.Records[0].Name = "Zona Noroeste"
	summary = syncer.Sync(ctx, snap)
	assert.Equal(t, 1, summary.Updated)

	zone, err := persistence.NewGormShippingZoneRepository(db).FindByExternalCode(ctx, "Z1")
	require.NoError(t, err)
	assert.Equal(t, "Zona Noroeste", zone.Name)
	assert.Equal(t, "zona noroeste", zone.NormalizedName)
}

func TestProvinceSyncerDeactivation(t *testing.T) {
	db := setupSyncDB(t)
	ctx := context.Background()
	syncer := NewProvinceSyncer(db, zap.NewNop())

	snap := &ledger.ProvinceSnapshot{Records: []ledger.ProvinceRecord{
		{Code: "P28", Name: "Madrid", Exportable: "S"},
	}}
	syncer.Sync(ctx, snap)

	snap.Records[0].Exportable = "N"
	summary := syncer.Sync(ctx, snap)
	assert.Equal(t, 1, summary.Updated)

	province, err := persistence.NewGormProvinceRepository(db).FindByExternalCode(ctx, "P28")
	require.NoError(t, err)
	assert.NotNil(t, province.DeactivatedAt)
}
