package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/b2bstore/backend/internal/domain/catalog"
	"github.com/b2bstore/backend/internal/domain/inventory"
	"github.com/b2bstore/backend/internal/domain/partner"
	"github.com/b2bstore/backend/internal/domain/trade"
)

// setupTestDB opens an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&catalog.Product{},
		&catalog.Brand{},
		&catalog.Category{},
		&catalog.Price{},
		&partner.Client{},
		&partner.Address{},
		&partner.Province{},
		&partner.ShippingZone{},
		&inventory.StockLevel{},
		&trade.Order{},
		&trade.OrderLine{},
		&trade.Cart{},
		&trade.CartLine{},
		&trade.DispatchIntent{},
	)
	require.NoError(t, err)

	return db
}
