package partner

import (
	"context"

	"github.com/google/uuid"
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindByID finds a client by its local ID
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindByExternalCode finds a client by its ledger code
	FindByExternalCode(ctx context.Context, code string) (*Client, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error

	// Count counts all clients
	Count(ctx context.Context) (int64, error)
}

// AddressRepository defines the interface for address persistence
type AddressRepository interface {
	// FindByID finds an address by its local ID
	FindByID(ctx context.Context, id uuid.UUID) (*Address, error)

	// FindForClient lists a client's addresses
	FindForClient(ctx context.Context, clientID uuid.UUID) ([]Address, error)

	// Save creates or updates an address
	Save(ctx context.Context, address *Address) error
}

// ProvinceRepository defines the interface for province persistence
type ProvinceRepository interface {
	// FindByExternalCode finds a province by its ledger code
	FindByExternalCode(ctx context.Context, code string) (*Province, error)

	// Save creates or updates a province
	Save(ctx context.Context, province *Province) error
}

// ShippingZoneRepository defines the interface for shipping zone persistence
type ShippingZoneRepository interface {
	// FindByExternalCode finds a zone by its ledger code
	FindByExternalCode(ctx context.Context, code string) (*ShippingZone, error)

	// FindAll lists every zone, for building the name match index
	FindAll(ctx context.Context) ([]ShippingZone, error)

	// Save creates or updates a zone
	Save(ctx context.Context, zone *ShippingZone) error
}
