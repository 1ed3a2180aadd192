package ledger

// Raw snapshot documents as the external ledger serves them. Numeric fields
// arrive as locale-formatted strings ("1.234,56"), booleans as single-letter
// flags ('S'/'N') and file references as OS paths; nothing outside this
// package and the snapshot validator ever sees these encodings.
//
// The validate tags are the structural contract enforced by the snapshot
// validator before any record reaches reconciliation.

// ProductSnapshot is the full product dump for one reconciliation run
type ProductSnapshot struct {
	Records []ProductRecord `json:"articulos" validate:"required,dive"`
}

// ProductRecord is one raw product row
type ProductRecord struct {
	Code        string        `json:"codigo" validate:"required,max=50"`
	Name        string        `json:"descripcion" validate:"required,max=200"`
	Description string        `json:"descripcion_larga" validate:"max=2000"`
	Brand       string        `json:"marca" validate:"max=100"`
	Category    string        `json:"familia" validate:"max=100"`
	ListPrice   string        `json:"precio" validate:"omitempty,ledgerdecimal"`
	Exportable  string        `json:"exportable" validate:"required,ledgerflag"`
	ImagePath   string        `json:"imagen" validate:"max=255"`
	Prices      []PriceRecord `json:"tarifas" validate:"dive"`
}

// PriceRecord is one raw price-list row nested under a product
type PriceRecord struct {
	PriceList string `json:"tarifa" validate:"required,max=20"`
	Currency  string `json:"divisa" validate:"required,len=3"`
	Amount    string `json:"importe" validate:"required,ledgerdecimal"`
}

// StockSnapshot is the full stock dump for one reconciliation run
type StockSnapshot struct {
	Records []StockRecord `json:"existencias" validate:"required,dive"`
}

// StockRecord is one raw per-warehouse stock row. Quantity is deliberately
// lax: missing or unparseable values coerce to zero downstream rather than
// failing the snapshot.
type StockRecord struct {
	ProductCode string `json:"articulo" validate:"required,max=50"`
	Warehouse   string `json:"almacen" validate:"required,max=20"`
	Quantity    string `json:"cantidad"`
}

// ClientSnapshot is the full client dump for one reconciliation run
type ClientSnapshot struct {
	Records []ClientRecord `json:"clientes" validate:"required,dive"`
}

// ClientRecord is one raw client row
type ClientRecord struct {
	Code         string `json:"codigo" validate:"required,max=50"`
	Name         string `json:"nombre" validate:"required,max=200"`
	VATNumber    string `json:"nif" validate:"max=20"`
	Discount     string `json:"descuento" validate:"omitempty,ledgerdecimal"`
	AppliesVAT   string `json:"aplica_iva" validate:"required,ledgerflag"`
	PaymentTerms string `json:"forma_pago" validate:"max=100"`
	PriceList    string `json:"tarifa" validate:"max=20"`
	ZoneName     string `json:"zona" validate:"max=100"`
	Exportable   string `json:"exportable" validate:"required,ledgerflag"`
}

// ProvinceSnapshot is the full province dump for one reconciliation run
type ProvinceSnapshot struct {
	Records []ProvinceRecord `json:"provincias" validate:"required,dive"`
}

// ProvinceRecord is one raw province row
type ProvinceRecord struct {
	Code       string `json:"codigo" validate:"required,max=50"`
	Name       string `json:"nombre" validate:"required,max=100"`
	Exportable string `json:"exportable" validate:"required,ledgerflag"`
}

// ZoneSnapshot is the full shipping-zone dump for one reconciliation run
type ZoneSnapshot struct {
	Records []ZoneRecord `json:"zonas" validate:"required,dive"`
}

// ZoneRecord is one raw shipping-zone row
type ZoneRecord struct {
	Code       string `json:"codigo" validate:"required,max=50"`
	Name       string `json:"nombre" validate:"required,max=100"`
	Exportable string `json:"exportable" validate:"required,ledgerflag"`
}

// OrderSubmission is the write payload for the ledger's order intake
// endpoint. Amounts are serialized with two decimals.
type OrderSubmission struct {
	Number      string                `json:"numero"`
	ClientCode  string                `json:"cliente"`
	DiscountPct string                `json:"descuento"`
	Note        string                `json:"observaciones,omitempty"`
	Lines       []OrderSubmissionLine `json:"lineas"`
}

// OrderSubmissionLine is one line of the order intake payload
type OrderSubmissionLine struct {
	ProductCode string `json:"articulo"`
	Quantity    string `json:"cantidad"`
	UnitPrice   string `json:"precio"`
	LineTotal   string `json:"importe"`
}
