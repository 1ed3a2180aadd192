package sync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/b2bstore/backend/internal/infrastructure/ledger"
)

// SnapshotValidator structurally validates raw ledger snapshots before any
// record is merged. Validation is fail-closed: a single malformed record
// rejects the entire snapshot, because a partial merge of a broken dump is
// worse than keeping yesterday's data.
type SnapshotValidator struct {
	validate *validator.Validate
}

// NewSnapshotValidator creates a validator with the ledger encoding rules
// registered
func NewSnapshotValidator() *SnapshotValidator {
	v := validator.New()

	// ledgerdecimal accepts the ledger's locale-formatted numbers
	_ = v.RegisterValidation("ledgerdecimal", func(fl validator.FieldLevel) bool {
		_, err := ledger.ParseDecimal(fl.Field().String())
		return err == nil
	})

	// ledgerflag accepts the ledger's single-letter booleans
	_ = v.RegisterValidation("ledgerflag", func(fl validator.FieldLevel) bool {
		_, err := ledger.ParseFlag(fl.Field().String())
		return err == nil
	})

	return &SnapshotValidator{validate: v}
}

// RecordProblem describes one validation failure inside a snapshot
type RecordProblem struct {
	Index int
	Field string
	Tag   string
}

// ValidationError rejects a whole snapshot, carrying every record problem
// found
type ValidationError struct {
	Snapshot string
	Problems []RecordProblem
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "snapshot %s rejected: %d invalid record(s)", e.Snapshot, len(e.Problems))
	limit := len(e.Problems)
	if limit > 5 {
		limit = 5
	}
	for _, p := range e.Problems[:limit] {
		fmt.Fprintf(&sb, "; record %d field %s failed %s", p.Index, p.Field, p.Tag)
	}
	if len(e.Problems) > limit {
		fmt.Fprintf(&sb, "; and %d more", len(e.Problems)-limit)
	}
	return sb.String()
}

// validateRecords checks every record and returns a fail-closed error if any
// record is structurally invalid
func validateRecords[T any](v *SnapshotValidator, snapshot string, records []T) error {
	var problems []RecordProblem
	for i := range records {
		if err := v.validate.Struct(&records[i]); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				problems = append(problems, RecordProblem{Index: i, Field: "-", Tag: err.Error()})
				continue
			}
			for _, fe := range verrs {
				problems = append(problems, RecordProblem{
					Index: i,
					Field: fe.Field(),
					Tag:   fe.Tag(),
				})
			}
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Snapshot: snapshot, Problems: problems}
	}
	return nil
}

// ValidateProducts validates a product snapshot
func (v *SnapshotValidator) ValidateProducts(snap *ledger.ProductSnapshot) error {
	if snap == nil || snap.Records == nil {
		return &ValidationError{Snapshot: "products", Problems: []RecordProblem{{Index: -1, Field: "articulos", Tag: "required"}}}
	}
	return validateRecords(v, "products", snap.Records)
}

// ValidateStock validates a stock snapshot
func (v *SnapshotValidator) ValidateStock(snap *ledger.StockSnapshot) error {
	if snap == nil || snap.Records == nil {
		return &ValidationError{Snapshot: "stock", Problems: []RecordProblem{{Index: -1, Field: "existencias", Tag: "required"}}}
	}
	return validateRecords(v, "stock", snap.Records)
}

// ValidateClients validates a client snapshot
func (v *SnapshotValidator) ValidateClients(snap *ledger.ClientSnapshot) error {
	if snap == nil || snap.Records == nil {
		return &ValidationError{Snapshot: "clients", Problems: []RecordProblem{{Index: -1, Field: "clientes", Tag: "required"}}}
	}
	return validateRecords(v, "clients", snap.Records)
}

// ValidateProvinces validates a province snapshot
func (v *SnapshotValidator) ValidateProvinces(snap *ledger.ProvinceSnapshot) error {
	if snap == nil || snap.Records == nil {
		return &ValidationError{Snapshot: "provinces", Problems: []RecordProblem{{Index: -1, Field: "provincias", Tag: "required"}}}
	}
	return validateRecords(v, "provinces", snap.Records)
}

// ValidateZones validates a shipping-zone snapshot
func (v *SnapshotValidator) ValidateZones(snap *ledger.ZoneSnapshot) error {
	if snap == nil || snap.Records == nil {
		return &ValidationError{Snapshot: "zones", Problems: []RecordProblem{{Index: -1, Field: "zonas", Tag: "required"}}}
	}
	return validateRecords(v, "zones", snap.Records)
}
