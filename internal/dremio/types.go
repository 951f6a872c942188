package dremio

import (
	"strings"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// NormalizeType maps a vendor type string onto the canonical type model.
// Unknown vendor types map to TypeUnknown; enumeration never fails on a
// type it does not recognize.
//
// DOUBLE maps to DOUBLE, never FLOAT. Reporting a narrower precision than
// the engine actually stores misleads every downstream consumer.
func NormalizeType(sourceType string) meta.DataType {
	name := strings.ToUpper(strings.TrimSpace(sourceType))

	// Strip parameters: DECIMAL(38, 10) -> DECIMAL.
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}

	if t, ok := vendorTypes[name]; ok {
		return t
	}

	// Dremio spells interval types with their qualifier attached:
	// INTERVAL DAY TO SECOND, INTERVAL YEAR TO MONTH.
	if strings.HasPrefix(name, "INTERVAL") {
		return meta.TypeInterval
	}

	return meta.TypeUnknown
}
