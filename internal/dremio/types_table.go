// Code generated by scripts/gentypes from the Dremio SQL data types
// documentation. DO NOT EDIT.

package dremio

import "github.com/metalake-labs/dremiometa/pkg/meta"

// vendorTypes maps uppercased Dremio type names, parameters stripped, to
// the canonical type model.
var vendorTypes = map[string]meta.DataType{
	"BIGINT":            meta.TypeBigint,
	"BINARY VARYING":    meta.TypeVarbinary,
	"BOOLEAN":           meta.TypeBoolean,
	"CHAR":              meta.TypeVarchar,
	"CHARACTER":         meta.TypeVarchar,
	"CHARACTER VARYING": meta.TypeVarchar,
	"DATE":              meta.TypeDate,
	"DECIMAL":           meta.TypeDecimal,
	"DOUBLE":            meta.TypeDouble,
	"DOUBLE PRECISION":  meta.TypeDouble,
	"FLOAT":             meta.TypeFloat,
	"INT":               meta.TypeInt,
	"INTEGER":           meta.TypeInt,
	"INTERVAL":          meta.TypeInterval,
	"LIST":              meta.TypeList,
	"ARRAY":             meta.TypeList,
	"MAP":               meta.TypeMap,
	"NUMERIC":           meta.TypeDecimal,
	"REAL":              meta.TypeFloat,
	"ROW":               meta.TypeStruct,
	"SMALLINT":          meta.TypeInt,
	"STRUCT":            meta.TypeStruct,
	"TIME":              meta.TypeTime,
	"TIMESTAMP":         meta.TypeTimestamp,
	"TINYINT":           meta.TypeInt,
	"VARBINARY":         meta.TypeVarbinary,
	"VARCHAR":           meta.TypeVarchar,
}
