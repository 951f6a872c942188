package meta

import "strings"

// Database is a top-level namespace of the source. In Dremio terms this is a
// space or source: an undotted entry in INFORMATION_SCHEMA.SCHEMATA.
type Database struct {
	// Name is the space name as reported by the source.
	Name string `json:"name"`
	// Service is the logical service name from the workflow file, stamped on
	// every entity so downstream consumers can tell runs apart.
	Service string `json:"service"`
}

// Schema is a folder chain inside a database. Dremio reports every folder
// chain as a dotted schema name; Path holds the chain with the database
// prefix already stripped. An empty Path is valid and addresses relations
// stored directly under the space.
type Schema struct {
	// Database is the owning space name.
	Database string `json:"database"`
	// Path is the folder chain, outermost first.
	Path []string `json:"path"`
}

// FullName returns the fully qualified dotted name including the database.
func (s Schema) FullName() string {
	if len(s.Path) == 0 {
		return s.Database
	}
	return s.Database + "." + strings.Join(s.Path, ".")
}

// Display returns the schema name without the database prefix. Empty for
// relations stored directly under the space.
func (s Schema) Display() string {
	return strings.Join(s.Path, ".")
}

// TableRef identifies a relation. The triple (Database, Schema, Name) is the
// unique key for a relation within one enumeration pass; Schema is the
// display form (folder chain without the database, possibly empty).
type TableRef struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Name     string `json:"name"`
}

// FQN returns the fully qualified dotted name of the relation.
func (r TableRef) FQN() string {
	if r.Schema == "" {
		return r.Database + "." + r.Name
	}
	return r.Database + "." + r.Schema + "." + r.Name
}

// Key returns the case-insensitive identity used for set membership and
// lineage matching. Dremio resolves unquoted names case-insensitively.
func (r TableRef) Key() string {
	return strings.ToLower(r.FQN())
}

// TableKind distinguishes stored relations from views.
type TableKind string

const (
	KindTable TableKind = "table"
	KindView  TableKind = "view"
)

// Table is one enumerated relation with its columns. Definition carries the
// view text for views (empty for tables); Dremio exposes no table
// descriptions, so there is no description field to fill.
type Table struct {
	Ref     TableRef  `json:"ref"`
	Kind    TableKind `json:"kind"`
	Columns []Column  `json:"columns"`
	// Definition is the raw view definition SQL. Only set for views; the
	// lineage extractor consumes it.
	Definition string `json:"definition,omitempty"`
}

// Column describes one column of an enumerated table. A column never exists
// apart from the Table that carries it.
type Column struct {
	// Name is the column name as reported by the source.
	Name string `json:"name"`
	// DataType is the canonical type after normalization.
	DataType DataType `json:"dataType"`
	// SourceType is the vendor type string exactly as reported.
	SourceType string `json:"sourceType"`
	// Ordinal is the 1-based position within the table.
	Ordinal int `json:"ordinal"`
	// Nullable reports whether the column admits NULL.
	Nullable bool `json:"nullable"`
	// Precision and Scale are set for decimal and sized types, nil otherwise.
	Precision *int `json:"precision,omitempty"`
	Scale     *int `json:"scale,omitempty"`
}

// DataType is the canonical type model entities are normalized into.
// Vendor type strings map onto these; unknown vendor types map to
// TypeUnknown rather than failing enumeration.
type DataType string

const (
	TypeBoolean   DataType = "BOOLEAN"
	TypeInt       DataType = "INT"
	TypeBigint    DataType = "BIGINT"
	TypeFloat     DataType = "FLOAT"
	TypeDouble    DataType = "DOUBLE"
	TypeDecimal   DataType = "DECIMAL"
	TypeVarchar   DataType = "VARCHAR"
	TypeVarbinary DataType = "VARBINARY"
	TypeDate      DataType = "DATE"
	TypeTime      DataType = "TIME"
	TypeTimestamp DataType = "TIMESTAMP"
	TypeInterval  DataType = "INTERVAL"
	TypeList      DataType = "LIST"
	TypeStruct    DataType = "STRUCT"
	TypeMap       DataType = "MAP"
	TypeUnknown   DataType = "UNKNOWN"
)
