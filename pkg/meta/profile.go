package meta

// TableProfile holds the aggregate statistics of one profiled table.
// All statistics are computed over a bounded sample; SampleSize records how
// many rows the sample actually contained (min of the cap and the row count).
type TableProfile struct {
	Ref TableRef `json:"ref"`
	// RowCount is the exact table cardinality.
	RowCount int64 `json:"rowCount"`
	// SampleSize is the number of rows the column statistics were computed on.
	SampleSize int64           `json:"sampleSize"`
	Columns    []ColumnProfile `json:"columns"`
}

// ColumnProfile holds per-column statistics over the sample. Fractions and
// estimates are double precision; integer column values never leak into the
// arithmetic.
type ColumnProfile struct {
	Name string `json:"name"`
	// NullFraction is the fraction of sampled rows where the column is NULL,
	// in [0,1]. Zero for an empty sample.
	NullFraction float64 `json:"nullFraction"`
	// DistinctEstimate approximates the number of distinct non-null values in
	// the sample.
	DistinctEstimate float64 `json:"distinctEstimate"`
	// NonNullCount is the number of sampled rows with a value.
	NonNullCount int64 `json:"nonNullCount"`
}

// Procedure is a harvested user-defined routine. Definition is the raw text
// as stored by the source; it is never parsed.
type Procedure struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
	ReturnType string `json:"returnType,omitempty"`
}
