// Package meta defines the shared entity model of the dremiometa system.
//
// This package contains:
//   - Catalog entities (Database, Schema, Table, Column)
//   - Derived entities (LineageEdge, TableProfile, Procedure)
//   - The Record interface consumed by sinks
//   - Run bookkeeping (RunSummary, Warning)
//
// The Golden Rule: pkg/meta imports ONLY stdlib.
// All other packages depend on meta, not the reverse.
package meta
