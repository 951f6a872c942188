// Package lineage derives table and column dependency edges from view
// definitions and query history. Edges point from the relations a statement
// reads to the relation it writes, and only ever reference relations the
// current enumeration pass produced.
package lineage
