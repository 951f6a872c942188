package meta

import "time"

// EdgeKind is the granularity of a lineage edge.
type EdgeKind string

const (
	// EdgeTable relates whole relations: target was written from source.
	EdgeTable EdgeKind = "table"
	// EdgeColumn relates single columns of those relations.
	EdgeColumn EdgeKind = "column"
)

// LineageEdge is a directed dependency between two enumerated relations:
// Source was read to produce Target. Column-level edges additionally name
// the columns on both ends.
type LineageEdge struct {
	Source TableRef `json:"source"`
	Target TableRef `json:"target"`
	Kind   EdgeKind `json:"kind"`
	// SourceColumn and TargetColumn are set only for column edges.
	SourceColumn string `json:"sourceColumn,omitempty"`
	TargetColumn string `json:"targetColumn,omitempty"`
	// ObservedAt is when the statement that produced this edge ran. When the
	// same edge is derived from several statements, the most recent
	// observation wins.
	ObservedAt time.Time `json:"observedAt"`
	// QueryHash fingerprints the originating statement for traceability.
	QueryHash string `json:"queryHash,omitempty"`
}

// Identity returns the dedupe key of the edge: two edges with equal identity
// describe the same dependency and only differ in observation time.
func (e LineageEdge) Identity() string {
	return e.Source.Key() + "\x00" + e.Target.Key() + "\x00" + string(e.Kind) +
		"\x00" + e.SourceColumn + "\x00" + e.TargetColumn
}
