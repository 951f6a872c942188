package meta

import "time"

// RecordKind tags entities as they flow to a sink.
type RecordKind string

const (
	RecordDatabase  RecordKind = "database"
	RecordSchema    RecordKind = "schema"
	RecordTable     RecordKind = "table"
	RecordProfile   RecordKind = "profile"
	RecordLineage   RecordKind = "lineage"
	RecordProcedure RecordKind = "procedure"
	RecordSummary   RecordKind = "summary"
)

// Record is anything the pipeline hands to a sink. Entities are produced in
// dependency order (databases before schemas before tables) and consumed in
// that order; sinks never reorder. The method is RecordKind rather than Kind
// because Table and LineageEdge carry Kind fields of their own.
type Record interface {
	RecordKind() RecordKind
}

func (Database) RecordKind() RecordKind     { return RecordDatabase }
func (Schema) RecordKind() RecordKind       { return RecordSchema }
func (Table) RecordKind() RecordKind        { return RecordTable }
func (TableProfile) RecordKind() RecordKind { return RecordProfile }
func (LineageEdge) RecordKind() RecordKind  { return RecordLineage }
func (Procedure) RecordKind() RecordKind    { return RecordProcedure }
func (RunSummary) RecordKind() RecordKind   { return RecordSummary }

// Warning is a recovered error surfaced in the post-run summary instead of
// aborting the run.
type Warning struct {
	// Component names the pipeline stage that recovered (walker, profiler,
	// lineage, procedures).
	Component string `json:"component"`
	// Subject is what failed: a schema, a table FQN, a statement hash.
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RunSummary is the final record of a run: entity counts, filter counts and
// every recovered warning. Written to the sink last and rendered to the user.
type RunSummary struct {
	Service      string    `json:"service"`
	Databases    int       `json:"databases"`
	Schemas      int       `json:"schemas"`
	Tables       int       `json:"tables"`
	Views        int       `json:"views"`
	Columns      int       `json:"columns"`
	Profiles     int       `json:"profiles"`
	Edges        int       `json:"edges"`
	EdgesSkipped int       `json:"edgesSkipped"`
	Procedures   int       `json:"procedures"`
	Filtered     int       `json:"filtered"`
	Warnings     []Warning `json:"warnings"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}
