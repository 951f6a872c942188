package meta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchemaFullName(t *testing.T) {
	tests := []struct {
		name     string
		schema   Schema
		fullName string
		display  string
	}{
		{
			name:     "space only",
			schema:   Schema{Database: "Sales"},
			fullName: "Sales",
			display:  "",
		},
		{
			name:     "single folder",
			schema:   Schema{Database: "Sales", Path: []string{"staging"}},
			fullName: "Sales.staging",
			display:  "staging",
		},
		{
			name:     "nested folders",
			schema:   Schema{Database: "Sales", Path: []string{"eu", "orders"}},
			fullName: "Sales.eu.orders",
			display:  "eu.orders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fullName, tt.schema.FullName())
			assert.Equal(t, tt.display, tt.schema.Display())
		})
	}
}

func TestTableRefFQN(t *testing.T) {
	ref := TableRef{Database: "Sales", Schema: "eu.orders", Name: "q1"}
	assert.Equal(t, "Sales.eu.orders.q1", ref.FQN())

	// Relations directly under the space have no schema segment.
	ref = TableRef{Database: "Sales", Name: "raw"}
	assert.Equal(t, "Sales.raw", ref.FQN())
}

func TestTableRefKeyCaseInsensitive(t *testing.T) {
	a := TableRef{Database: "Sales", Schema: "Staging", Name: "Orders"}
	b := TableRef{Database: "sales", Schema: "staging", Name: "orders"}
	assert.Equal(t, a.Key(), b.Key())
}

func TestLineageEdgeIdentity(t *testing.T) {
	src := TableRef{Database: "Sales", Name: "raw"}
	dst := TableRef{Database: "Sales", Name: "clean"}

	early := LineageEdge{Source: src, Target: dst, Kind: EdgeTable, ObservedAt: time.Unix(100, 0)}
	late := LineageEdge{Source: src, Target: dst, Kind: EdgeTable, ObservedAt: time.Unix(200, 0)}
	assert.Equal(t, early.Identity(), late.Identity(), "observation time must not change identity")

	column := LineageEdge{Source: src, Target: dst, Kind: EdgeColumn, SourceColumn: "id", TargetColumn: "id"}
	assert.NotEqual(t, early.Identity(), column.Identity())

	// Case differences in the refs collapse to one identity.
	upper := LineageEdge{Source: TableRef{Database: "SALES", Name: "RAW"}, Target: dst, Kind: EdgeTable}
	assert.Equal(t, early.Identity(), upper.Identity())
}

func TestRecordKinds(t *testing.T) {
	records := []Record{
		Database{}, Schema{}, Table{}, TableProfile{}, LineageEdge{}, Procedure{}, RunSummary{},
	}
	kinds := map[RecordKind]bool{}
	for _, r := range records {
		kinds[r.RecordKind()] = true
	}
	assert.Len(t, kinds, len(records), "every record type has a distinct kind")
}

func TestRecordKindCoexistsWithKindFields(t *testing.T) {
	// Table and LineageEdge carry their own Kind fields; the record tag
	// must stay accessible alongside them.
	table := Table{Kind: KindView}
	assert.Equal(t, RecordTable, table.RecordKind())
	assert.Equal(t, KindView, table.Kind)

	edge := LineageEdge{Kind: EdgeColumn}
	assert.Equal(t, RecordLineage, edge.RecordKind())
	assert.Contains(t, edge.Identity(), string(EdgeColumn))
}
