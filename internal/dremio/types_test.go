package dremio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		sourceType string
		want       meta.DataType
	}{
		// Dremio reports DOUBLE both ways; both must stay DOUBLE, not FLOAT.
		{"DOUBLE", meta.TypeDouble},
		{"double", meta.TypeDouble},
		{"DOUBLE PRECISION", meta.TypeDouble},
		{"CHARACTER VARYING", meta.TypeVarchar},
		{"BINARY VARYING", meta.TypeVarbinary},
		{"VARCHAR", meta.TypeVarchar},
		{"FLOAT", meta.TypeFloat},
		{"BOOLEAN", meta.TypeBoolean},
		{"INTEGER", meta.TypeInt},
		{"INT", meta.TypeInt},
		{"BIGINT", meta.TypeBigint},
		{"DECIMAL(38, 10)", meta.TypeDecimal},
		{"NUMERIC", meta.TypeDecimal},
		{"DATE", meta.TypeDate},
		{"TIME", meta.TypeTime},
		{"TIMESTAMP", meta.TypeTimestamp},
		{"INTERVAL DAY TO SECOND", meta.TypeInterval},
		{"INTERVAL YEAR TO MONTH", meta.TypeInterval},
		{"LIST", meta.TypeList},
		{"ARRAY", meta.TypeList},
		{"STRUCT", meta.TypeStruct},
		{"ROW", meta.TypeStruct},
		{"MAP", meta.TypeMap},
		{"  varchar(255) ", meta.TypeVarchar},
		{"GEOMETRY", meta.TypeUnknown},
		{"", meta.TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.sourceType, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeType(tt.sourceType))
		})
	}
}

func TestCompilePattern(t *testing.T) {
	p, err := CompilePattern([]string{"^prod_"}, []string{"_tmp$"})
	assert.NoError(t, err)
	assert.True(t, p.Match("prod_sales"))
	assert.False(t, p.Match("dev_sales"))
	assert.False(t, p.Match("prod_sales_tmp"))

	// Empty include list admits everything not excluded.
	p, err = CompilePattern(nil, []string{"^scratch"})
	assert.NoError(t, err)
	assert.True(t, p.Match("sales"))
	assert.False(t, p.Match("scratch_area"))

	_, err = CompilePattern([]string{"("}, nil)
	assert.Error(t, err)

	_, err = CompilePattern(nil, []string{"("})
	assert.Error(t, err)
}
