package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRenderer(out, errOut, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	r, _, _ := newTestRenderer(ModeAuto)
	assert.Equal(t, ModeText, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeJSON)
	assert.Equal(t, ModeJSON, r.EffectiveMode())

	r, _, _ = newTestRenderer("")
	assert.Equal(t, ModeText, r.EffectiveMode())
}

func TestPrintAndStreams(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText)

	r.Println("hello")
	r.Printf("%d tables\n", 3)
	r.Warning("partial schema")
	r.Error("bad workflow")

	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, out.String(), "3 tables")
	assert.Contains(t, errOut.String(), "partial schema")
	assert.Contains(t, errOut.String(), "bad workflow")
}

func TestJSONOutput(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON)
	require.NoError(t, r.JSON(map[string]int{"tables": 5}))

	var got map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 5, got["tables"])
}

func TestHeaderMarkdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown)
	r.Header(1, "Summary")
	r.Header(2, "Warnings")
	assert.Contains(t, out.String(), "# Summary")
	assert.Contains(t, out.String(), "## Warnings")
}

func TestStatusLine(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText)
	r.StatusLine("connect", "ok", "")
	r.StatusLine("list schemas", "failed", "permission denied")

	assert.Contains(t, out.String(), "OK")
	assert.Contains(t, out.String(), "FAILED")
	assert.Contains(t, out.String(), "permission denied")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Tables", FormatHeader(2, "Tables"))
	assert.Equal(t, "# x", FormatHeader(0, "x"))
	assert.Equal(t, "Rows: 42", FormatKeyValue("Rows", "42"))
}

func TestTableRendering(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText)
	tbl := r.NewTable("NAME", "COUNT")
	tbl.AppendRow([]any{"tables", 12})
	r.RenderTable(tbl)

	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "tables")
}
