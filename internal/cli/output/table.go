package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// NewTable returns a table writer in the renderer's house style, targeted
// at the renderer's output. Markdown mode switches the table to pipes.
func (r *Renderer) NewTable(headers ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	if r.EffectiveMode() == ModeMarkdown {
		t.SetStyle(table.StyleDefault)
	}
	if len(headers) > 0 {
		t.AppendHeader(headers)
	}
	return t
}

// RenderTable renders the table in the mode's native shape.
func (r *Renderer) RenderTable(t table.Writer) {
	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}
