// Package output renders command results as terminal text, markdown, or
// JSON. Commands decide what to print; the renderer decides how.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Mode selects the output format.
type Mode string

const (
	// ModeAuto picks text on a terminal and stays machine-friendly
	// elsewhere.
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer. Color is applied only in text mode on a
// color-capable terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	r := &Renderer{out: out, errOut: errOut, mode: mode}
	r.styles = newStyles(r.EffectiveMode() == ModeText && colorEnabled())
	return r
}

// EffectiveMode resolves ModeAuto to a concrete mode.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode == ModeAuto {
		return ModeText
	}
	return r.mode
}

// Styles returns the renderer's style set.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	fmt.Fprintf(r.out, format, a...)
}

// Success writes a highlighted success line.
func (r *Renderer) Success(msg string) {
	fmt.Fprintln(r.out, r.styles.Success.Render(msg))
}

// Warning writes a highlighted warning line to standard error.
func (r *Renderer) Warning(msg string) {
	fmt.Fprintln(r.errOut, r.styles.Warning.Render(msg))
}

// Error writes a highlighted error line to standard error.
func (r *Renderer) Error(msg string) {
	fmt.Fprintln(r.errOut, r.styles.Error.Render(msg))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Header writes a section header: styled in text mode, '#'-prefixed in
// markdown mode.
func (r *Renderer) Header(level int, s string) {
	if r.EffectiveMode() == ModeMarkdown {
		fmt.Fprintln(r.out, FormatHeader(level, s))
		return
	}
	style := r.styles.Header2
	if level <= 1 {
		style = r.styles.Header1
	}
	fmt.Fprintln(r.out, style.Render(s))
}

// StatusLine writes a "name: STATUS (detail)" line with the status styled
// by outcome.
func (r *Renderer) StatusLine(name, status, detail string) {
	style := r.styles.StatusSuccess
	if status != "ok" && status != "passed" {
		style = r.styles.StatusFailed
	}
	if detail != "" {
		fmt.Fprintf(r.out, "%-24s %s (%s)\n", name, style.Render(strings.ToUpper(status)), detail)
		return
	}
	fmt.Fprintf(r.out, "%-24s %s\n", name, style.Render(strings.ToUpper(status)))
}

// FormatHeader formats a markdown header of the given level.
func FormatHeader(level int, s string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + s
}

// FormatKeyValue formats a "key: value" detail line.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("%s: %s", key, value)
}
