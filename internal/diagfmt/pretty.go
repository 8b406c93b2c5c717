// Package diagfmt renders accumulated diagnostics for humans and
// machines. It never mutates the bag; callers sort it first.
package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"minato/internal/diag"
	"minato/internal/source"
)

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	infoColor  = color.New(color.FgCyan, color.Bold)
	noteColor  = color.New(color.FgBlue)
	gutter     = color.New(color.Faint)
)

// Pretty renders every diagnostic in the bag as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	  <line> | <source line>
//	         | ^~~~ underline over the primary span
//
// followed by the notes in the same position format.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		prettyOne(w, d, fs, opts)
	}
	if bag.Len() >= int(bag.Cap()) {
		fmt.Fprintf(w, "too many diagnostics, stopped after %d\n", bag.Len())
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	start, _ := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		position(fs, d.Primary, start, opts.PathMode),
		paint(opts.Color, severityColor(d.Severity), d.Severity.String()),
		paint(opts.Color, severityColor(d.Severity), d.Code.ID()),
		d.Message)
	printSnippet(w, fs, d.Primary, start, opts)
	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		ns, _ := fs.Resolve(n.Span)
		fmt.Fprintf(w, "  %s: %s: %s\n",
			paint(opts.Color, noteColor, "note"),
			position(fs, n.Span, ns, opts.PathMode),
			n.Msg)
	}
}

func printSnippet(w io.Writer, fs *source.FileSet, sp source.Span, start source.LineCol, opts PrettyOpts) {
	line := fs.Get(sp.File).GetLine(start.Line)
	if line == "" {
		return
	}
	line = strings.TrimRight(line, "\n")
	if opts.Width > 0 {
		line = runewidth.Truncate(line, opts.Width, "…")
	}
	label := fmt.Sprintf("%5d", start.Line)
	fmt.Fprintf(w, "%s | %s\n", paint(opts.Color, gutter, label), line)

	// Underline width follows the display width of the spanned text,
	// clipped to the first line.
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	pad := runewidth.StringWidth(line[:col])
	span := int(sp.Len())
	if span <= 0 || col+span > len(line) {
		span = len(line) - col
	}
	marks := 1
	if span > 0 {
		marks = runewidth.StringWidth(line[col:min(col+span, len(line))])
	}
	if marks < 1 {
		marks = 1
	}
	underline := "^" + strings.Repeat("~", marks-1)
	fmt.Fprintf(w, "%s | %s%s\n",
		strings.Repeat(" ", len(label)),
		strings.Repeat(" ", pad),
		paint(opts.Color, severityColor(diag.SevError), underline))
}

func position(fs *source.FileSet, sp source.Span, lc source.LineCol, mode PathMode) string {
	path := fs.Get(sp.File).Path
	if mode == PathModeBasename {
		path = filepath.Base(path)
	}
	return fmt.Sprintf("%s:%d:%d", path, lc.Line, lc.Col)
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warnColor
	default:
		return infoColor
	}
}

func paint(enabled bool, c *color.Color, s string) string {
	if !enabled {
		return s
	}
	return c.Sprint(s)
}
