package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"minato/internal/diag"
	"minato/internal/diagfmt"
	"minato/internal/source"
)

func sampleBag() (*diag.Bag, *source.FileSet, source.Span) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("lib/main.mn", []byte("x = compute\ny = x\n"))
	sp := source.Span{File: id, Start: 4, End: 11} // "compute"
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.CheckUndefinedVariable, sp, "undefined variable compute").
		WithNote(source.Span{File: id, Start: 0, End: 1}, "assigned here"))
	return bag, fs, sp
}

func TestPrettyLayout(t *testing.T) {
	bag, fs, _ := sampleBag()
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{ShowNotes: true})
	out := buf.String()

	if !strings.Contains(out, "lib/main.mn:1:5: ERROR CHK4005: undefined variable compute") {
		t.Fatalf("header line wrong:\n%s", out)
	}
	if !strings.Contains(out, "| x = compute") {
		t.Fatalf("source snippet missing:\n%s", out)
	}
	if !strings.Contains(out, "^~~~~~~") {
		t.Fatalf("underline must span the word:\n%s", out)
	}
	if !strings.Contains(out, "note: lib/main.mn:1:1: assigned here") {
		t.Fatalf("note missing:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("color disabled must emit no escape codes")
	}
}

func TestPrettyBasenameMode(t *testing.T) {
	bag, fs, _ := sampleBag()
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{PathMode: diagfmt.PathModeBasename})
	if !strings.HasPrefix(buf.String(), "main.mn:1:5:") {
		t.Fatalf("basename mode wrong:\n%s", buf.String())
	}
}

func TestJSONRoundTrips(t *testing.T) {
	bag, fs, sp := sampleBag()
	var buf bytes.Buffer
	err := diagfmt.JSON(&buf, bag, fs, diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true})
	if err != nil {
		t.Fatal(err)
	}
	var out diagfmt.Output
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Total != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "CHK4005" || d.Severity != "ERROR" {
		t.Fatalf("wrong identity: %+v", d)
	}
	if d.Location.StartByte != sp.Start || d.Location.StartLine != 1 || d.Location.StartCol != 5 {
		t.Fatalf("wrong location: %+v", d.Location)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("note not serialized: %+v", d)
	}
}

func TestJSONTruncation(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.mn", []byte("abc\n"))
	bag := diag.NewBag(10)
	for i := 0; i < 3; i++ {
		bag.Add(diag.NewError(diag.CheckTypeMismatch, source.Span{File: id, Start: 0, End: 1}, "boom"))
	}
	var buf bytes.Buffer
	if err := diagfmt.JSON(&buf, bag, fs, diagfmt.JSONOpts{Max: 2}); err != nil {
		t.Fatal(err)
	}
	var out diagfmt.Output
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if !out.Truncated || out.Total != 3 || len(out.Diagnostics) != 2 {
		t.Fatalf("truncation wrong: %+v", out)
	}
}
