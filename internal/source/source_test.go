package source

import "testing"

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.Intern("Object")
	b := in.Intern("Object")
	if a != b {
		t.Fatalf("expected same id for same string, got %d and %d", a, b)
	}
	if s := in.MustLookup(a); s != "Object" {
		t.Fatalf("expected Object, got %q", s)
	}
}

func TestInternerEmptyStringIsReserved(t *testing.T) {
	in := NewInterner()
	if id := in.Intern(""); id != NoStringID {
		t.Fatalf("empty string should map to NoStringID, got %d", id)
	}
	if in.Len() != 1 {
		t.Fatalf("fresh interner should contain only the empty string")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.mn", []byte("class A\n  def foo\nend\n"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{6, LineCol{Line: 1, Col: 7}},
		{8, LineCol{Line: 2, Col: 1}},
		{12, LineCol{Line: 2, Col: 5}},
		{18, LineCol{Line: 3, Col: 1}},
	}
	for _, tc := range cases {
		got, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if got != tc.want {
			t.Errorf("offset %d: got %+v, want %+v", tc.off, got, tc.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.mn", []byte("one\ntwo\nthree"))
	f := fs.Get(id)
	if got := f.GetLine(2); got != "two" {
		t.Errorf("line 2: got %q", got)
	}
	if got := f.GetLine(3); got != "three" {
		t.Errorf("line 3: got %q", got)
	}
	if got := f.GetLine(4); got != "" {
		t.Errorf("line 4 should be empty, got %q", got)
	}
}

func TestLoadNormalizesCRLF(t *testing.T) {
	content, changed := normalizeCRLF([]byte("a\r\nb"))
	if !changed || string(content) != "a\nb" {
		t.Fatalf("CRLF not normalized: %q", content)
	}
	content, changed = normalizeCRLF([]byte("plain"))
	if changed || string(content) != "plain" {
		t.Fatalf("unexpected rewrite: %q", content)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	c := a.Cover(b)
	if c.Start != 2 || c.End != 8 {
		t.Fatalf("cover failed: %+v", c)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("cross-file cover must be a no-op")
	}
}
