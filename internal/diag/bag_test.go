package diag

import (
	"testing"

	"minato/internal/source"
)

func TestBagCap(t *testing.T) {
	b := NewBag(2)
	sp := source.Span{File: 0, Start: 0, End: 1}
	if !b.Add(NewError(CheckTypeMismatch, sp, "a")) {
		t.Fatal("first add should succeed")
	}
	if !b.Add(NewError(CheckTypeMismatch, sp, "b")) {
		t.Fatal("second add should succeed")
	}
	if b.Add(NewError(CheckTypeMismatch, sp, "c")) {
		t.Fatal("add past the cap should fail")
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
}

func TestBagSortIsDeterministic(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(CheckTypeMismatch, source.Span{File: 1, Start: 5, End: 6}, "later"))
	b.Add(NewError(TableUnknownClass, source.Span{File: 0, Start: 9, End: 10}, "earlier file"))
	b.Add(NewError(CheckArityMismatch, source.Span{File: 1, Start: 2, End: 3}, "earlier offset"))
	b.Sort()
	items := b.Items()
	if items[0].Code != TableUnknownClass || items[1].Code != CheckArityMismatch || items[2].Code != CheckTypeMismatch {
		t.Fatalf("unexpected order: %v %v %v", items[0].Code, items[1].Code, items[2].Code)
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	sp := source.Span{File: 0, Start: 4, End: 8}
	b.Add(NewError(CheckNoSuchMethod, sp, "no method foo"))
	b.Add(NewError(CheckNoSuchMethod, sp, "no method foo"))
	b.Add(NewError(CheckNoSuchMethod, source.Span{File: 0, Start: 9, End: 12}, "no method bar"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", b.Len())
	}
}

func TestReportBuilderEmitOnce(t *testing.T) {
	b := NewBag(10)
	r := BagReporter{Bag: b}
	rb := ReportError(r, TableInvalidOverride, source.Span{}, "bad override").
		WithNote(source.Span{File: 0, Start: 1, End: 2}, "overridden method declared here")
	rb.Emit()
	rb.Emit()
	if b.Len() != 1 {
		t.Fatalf("expected a single diagnostic, got %d", b.Len())
	}
	if len(b.Items()[0].Notes) != 1 {
		t.Fatalf("note lost")
	}
}

func TestCodeID(t *testing.T) {
	if got := TableUnknownClass.ID(); got != "TBL3001" {
		t.Errorf("TableUnknownClass.ID() = %q", got)
	}
	if got := CheckArityMismatch.ID(); got != "CHK4002" {
		t.Errorf("CheckArityMismatch.ID() = %q", got)
	}
	if got := InternalUnresolvedParam.ID(); got != "ICE9001" {
		t.Errorf("InternalUnresolvedParam.ID() = %q", got)
	}
}
