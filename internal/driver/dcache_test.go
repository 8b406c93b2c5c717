package driver_test

import (
	"context"
	"testing"

	"minato/internal/driver"
	"minato/internal/project"
)

func TestExportsRoundTrip(t *testing.T) {
	cache, err := driver.OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := project.Digest{1, 2, 3}
	in := &driver.ExportsPayload{
		Schema: 1,
		Digest: key,
		Clean:  true,
		Classes: []driver.ClassExport{{
			Name:       "Box",
			Superclass: "Object",
			TypeParams: []string{"T"},
			Methods: []driver.MethodExport{
				{Name: "get", Params: nil, Return: "T"},
				{Name: "initialize", Params: []string{"T"}, Return: "Void"},
			},
		}},
	}
	if err := cache.Put(key, in); err != nil {
		t.Fatal(err)
	}

	out, ok, err := cache.Get(key)
	if err != nil || !ok {
		t.Fatalf("get after put: ok=%v err=%v", ok, err)
	}
	if out.Classes[0].Name != "Box" || out.Classes[0].Methods[1].Params[0] != "T" {
		t.Fatalf("payload mangled: %+v", out.Classes)
	}
	if !cache.IsClean(key) {
		t.Fatal("clean entry must report clean")
	}

	if _, ok, err := cache.Get(project.Digest{9}); ok || err != nil {
		t.Fatalf("unknown key must miss cleanly: ok=%v err=%v", ok, err)
	}
}

func TestDropAllInvalidates(t *testing.T) {
	cache, err := driver.OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := project.Digest{7}
	if err := cache.Put(key, &driver.ExportsPayload{Schema: 1, Digest: key, Clean: true}); err != nil {
		t.Fatal(err)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if cache.IsClean(key) {
		t.Fatal("entry survived DropAll")
	}
}

func TestCheckOnlyReplaysFromCache(t *testing.T) {
	dir := t.TempDir()
	unit := writeUnit(t, dir, "a.mnast", boxClass())
	cache, err := driver.OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := driver.Options{Units: []string{unit}, CheckOnly: true, Cache: cache}

	first, err := driver.Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !first.OK() || first.CacheHit {
		t.Fatalf("first run must check for real: %+v", first.Bag.Items())
	}

	second, err := driver.Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Fatal("unchanged input must hit the exports cache")
	}
	if second.Digest != first.Digest {
		t.Fatal("digest must be stable across runs")
	}
}
