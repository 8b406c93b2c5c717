package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[package]
name = "demo"
version = "0.1.0"
`)
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Package.Name != "demo" || m.Root != dir {
		t.Fatalf("parsed wrong: %+v", m)
	}
	if m.Entry() != "Main" {
		t.Fatalf("default entry must be Main, got %s", m.Entry())
	}
	if !m.CacheEnabled() {
		t.Fatal("cache defaults to on")
	}
	if got := m.CacheDir(); got != filepath.Join(dir, ".minato-cache") {
		t.Fatalf("default cache dir wrong: %s", got)
	}
}

func TestLoadBuildSection(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[package]
name = "demo"

[build]
sources = ["units/*.mnast"]
entry = "App"
cache = false
jobs = 4
max_diagnostics = 25
`)
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Entry() != "App" || m.CacheEnabled() || m.Build.Jobs != 4 || m.Build.MaxDiagnostics != 25 {
		t.Fatalf("build section wrong: %+v", m.Build)
	}
}

func TestLoadRejectsMissingPackage(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `[build]`+"\n"+`entry = "App"`)
	if _, err := Load(path); !errors.Is(err, ErrPackageSectionMissing) {
		t.Fatalf("expected missing [package], got %v", err)
	}
}

func TestSourceUnitsExpandAndSort(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "units"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"units/b.mnast", "units/a.mnast", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path := writeManifest(t, dir, `
[package]
name = "demo"

[build]
sources = ["units/*.mnast", "units/a.mnast"]
`)
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	units, err := m.SourceUnits()
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 2 ||
		filepath.Base(units[0]) != "a.mnast" ||
		filepath.Base(units[1]) != "b.mnast" {
		t.Fatalf("unit expansion wrong: %v", units)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("discover failed: ok=%v err=%v", ok, err)
	}
	if m.Root != dir {
		t.Fatalf("rooted at %s, want %s", m.Root, dir)
	}
}
