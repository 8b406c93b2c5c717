// Package project locates and parses the minato.toml manifest that
// describes one compilation: the source units, the entry class, and
// the driver knobs.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a parsed minato.toml.
type Manifest struct {
	Package PackageSection `toml:"package"`
	Build   BuildSection   `toml:"build"`

	// Root is the directory the manifest was loaded from.
	Root string `toml:"-"`
}

// PackageSection is the [package] table.
type PackageSection struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildSection is the [build] table. Zero values defer to the driver's
// defaults (entry Main, every .mn file under the root, cache on).
type BuildSection struct {
	// Sources are glob patterns relative to the project root.
	Sources []string `toml:"sources"`
	// Entry names the class whose class-level main starts the program.
	Entry string `toml:"entry"`
	// Parse names the external parser executable producing the syntax
	// handoff; empty means the units are pre-parsed .mnast files.
	Parse string `toml:"parse"`
	Cache *bool  `toml:"cache"`
	// CacheDir overrides the default .minato-cache location.
	CacheDir       string `toml:"cache_dir"`
	Jobs           int    `toml:"jobs"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
}

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

// Load parses the manifest at path.
func Load(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if strings.TrimSpace(m.Package.Name) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	m.Root = filepath.Dir(path)
	return &m, nil
}

// Discover walks up from startDir, loads the nearest manifest and
// reports whether one was found.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Entry returns the configured entry class, defaulting to Main.
func (m *Manifest) Entry() string {
	if m.Build.Entry == "" {
		return "Main"
	}
	return m.Build.Entry
}

// CacheEnabled reports whether the exports cache is on (the default).
func (m *Manifest) CacheEnabled() bool {
	return m.Build.Cache == nil || *m.Build.Cache
}

// CacheDir returns the cache location, resolved against the root.
func (m *Manifest) CacheDir() string {
	dir := m.Build.CacheDir
	if dir == "" {
		dir = ".minato-cache"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(m.Root, dir)
	}
	return dir
}

// SourceUnits expands the source globs against the project root into a
// sorted, deduplicated path list. With no patterns it matches every
// .mnast handoff under the root.
func (m *Manifest) SourceUnits() ([]string, error) {
	patterns := m.Build.Sources
	if len(patterns) == 0 {
		patterns = []string{"*.mnast", "src/*.mnast"}
	}
	seen := make(map[string]struct{})
	var units []string
	for _, p := range patterns {
		if filepath.IsAbs(p) {
			return nil, fmt.Errorf("source pattern %q: must be relative to the project root", p)
		}
		matches, err := filepath.Glob(filepath.Join(m.Root, p))
		if err != nil {
			return nil, fmt.Errorf("source pattern %q: %w", p, err)
		}
		for _, match := range matches {
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			units = append(units, match)
		}
	}
	sort.Strings(units)
	return units, nil
}
