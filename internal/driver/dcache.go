package driver

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"minato/internal/classtable"
	"minato/internal/project"
	"minato/internal/source"
	"minato/internal/types"
)

// Bump when the ExportsPayload format changes; stale entries then read
// as misses instead of garbage.
const exportsSchemaVersion uint16 = 1

// DiskCache persists checked-program exports keyed by the input digest.
// A hit on an unchanged input lets a check-only run skip the pipeline
// entirely. Safe for concurrent use; nil receivers are no-ops.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// ExportsPayload is the cached shape of a checked program: class and
// method signatures with types rendered as display strings, plus a
// clean flag. It deliberately carries no bodies.
type ExportsPayload struct {
	Schema  uint16
	Digest  project.Digest
	Clean   bool
	Classes []ClassExport
}

// ClassExport is one class signature.
type ClassExport struct {
	Name       string
	Superclass string
	TypeParams []string
	IsEnum     bool
	Cases      []string
	Methods    []MethodExport
}

// MethodExport is one method signature. Params and Return are display
// strings, not interned IDs; the cache outlives any interner.
type MethodExport struct {
	Name       string
	ClassLevel bool
	TypeParams []string
	Params     []string
	Return     string
}

// OpenDiskCache opens (creating if needed) a cache rooted at dir.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "exports", hex.EncodeToString(key[:])+".mp")
}

// Put serializes the payload next to its final path and renames it into
// place, so readers never observe a half-written entry.
func (c *DiskCache) Put(key project.Digest, payload *ExportsPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the payload for key. A missing or schema-mismatched entry
// is a miss, not an error.
func (c *DiskCache) Get(key project.Digest) (*ExportsPayload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload ExportsPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != exportsSchemaVersion || payload.Digest != key {
		return nil, false, nil
	}
	return &payload, true, nil
}

// IsClean reports whether the cache has a clean entry for key.
func (c *DiskCache) IsClean(key project.Digest) bool {
	payload, ok, err := c.Get(key)
	return err == nil && ok && payload.Clean
}

// DropAll discards every entry, for use after schema bumps or with an
// explicit flag.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "exports"))
}

// BuildExports renders the run's class table into a cacheable payload.
func BuildExports(res *Result) *ExportsPayload {
	payload := &ExportsPayload{
		Schema: exportsSchemaVersion,
		Digest: res.Digest,
		Clean:  !res.Bag.HasErrors(),
	}
	t := res.Table
	t.All(func(c *classtable.ClassEntry) {
		if c.Builtin {
			return
		}
		ce := ClassExport{
			Name:       t.Names.MustLookup(c.Name),
			TypeParams: nameStrings(t, c.TypeParams),
			IsEnum:     c.IsEnum,
		}
		if c.Superclass != types.NoTypeID {
			ce.Superclass = t.FormatType(c.Superclass)
		}
		for _, v := range c.Cases {
			ce.Cases = append(ce.Cases, t.Names.MustLookup(t.Get(v).Name))
		}
		for _, m := range c.MethodsInOrder() {
			ce.Methods = append(ce.Methods, exportMethod(t, m, false))
		}
		for _, m := range c.ClassMethodsInOrder() {
			ce.Methods = append(ce.Methods, exportMethod(t, m, true))
		}
		payload.Classes = append(payload.Classes, ce)
	})
	return payload
}

func exportMethod(t *classtable.Table, m *classtable.MethodEntry, classLevel bool) MethodExport {
	me := MethodExport{
		Name:       t.Names.MustLookup(m.Name),
		ClassLevel: classLevel,
		TypeParams: nameStrings(t, m.TypeParams),
		Return:     t.FormatType(m.Return),
	}
	for _, p := range m.Params {
		me.Params = append(me.Params, t.FormatType(p.Type))
	}
	return me
}

func nameStrings(t *classtable.Table, ids []source.StringID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.Names.MustLookup(id)
	}
	return out
}
