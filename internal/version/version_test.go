package version

import (
	"strings"
	"testing"
)

func TestStringIncludesStampedFields(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version = "1.2.3"
	GitCommit = ""
	BuildDate = ""
	if got := String(); got != "minato 1.2.3" {
		t.Fatalf("bare version wrong: %q", got)
	}

	GitCommit = "abc123"
	BuildDate = "2026-08-29"
	got := String()
	for _, want := range []string{"1.2.3", "(abc123)", "built 2026-08-29"} {
		if !strings.Contains(got, want) {
			t.Fatalf("%q missing from %q", want, got)
		}
	}
}

func TestDefaultVersionIsSet(t *testing.T) {
	if Version == "" {
		t.Fatal("Version must have a default")
	}
}
