package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-surveysync/pkg/definition"
)

// LoadDefinition reads a JSON or YAML definition fixture. Failures end the
// test to keep setup concise.
func LoadDefinition(t *testing.T, path string) definition.Definition {
	t.Helper()

	def, err := LoadDefinitionFromPath(path)
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	return def
}

// LoadDefinitionFromPath returns a Definition without requiring testing.T,
// allowing callers to wire fixtures in setup functions.
func LoadDefinitionFromPath(path string) (definition.Definition, error) {
	if path == "" {
		return definition.Definition{}, errors.New("testsupport: definition path is required")
	}
	return definition.NewLoader().Load(context.Background(), definition.SourceFromFile(path))
}

// VisitDefinition returns the shared multi-page "Site visit" fixture: a
// required text question, an email input, a dropdown, a checkbox group and
// a boolean inside a panel, and a comment.
func VisitDefinition(t *testing.T) definition.Definition {
	t.Helper()
	return LoadDefinition(t, FixturePath("visit.json"))
}

// FixturePath resolves name inside the testsupport testdata directory.
func FixturePath(name string) string {
	_, here, _, ok := runtime.Caller(0)
	if !ok {
		panic("testsupport: unable to determine file location")
	}
	return filepath.Join(filepath.Dir(here), "testdata", name)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
