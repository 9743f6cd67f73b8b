package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set to 1.
const UpdateGoldenEnv = "SHELFLINK_UPDATE_GOLDEN"

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// GoldenPath constructs a path to a golden file relative to the testdata directory.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	if err := json.Unmarshal(LoadFixture(t, path), dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// WriteGoldenJSON writes v indented to path.
func WriteGoldenJSON(t testing.TB, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal JSON for golden file %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		t.Fatalf("failed to write golden file %s: %v", path, err)
	}
}

// AssertGoldenJSON compares the JSON encoding of actual with the golden file
// at path. Key order and whitespace are ignored. A missing golden file is
// created from actual.
func AssertGoldenJSON(t testing.TB, path string, actual any) {
	t.Helper()

	if os.Getenv(UpdateGoldenEnv) == "1" {
		WriteGoldenJSON(t, path, actual)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Logf("Golden file %s does not exist, creating it", path)
		WriteGoldenJSON(t, path, actual)
		return
	}
	if err != nil {
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	got, err := normaliseJSON(actual)
	if err != nil {
		t.Fatalf("failed to encode actual value for %s: %v", path, err)
	}
	var want any
	if err := json.Unmarshal(expected, &want); err != nil {
		t.Fatalf("golden file %s is not valid JSON: %v", path, err)
	}

	if !reflect.DeepEqual(got, want) {
		pretty, _ := json.MarshalIndent(got, "", "  ")
		t.Errorf("output mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, expected, pretty)
	}
}

// normaliseJSON round-trips v so that it compares equal to a decoded file.
func normaliseJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(data, &out)
	return out, err
}
