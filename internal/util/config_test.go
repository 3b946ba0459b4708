package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	want := Configuration{
		AssignPolicy: AssignStrict,
		Bootstrap:    "lib.pla",
		Parallel:     4,
		Log:          LogConfiguration{Level: "debug", File: "plastic.log"},
	}

	cases := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "plastic.toml",
			content: `assign_policy = "strict"
bootstrap = "lib.pla"
parallel = 4

[log]
level = "debug"
file = "plastic.log"
`,
		},
		{
			name: "yaml",
			file: "plastic.yaml",
			content: `assign_policy: strict
bootstrap: lib.pla
parallel: 4
log:
  level: debug
  file: plastic.log
`,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := LoadConfiguration(writeFile(t, c.file, c.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("configuration mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	got, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(DefaultConfiguration(), got); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigurationRejectsBadPolicy(t *testing.T) {
	path := writeFile(t, "plastic.toml", `assign_policy = "sometimes"`)
	if _, err := LoadConfiguration(path); err == nil {
		t.Fatal("expected an error for an unknown assign policy")
	}
}

func TestLoadConfigurationRejectsUnknownFormat(t *testing.T) {
	path := writeFile(t, "plastic.ini", "x=1")
	if _, err := LoadConfiguration(path); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}

func TestGetLineAndColumn(t *testing.T) {
	src := "ab\ncd\n\nef"
	cases := []struct {
		pos       int
		line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{4, 2, 2},
		{7, 4, 1},
	}
	for _, c := range cases {
		line, col := GetLineAndColumn(src, c.pos)
		if line != c.line || col != c.col {
			t.Errorf("pos %d: expected %d:%d, got %d:%d", c.pos, c.line, c.col, line, col)
		}
	}
}

func TestGetContextLines(t *testing.T) {
	src := "a := 1\nb := 2\nc := (\n"
	got := GetContextLines(src, 3, 6)
	want := "       1 | a := 1\n" +
		"       2 | b := 2\n" +
		"  >    3 | c := (\n" +
		"                ^ here\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}
