package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/krau/tagpipe/runner"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagpipe.toml")
	out, err := executeCommand(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	if _, err := executeCommand(t, "config", "init", path); err == nil {
		t.Fatal("expected error when file exists")
	}
	if _, err := executeCommand(t, "config", "init", "--overwrite", path); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
}

func writeCheckFixture(t *testing.T, blacklist string) string {
	t.Helper()
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	if err := os.MkdirAll(models, 0o755); err != nil {
		t.Fatal(err)
	}
	csv := "tag_id,name,category,count\n1,solo,0,10\n2,1girl,0,9\n3,no_humans,0,8\n"
	if err := os.WriteFile(filepath.Join(models, "selected_tags.csv"), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "blacklist.txt"), []byte(blacklist), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := `folders = ["set"]

[model]
dir = "` + filepath.ToSlash(models) + `"

[tagging]
threshold = 0.3
max_tags = 10
synonym_groups = [[1, 2]]

[paths]
blacklist = "` + filepath.ToSlash(filepath.Join(dir, "blacklist.txt")) + `"
log_dir = ""
`
	path := filepath.Join(dir, "tagpipe.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckCommand(t *testing.T) {
	path := writeCheckFixture(t, "no_humans\n")
	out, err := executeCommand(t, "check", "--config", path)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, want := range []string{"synonym groups", "exclude:no_humans>solo", "advisory", "3 tags, 3 valid"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCommandReportsUnknownBlacklist(t *testing.T) {
	path := writeCheckFixture(t, "not_a_tag\n")
	_, err := executeCommand(t, "check", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "not_a_tag") {
		t.Fatalf("expected blacklist error, got %v", err)
	}
}

func TestRenderRunStats(t *testing.T) {
	out := renderRunStats(runner.Stats{
		RunID: "abc",
		Folders: []runner.FolderStats{
			{Folder: "set", Found: 1200, Resumed: 200, Tagged: 999, Failed: 1, Duration: 1500 * time.Millisecond},
		},
		Warnings: map[string]int{"presence": 3, "composite": 1},
	})
	for _, want := range []string{"run abc", "set", "1,200", "999", "1.5s", "composite", "presence"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "composite") > strings.Index(out, "presence") {
		t.Error("warning rules should be sorted")
	}
}
