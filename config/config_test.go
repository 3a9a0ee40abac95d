package config_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/krau/tagpipe/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, resolved, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != "" {
		t.Fatalf("expected no config file, got %q", resolved)
	}
	def := config.Default()
	if cfg.Tagging.Threshold != def.Tagging.Threshold || cfg.Tagging.MaxTags != def.Tagging.MaxTags {
		t.Fatalf("unexpected tagging defaults: %+v", cfg.Tagging)
	}
	if cfg.OutputPath("set") != filepath.Join("outputs", "set", "set_tags.jsonl") {
		t.Fatalf("unexpected output path %q", cfg.OutputPath("set"))
	}
	if cfg.LogFile() != filepath.Join("logs", "joytag.log") {
		t.Fatalf("unexpected log file %q", cfg.LogFile())
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tagpipe.toml", `
folders = ["set_a", " /set_b/ ", ""]

[model]
name = "org/model v2"
cuda = true

[tagging]
threshold = 0.35
max_tags = 20
categories = [0, 4]
synonym_groups = [[1, 2], [5, 6, 7]]

[batch]
size = 8
workers = 4

[[rules.exclusions]]
if = "monochrome"
drop = "colorful"

[[rules.conflicts]]
tag = "outdoors"
with = ["indoors"]
`)
	cfg, resolved, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved %q want %q", resolved, path)
	}
	if cfg.Tagging.Threshold != 0.35 || cfg.Tagging.MaxTags != 20 {
		t.Fatalf("unexpected tagging section: %+v", cfg.Tagging)
	}
	if len(cfg.Tagging.SynonymGroups) != 2 || !slices.Equal(cfg.Tagging.SynonymGroups[1], []int{5, 6, 7}) {
		t.Fatalf("unexpected synonym groups: %v", cfg.Tagging.SynonymGroups)
	}
	if !slices.Equal(cfg.Folders, []string{"set_a", "set_b"}) {
		t.Fatalf("unexpected folders: %q", cfg.Folders)
	}
	if cfg.Batch.Workers != 4 || cfg.Batch.Size != 8 {
		t.Fatalf("unexpected batch section: %+v", cfg.Batch)
	}
	if !cfg.Model.CUDA {
		t.Fatal("expected model.cuda to be set")
	}
	if cfg.Model.FileName != "model.onnx" {
		t.Fatalf("defaults should survive partial files, got %q", cfg.Model.FileName)
	}
	if !strings.HasSuffix(cfg.LogFile(), "org_model_v2.log") {
		t.Fatalf("unexpected log file %q", cfg.LogFile())
	}

	ruleSet := cfg.RuleSet()
	names := make([]string, len(ruleSet))
	for i, r := range ruleSet {
		names[i] = r.Name()
	}
	if !slices.Contains(names, "exclude:monochrome>colorful") || !slices.Contains(names, "conflict:outdoors") {
		t.Fatalf("configured rules missing from %v", names)
	}
	if !slices.Contains(names, "exclude:no_humans>solo") {
		t.Fatalf("built-in rules missing from %v", names)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
tagging:
  threshold: 0.5
  max_tags: 3
  synonym_groups:
    - [10, 11]
paths:
  output_suffix: wd.jsonl
folders:
  - pages
rules:
  disable_defaults: true
`)
	cfg, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Tagging.MaxTags != 3 || cfg.Tagging.Threshold != 0.5 {
		t.Fatalf("unexpected tagging section: %+v", cfg.Tagging)
	}
	if cfg.OutputPath("pages") != filepath.Join("outputs", "pages", "pages_wd.jsonl") {
		t.Fatalf("unexpected output path %q", cfg.OutputPath("pages"))
	}
	if got := cfg.RuleSet(); len(got) != 0 {
		t.Fatalf("expected no rules with defaults disabled, got %d", len(got))
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.toml", `
[tagging]
threshold = 1.5
max_tags = 0

[batch]
workers = 0

[[rules.exclusions]]
if = "solo"
drop = "solo"
`)
	_, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"tagging.threshold", "tagging.max_tags", "batch.workers", "rules.exclusions[0]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.toml", "[tagging]\nthreshhold = 0.3\n")
	if _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample", "tagpipe.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample does not load: %v", err)
	}
}
