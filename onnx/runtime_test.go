package onnx

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLibPathPrefersConfigured(t *testing.T) {
	t.Setenv(EnvLibPath, "/from/env.so")
	got, err := LibPath("/configured.so")
	if err != nil || got != "/configured.so" {
		t.Fatalf("LibPath = %q, %v", got, err)
	}
}

func TestLibPathFromEnv(t *testing.T) {
	t.Setenv(EnvLibPath, "/from/env.so")
	got, err := LibPath("")
	if err != nil || got != "/from/env.so" {
		t.Fatalf("LibPath = %q, %v", got, err)
	}
}

func TestLibPathSearchesWorkingDir(t *testing.T) {
	t.Setenv(EnvLibPath, "")
	dir := t.TempDir()
	t.Chdir(dir)
	list := candidates("linux")
	if err := os.MkdirAll(filepath.Dir(list[0]), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(list[0], nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS == "linux" {
		got, err := LibPath("")
		if err != nil || got != list[0] {
			t.Fatalf("LibPath = %q, %v; want %q", got, err, list[0])
		}
	}
	if got := candidates("plan9"); got != nil {
		t.Fatalf("unexpected candidates %v", got)
	}
	if len(candidates("darwin")) == 0 || len(candidates("windows")) == 0 {
		t.Fatal("expected candidates for darwin and windows")
	}
}
