package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// EnvLibPath names the environment variable consulted when no library path is
// configured.
const EnvLibPath = "ONNXRUNTIME_LIB"

// LibPath returns the ONNX Runtime shared library to load: the configured path,
// then $ONNXRUNTIME_LIB, then the first existing well-known location.
func LibPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if p := os.Getenv(EnvLibPath); p != "" {
		return p, nil
	}
	for _, candidate := range candidates(runtime.GOOS) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("ONNX Runtime library not found for %s; set model.libonnx or %s", runtime.GOOS, EnvLibPath)
}

func candidates(goos string) []string {
	switch goos {
	case "linux":
		return []string{
			filepath.Join("onnxlibs", "libonnxruntime.so"),
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
			"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
		}
	case "darwin":
		return []string{
			filepath.Join("onnxlibs", "libonnxruntime.dylib"),
			"/usr/local/lib/libonnxruntime.dylib",
			"/opt/homebrew/lib/libonnxruntime.dylib",
		}
	case "windows":
		return []string{
			filepath.Join("onnxlibs", "onnxruntime.dll"),
			"onnxruntime.dll",
		}
	default:
		return nil
	}
}

// Init loads the shared library and initialises the ONNX Runtime environment.
// The returned function tears it down.
func Init(configured string, logger *slog.Logger) (func(), error) {
	path, err := LibPath(configured)
	if err != nil {
		return nil, err
	}
	logger.Info("Using ONNX Runtime library", slog.String("path", path))
	ort.SetSharedLibraryPath(path)
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize ONNX Runtime environment: %w", err)
	}
	return func() {
		if err := ort.DestroyEnvironment(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Warn("Failed to destroy ONNX Runtime environment", slog.String("error", err.Error()))
		}
	}, nil
}
