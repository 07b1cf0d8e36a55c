//go:build onnx

package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// resolveDeepfakeORTLibPath locates the ONNX Runtime shared library for the
// deepfake classifier backend. The baseline search order (env override,
// then executable-relative lib/<os>-<arch>/ layouts, with CWD fallback
// gated behind dev mode to avoid shared-library hijacking) is shared
// infrastructure intentionally reused from the teacher's
// resolveORTLibPath (internal/engine/ort_lib.go in the teacher's own
// history, since deleted here; see DESIGN.md's "deepfake engine" entry),
// but adds one step the teacher's single-model VAD backend never needed:
// deepfake models are distributed from a configurable path
// (VOXFUSION_DEEPFAKE_MODEL_PATH, read in
// internal/sensor/catalog/hf_deepfake.go) and are expected
// to be retrained/swapped independently of the binary, so a model
// distribution may bundle its own matching runtime build alongside it.
// That directory is checked before falling back to CWD.
func resolveDeepfakeORTLibPath() (string, error) {
	if envPath := os.Getenv("VOXFUSION_ORT_LIB_PATH"); envPath != "" {
		info, err := os.Stat(envPath)
		if err != nil {
			return "", fmt.Errorf("ort: VOXFUSION_ORT_LIB_PATH=%q does not exist", envPath)
		}
		if info.IsDir() {
			return "", fmt.Errorf("ort: VOXFUSION_ORT_LIB_PATH=%q is a directory, expected a file", envPath)
		}
		return envPath, nil
	}

	filename := deepfakeOrtLibFilename()
	libRel := filepath.Join("lib", runtime.GOOS+"-"+runtime.GOARCH, filename)
	libRelParent := filepath.Join("..", "lib", runtime.GOOS+"-"+runtime.GOARCH, filename)

	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		for _, rel := range []string{libRel, libRelParent} {
			path := filepath.Join(exeDir, rel)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	if modelPath := os.Getenv("VOXFUSION_DEEPFAKE_MODEL_PATH"); modelPath != "" {
		modelDir := filepath.Dir(modelPath)
		candidates := []string{
			filepath.Join(modelDir, filename),
			filepath.Join(modelDir, "lib", runtime.GOOS+"-"+runtime.GOARCH, filename),
		}
		for _, path := range candidates {
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	if os.Getenv("VOXFUSION_DEV_MODE") == "1" {
		if dir, err := os.Getwd(); err == nil {
			for _, rel := range []string{libRel, libRelParent} {
				path := filepath.Join(dir, rel)
				if _, err := os.Stat(path); err == nil {
					return path, nil
				}
			}
		}
	}

	return "", fmt.Errorf("ort: shared library not found; searched lib/<os>-<arch>/%s relative to executable and to the deepfake model directory (set VOXFUSION_ORT_LIB_PATH to override, or VOXFUSION_DEV_MODE=1 to enable CWD lookup)", filename)
}

func deepfakeOrtLibFilename() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}
