// Package workspace defines the on-disk layout of a cadexec workspace.
//
// A workspace is a directory created by the caller; it is the isolation
// boundary owning one runtime environment and one result namespace. Every
// path the module touches inside a workspace is derived here so the layout
// stays consistent across components.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when a workspace path does not exist or is not a
// directory.
var ErrNotFound = errors.New("workspace not found")

// Directory and file names inside a workspace.
const (
	// RuntimeDirName holds the isolated, version-pinned runtime.
	RuntimeDirName = ".venv"

	// ManifestName is the optional extra-dependency manifest.
	ManifestName = "requirements.txt"

	// ModulesDirName holds caller-saved local modules importable by scripts.
	ModulesDirName = "modules"

	// ResultsDirName is the hidden directory holding intermediate artifacts,
	// one subdirectory per result id.
	ResultsDirName = ".cad_results"

	// OutputDirName is the default destination for exported files.
	OutputDirName = "shapes"

	// RenderDirName is the subdirectory of OutputDirName for previews.
	RenderDirName = "renders"
)

// Resolve converts path to an absolute path and verifies it is an existing
// directory.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, abs)
	}
	return abs, nil
}

// RuntimeDir returns the runtime directory for a workspace.
func RuntimeDir(ws string) string { return filepath.Join(ws, RuntimeDirName) }

// ManifestPath returns the extra-dependency manifest path for a workspace.
func ManifestPath(ws string) string { return filepath.Join(ws, ManifestName) }

// ModulesDir returns the local-module directory for a workspace.
func ModulesDir(ws string) string { return filepath.Join(ws, ModulesDirName) }

// ResultsDir returns the hidden results directory for a workspace.
func ResultsDir(ws string) string { return filepath.Join(ws, ResultsDirName) }

// ResultDir returns the artifact directory for one result id.
func ResultDir(ws, resultID string) string {
	return filepath.Join(ws, ResultsDirName, resultID)
}

// OutputDir returns the default export destination for a workspace.
func OutputDir(ws string) string { return filepath.Join(ws, OutputDirName) }

// RenderDir returns the preview destination for a workspace.
func RenderDir(ws string) string {
	return filepath.Join(ws, OutputDirName, RenderDirName)
}
