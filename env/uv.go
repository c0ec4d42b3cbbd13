package env

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/jonwraymond/cadexec/workspace"
)

// Defaults for the uv-backed provisioner.
const (
	DefaultRuntimeVersion = "3.11"
	DefaultBasePackage    = "cadquery"
)

// UVProvisioner provisions workspace runtimes with the uv package manager:
// one version-pinned virtual environment per workspace, with the base
// geometry library and any manifest dependencies installed into it.
type UVProvisioner struct {
	// Command is the uv executable. Defaults to "uv".
	Command string

	// RuntimeVersion pins the interpreter version. Defaults to
	// DefaultRuntimeVersion.
	RuntimeVersion string

	// BasePackage is the geometry-library dependency installed into every
	// runtime. Defaults to DefaultBasePackage.
	BasePackage string

	// Logger receives command diagnostics. Optional.
	Logger *log.Logger
}

var _ Provisioner = (*UVProvisioner)(nil)

func (p *UVProvisioner) command() string {
	if p.Command == "" {
		return "uv"
	}
	return p.Command
}

func (p *UVProvisioner) version() string {
	if p.RuntimeVersion == "" {
		return DefaultRuntimeVersion
	}
	return p.RuntimeVersion
}

func (p *UVProvisioner) base() string {
	if p.BasePackage == "" {
		return DefaultBasePackage
	}
	return p.BasePackage
}

// Entrypoint returns the interpreter path inside the workspace runtime.
func (p *UVProvisioner) Entrypoint(ws string) string {
	bin, exe := "bin", "python"
	if runtime.GOOS == "windows" {
		bin, exe = "Scripts", "python.exe"
	}
	return filepath.Join(workspace.RuntimeDir(ws), bin, exe)
}

// CreateRuntime creates the pinned virtual environment.
func (p *UVProvisioner) CreateRuntime(ctx context.Context, ws string) error {
	return p.run(ctx, ws, p.command(), "venv", workspace.RuntimeDir(ws), "-p", p.version())
}

// InstallBase installs the base geometry-library dependency.
func (p *UVProvisioner) InstallBase(ctx context.Context, ws, entrypoint string) error {
	return p.run(ctx, ws, p.command(), "pip", "install", p.base(), "--python", entrypoint)
}

// InstallManifest installs the workspace's extra-dependency manifest.
func (p *UVProvisioner) InstallManifest(ctx context.Context, ws, entrypoint, manifest string) error {
	return p.run(ctx, ws, p.command(), "pip", "install", "-r", manifest, "--python", entrypoint)
}

// InstallPackage installs one named package into the runtime.
func (p *UVProvisioner) InstallPackage(ctx context.Context, ws, entrypoint, pkg string) error {
	return p.run(ctx, ws, p.command(), "pip", "install", pkg, "--python", entrypoint)
}

func (p *UVProvisioner) run(ctx context.Context, dir string, name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if p.Logger != nil {
		p.Logger.Debug("running provisioner command", "cmd", name, "args", args)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, stderr.String())
	}
	return nil
}
