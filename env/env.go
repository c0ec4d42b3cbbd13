package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jonwraymond/cadexec/workspace"
)

// Errors for environment management.
var (
	// ErrSetupFailed indicates runtime creation or dependency installation
	// failed. The manifest memo is rolled back so the next call retries.
	ErrSetupFailed = errors.New("environment setup failed")

	// ErrInvalidModule indicates a rejected local-module filename.
	ErrInvalidModule = errors.New("invalid module filename")
)

// ScriptExt is the extension of construction scripts and local modules.
const ScriptExt = ".py"

// Provisioner performs the actual runtime creation and dependency
// installation for a workspace.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; the
//   Manager serializes calls per workspace but not across workspaces.
// - Context: methods must honor cancellation.
// - Errors: any error is treated as an install failure by the Manager.
type Provisioner interface {
	// Entrypoint returns the runtime entry point path for a workspace,
	// whether or not it exists yet.
	Entrypoint(ws string) string

	// CreateRuntime creates a fresh version-pinned runtime for a workspace.
	CreateRuntime(ctx context.Context, ws string) error

	// InstallBase idempotently installs the base geometry-library
	// dependency into the workspace runtime.
	InstallBase(ctx context.Context, ws, entrypoint string) error

	// InstallManifest installs the workspace's extra-dependency manifest.
	InstallManifest(ctx context.Context, ws, entrypoint, manifest string) error

	// InstallPackage installs one named package into the runtime.
	InstallPackage(ctx context.Context, ws, entrypoint, pkg string) error
}

// Manager ensures an isolated, dependency-pinned runtime exists per
// workspace and memoizes manifest installs by modification time.
//
// All mutation is serialized per workspace, so concurrent first-use of one
// workspace performs a single install.
type Manager struct {
	provisioner Provisioner
	logger      *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	memo  map[string]time.Time
}

// NewManager creates a Manager backed by the given provisioner. A nil
// logger defaults to a stderr logger.
func NewManager(p Provisioner, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "env"})
	}
	return &Manager{
		provisioner: p,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
		memo:        make(map[string]time.Time),
	}
}

// workspaceLock returns the mutex guarding one workspace, creating it on
// first use.
func (m *Manager) workspaceLock(ws string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[ws]
	if !ok {
		l = &sync.Mutex{}
		m.locks[ws] = l
	}
	return l
}

// Ensure makes the workspace runtime ready and returns its entry point.
// The runtime is created if absent, the base dependency is installed
// idempotently, and the extra-dependency manifest is installed only when
// its mtime differs from the memoized value for this workspace.
func (m *Manager) Ensure(ctx context.Context, workspacePath string) (string, error) {
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return "", err
	}

	lock := m.workspaceLock(ws)
	lock.Lock()
	defer lock.Unlock()

	logger := m.logger.With("workspace", filepath.Base(ws))
	entrypoint := m.provisioner.Entrypoint(ws)

	if _, err := os.Stat(entrypoint); err != nil {
		logger.Info("creating runtime", "dir", workspace.RuntimeDir(ws))
		if err := m.provisioner.CreateRuntime(ctx, ws); err != nil {
			return "", fmt.Errorf("%w: create runtime: %v", ErrSetupFailed, err)
		}
		if _, err := os.Stat(entrypoint); err != nil {
			return "", fmt.Errorf("%w: entrypoint missing after creation: %s", ErrSetupFailed, entrypoint)
		}
	}

	if err := m.provisioner.InstallBase(ctx, ws, entrypoint); err != nil {
		return "", fmt.Errorf("%w: install base dependency: %v", ErrSetupFailed, err)
	}

	manifest := workspace.ManifestPath(ws)
	info, err := os.Stat(manifest)
	if err != nil {
		// No manifest: forget any stale memo so a future manifest installs.
		m.mu.Lock()
		delete(m.memo, ws)
		m.mu.Unlock()
		return entrypoint, nil
	}

	mtime := info.ModTime()
	m.mu.Lock()
	cached, seen := m.memo[ws]
	m.mu.Unlock()
	if seen && cached.Equal(mtime) {
		logger.Debug("manifest unchanged, skipping install", "mtime", mtime)
		return entrypoint, nil
	}

	logger.Info("installing manifest dependencies", "manifest", manifest)
	if err := m.provisioner.InstallManifest(ctx, ws, entrypoint, manifest); err != nil {
		m.mu.Lock()
		delete(m.memo, ws)
		m.mu.Unlock()
		return "", fmt.Errorf("%w: install manifest: %v", ErrSetupFailed, err)
	}
	m.mu.Lock()
	m.memo[ws] = mtime
	m.mu.Unlock()

	return entrypoint, nil
}

// InstallPackage installs one named package into the workspace runtime,
// ensuring the runtime exists first. On success the manifest memo is
// refreshed so the install is not repeated by the next Ensure.
func (m *Manager) InstallPackage(ctx context.Context, workspacePath, pkg string) error {
	if strings.TrimSpace(pkg) == "" {
		return fmt.Errorf("%w: empty package name", ErrInvalidModule)
	}
	entrypoint, err := m.Ensure(ctx, workspacePath)
	if err != nil {
		return err
	}
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return err
	}

	lock := m.workspaceLock(ws)
	lock.Lock()
	defer lock.Unlock()

	if err := m.provisioner.InstallPackage(ctx, ws, entrypoint, pkg); err != nil {
		return fmt.Errorf("%w: install package %q: %v", ErrSetupFailed, pkg, err)
	}
	if info, err := os.Stat(workspace.ManifestPath(ws)); err == nil {
		m.mu.Lock()
		m.memo[ws] = info.ModTime()
		m.mu.Unlock()
	}
	return nil
}

// SaveModule writes a local module into the workspace modules directory,
// creating it if needed. The filename must carry the script extension and
// contain no path separators.
func (m *Manager) SaveModule(workspacePath, filename, content string) (string, error) {
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(filename, ScriptExt) {
		return "", fmt.Errorf("%w: %q must end with %s", ErrInvalidModule, filename, ScriptExt)
	}
	if strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("%w: %q must not contain path separators", ErrInvalidModule, filename)
	}

	modulesDir := workspace.ModulesDir(ws)
	if err := os.MkdirAll(modulesDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create modules dir: %v", ErrSetupFailed, err)
	}
	target := filepath.Join(modulesDir, filename)
	if filepath.Dir(target) != modulesDir {
		return "", fmt.Errorf("%w: %q escapes the modules directory", ErrInvalidModule, filename)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("%w: write module: %v", ErrSetupFailed, err)
	}
	m.logger.Info("saved workspace module", "path", target)
	return target, nil
}
