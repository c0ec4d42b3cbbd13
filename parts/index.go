package parts

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

	"github.com/jonwraymond/cadexec/env"
	"github.com/jonwraymond/cadexec/geometry"
)

// ErrNoLibrary indicates the configured part library directory does not
// exist.
var ErrNoLibrary = errors.New("part library directory not found")

// previewOptions are the fixed thumbnail settings for library previews.
var previewOptions = map[string]any{
	"width":    150,
	"height":   100,
	"showAxes": false,
}

// Part is one indexed library entry.
type Part struct {
	// ID is the script filename without its extension.
	ID string `json:"part_id"`

	// Metadata holds the docstring header pairs, keys normalized.
	Metadata map[string]string `json:"metadata"`

	// Tags are the normalized entries of the docstring tags line.
	Tags []string `json:"tags,omitempty"`

	// Filename is the script's base name inside the library.
	Filename string `json:"filename"`

	// PreviewPath points at the rendered thumbnail.
	PreviewPath string `json:"preview_path,omitempty"`

	modTime time.Time
}

// ScanReport summarizes one library scan. Scanned counts every eligible
// script file seen, whatever its outcome.
type ScanReport struct {
	Scanned int `json:"scanned"`
	Indexed int `json:"indexed"`
	Updated int `json:"updated"`
	Cached  int `json:"cached"`
	Removed int `json:"removed"`
	Errors  int `json:"errors"`
}

// Config holds the indexer's dependencies.
type Config struct {
	// LibraryDir is the flat directory of part scripts.
	LibraryDir string

	// PreviewDir receives rendered thumbnails.
	PreviewDir string

	// Kernel builds part scripts in-process during scans.
	Kernel geometry.Kernel

	// Logger is optional; nil defaults to a stderr logger.
	Logger *log.Logger
}

func (c *Config) validate() error {
	if c.LibraryDir == "" {
		return fmt.Errorf("parts: library directory is required")
	}
	if c.PreviewDir == "" {
		return fmt.Errorf("parts: preview directory is required")
	}
	if c.Kernel == nil {
		return fmt.Errorf("parts: kernel is required")
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "parts"})
	}
	return nil
}

// Indexer maintains the in-memory part index over a library directory.
//
// Contract:
//   - Concurrency: safe for concurrent use. Scan serializes against other
//     scans; reads see the last completed scan.
//   - Errors: per-file failures are counted and logged, never fatal to the
//     scan; a prior good entry survives a later bad parse of its file.
type Indexer struct {
	cfg Config

	mu    sync.RWMutex
	parts map[string]*Part
	order []string
}

// NewIndexer creates an Indexer. The library is not scanned until Scan is
// called.
func NewIndexer(cfg Config) (*Indexer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Indexer{cfg: cfg, parts: map[string]*Part{}}, nil
}

// Scan walks the library directory once, non-recursively, indexing every
// part script. Files whose modification time is unchanged since the last
// scan keep their entry untouched. Entries whose files disappeared are
// dropped along with their thumbnails.
func (ix *Indexer) Scan(ctx context.Context) (ScanReport, error) {
	entries, err := os.ReadDir(ix.cfg.LibraryDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ScanReport{}, fmt.Errorf("%w: %s", ErrNoLibrary, ix.cfg.LibraryDir)
		}
		return ScanReport{}, fmt.Errorf("parts: read library: %w", err)
	}
	if err := os.MkdirAll(ix.cfg.PreviewDir, 0o755); err != nil {
		return ScanReport{}, fmt.Errorf("parts: create preview directory: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	var report ScanReport
	seen := map[string]bool{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, env.ScriptExt) || strings.HasPrefix(name, "_") {
			continue
		}
		id := strings.TrimSuffix(name, env.ScriptExt)
		seen[id] = true
		report.Scanned++

		info, err := entry.Info()
		if err != nil {
			ix.cfg.Logger.Warn("stat part script", "file", name, "err", err)
			report.Errors++
			continue
		}

		prior, exists := ix.parts[id]
		if exists && prior.modTime.Equal(info.ModTime()) {
			report.Cached++
			continue
		}

		part, err := ix.indexFile(ctx, id, name, info.ModTime())
		if err != nil {
			ix.cfg.Logger.Warn("index part script", "file", name, "err", err)
			report.Errors++
			continue
		}

		ix.parts[id] = part
		if exists {
			report.Updated++
		} else {
			ix.order = append(ix.order, id)
			report.Indexed++
		}
	}

	// Drop entries whose backing scripts are gone.
	for id, part := range ix.parts {
		if seen[id] {
			continue
		}
		delete(ix.parts, id)
		if part.PreviewPath != "" {
			if err := os.Remove(part.PreviewPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				ix.cfg.Logger.Warn("remove stale preview", "path", part.PreviewPath, "err", err)
			}
		}
		report.Removed++
	}
	if report.Removed > 0 {
		kept := ix.order[:0]
		for _, id := range ix.order {
			if _, ok := ix.parts[id]; ok {
				kept = append(kept, id)
			}
		}
		ix.order = kept
	}

	ix.cfg.Logger.Info("library scan complete",
		"indexed", report.Indexed, "updated", report.Updated,
		"cached", report.Cached, "removed", report.Removed, "errors", report.Errors)
	return report, nil
}

// indexFile parses, builds, and thumbnails a single part script.
func (ix *Indexer) indexFile(ctx context.Context, id, filename string, modTime time.Time) (*Part, error) {
	path := filepath.Join(ix.cfg.LibraryDir, filename)
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	meta, tags := parseMetadata(string(source))
	meta["filename"] = filename

	part := &Part{
		ID:       id,
		Metadata: meta,
		Tags:     tags,
		Filename: filename,
		modTime:  modTime,
	}

	program, err := ix.cfg.Kernel.Parse(string(source))
	if err != nil {
		return nil, err
	}
	published, err := program.Build(ctx, geometry.BuildOptions{SearchPath: []string{ix.cfg.LibraryDir}})
	if err != nil {
		return nil, err
	}
	if len(published) == 0 {
		return nil, fmt.Errorf("parts: script %s published no objects", filename)
	}

	previewPath := filepath.Join(ix.cfg.PreviewDir, id+".svg")
	if err := published[0].Shape.RenderSVG(previewPath, previewOptions); err != nil {
		return nil, fmt.Errorf("parts: render preview for %s: %w", filename, err)
	}
	part.PreviewPath = previewPath
	return part, nil
}

// Parts returns the indexed parts in insertion order.
func (ix *Indexer) Parts() []Part {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]Part, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, *ix.parts[id])
	}
	return out
}

// Get returns one part by id.
func (ix *Indexer) Get(id string) (Part, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	part, ok := ix.parts[id]
	if !ok {
		return Part{}, false
	}
	return *part, true
}

// Len reports the number of indexed parts.
func (ix *Indexer) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.parts)
}
