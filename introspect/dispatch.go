package introspect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jonwraymond/cadexec/geometry"
	"github.com/jonwraymond/cadexec/runner"
	"github.com/jonwraymond/cadexec/store"
	"github.com/jonwraymond/cadexec/workspace"
)

// ErrArtifactMissing indicates a stored shape's intermediate artifact no
// longer exists on disk.
var ErrArtifactMissing = errors.New("intermediate artifact missing")

// PreviewExt is the fixed vector-image format for previews.
const PreviewExt = ".svg"

// DefaultPreviewOptions are the visualization defaults merged under caller
// overrides for previews; on conflict the caller wins.
func DefaultPreviewOptions() map[string]any {
	return map[string]any{
		"width":         400,
		"height":        300,
		"marginLeft":    10,
		"marginTop":     10,
		"showAxes":      false,
		"projectionDir": []float64{0.5, 0.5, 0.5},
		"strokeWidth":   0.25,
		"strokeColor":   []int{0, 0, 0},
		"hiddenColor":   []int{0, 0, 255, 100},
		"showHidden":    false,
	}
}

// Dispatcher resolves shape addresses and performs host-side export,
// preview, and introspection by reloading intermediate artifacts through
// the geometry kernel.
type Dispatcher struct {
	store  *store.Store
	kernel geometry.Kernel
	logger *log.Logger
}

// New creates a Dispatcher. A nil logger defaults to a stderr logger.
func New(st *store.Store, kernel geometry.Kernel, logger *log.Logger) (*Dispatcher, error) {
	if st == nil {
		return nil, fmt.Errorf("introspect: store is required")
	}
	if kernel == nil {
		return nil, fmt.Errorf("introspect: kernel is required")
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "introspect"})
	}
	return &Dispatcher{store: st, kernel: kernel, logger: logger}, nil
}

// resolve loads the shape behind an address from its intermediate artifact.
func (d *Dispatcher) resolve(resultID string, index int) (runner.ShapeResult, geometry.Shape, error) {
	ref, err := d.store.Resolve(resultID, index)
	if err != nil {
		return runner.ShapeResult{}, nil, err
	}
	if ref.IntermediatePath == "" {
		return runner.ShapeResult{}, nil, fmt.Errorf("%w: shape %q of %q was never exported: %s", ErrArtifactMissing, ref.Name, resultID, ref.ExportError)
	}
	if _, err := os.Stat(ref.IntermediatePath); err != nil {
		return runner.ShapeResult{}, nil, fmt.Errorf("%w: %s", ErrArtifactMissing, ref.IntermediatePath)
	}
	shape, err := d.kernel.Import(ref.IntermediatePath)
	if err != nil {
		return runner.ShapeResult{}, nil, err
	}
	return ref, shape, nil
}

// ExportRequest addresses one shape and names its export destination.
type ExportRequest struct {
	WorkspacePath string
	ResultID      string
	ShapeIndex    int

	// Filename picks the destination. A bare filename is rooted under the
	// workspace default output directory; a path containing a separator is
	// used as given.
	Filename string

	// Format overrides extension inference. Optional.
	Format string

	// Options are passed through to the kernel exporter. Optional.
	Options map[string]any
}

// Export writes the addressed shape to the requested file and returns the
// final absolute path.
func (d *Dispatcher) Export(ctx context.Context, req ExportRequest) (string, error) {
	_ = ctx // reserved; export is synchronous local work

	if req.Filename == "" {
		return "", fmt.Errorf("introspect: filename is required")
	}
	ws, err := workspace.Resolve(req.WorkspacePath)
	if err != nil {
		return "", err
	}
	ref, shape, err := d.resolve(req.ResultID, req.ShapeIndex)
	if err != nil {
		return "", err
	}

	// Dual rule: explicit paths are honored as given, bare names go to the
	// workspace output directory.
	var target string
	if filepath.IsAbs(req.Filename) || strings.ContainsAny(req.Filename, `/\`) {
		target, err = filepath.Abs(req.Filename)
		if err != nil {
			return "", fmt.Errorf("introspect: resolve target path: %w", err)
		}
	} else {
		target = filepath.Join(workspace.OutputDir(ws), req.Filename)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("introspect: create output directory: %w", err)
	}
	if err := shape.Export(target, req.Format, req.Options); err != nil {
		return "", err
	}
	d.logger.Info("exported shape", "name", ref.Name, "path", target, "format", req.Format)
	return target, nil
}

// PreviewRequest addresses one shape for vector-image rendering.
type PreviewRequest struct {
	WorkspacePath string
	ResultID      string
	ShapeIndex    int

	// Filename is optional; empty generates a fresh render name. The
	// preview extension is forced either way.
	Filename string

	// Options override the defaults; on conflict the caller wins.
	Options map[string]any
}

// ExportPreview renders the addressed shape into the workspace render
// directory and returns the final path.
func (d *Dispatcher) ExportPreview(ctx context.Context, req PreviewRequest) (string, error) {
	_ = ctx

	ws, err := workspace.Resolve(req.WorkspacePath)
	if err != nil {
		return "", err
	}
	ref, shape, err := d.resolve(req.ResultID, req.ShapeIndex)
	if err != nil {
		return "", err
	}

	name := req.Filename
	if name == "" {
		name = fmt.Sprintf("render_%s%s", uuid.NewString(), PreviewExt)
	}
	name = filepath.Base(name)
	if !strings.HasSuffix(strings.ToLower(name), PreviewExt) {
		name += PreviewExt
	}

	renderDir := workspace.RenderDir(ws)
	if err := os.MkdirAll(renderDir, 0o755); err != nil {
		return "", fmt.Errorf("introspect: create render directory: %w", err)
	}

	opts := DefaultPreviewOptions()
	for k, v := range req.Options {
		opts[k] = v
	}

	target := filepath.Join(renderDir, name)
	if err := shape.RenderSVG(target, opts); err != nil {
		return "", err
	}
	d.logger.Info("rendered preview", "name", ref.Name, "path", target)
	return target, nil
}

// Properties computes the addressed shape's metrics. Each metric is
// computed independently: a failure leaves that field nil and the others
// populated.
func (d *Dispatcher) Properties(ctx context.Context, resultID string, shapeIndex int) (geometry.PropertySet, error) {
	_ = ctx

	_, shape, err := d.resolve(resultID, shapeIndex)
	if err != nil {
		return geometry.PropertySet{}, err
	}
	return measure(shape, d.logger), nil
}

func measure(shape geometry.Shape, logger *log.Logger) geometry.PropertySet {
	var props geometry.PropertySet

	if bb, err := shape.BoundingBox(); err == nil {
		props.BoundingBox = &bb
	} else {
		logger.Warn("bounding box unavailable", "err", err)
	}
	if v, err := shape.Volume(); err == nil {
		props.Volume = &v
	} else {
		logger.Warn("volume unavailable", "err", err)
	}
	if a, err := shape.Area(); err == nil {
		props.Area = &a
	} else {
		logger.Warn("area unavailable", "err", err)
	}
	if c, err := shape.Center(); err == nil {
		props.CenterOfMass = &c
	} else {
		logger.Warn("center of mass unavailable", "err", err)
	}
	return props
}
