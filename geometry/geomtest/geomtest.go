// Package geomtest provides an in-memory fake geometry kernel for tests.
//
// The fake interprets a tiny line-oriented script dialect instead of real CAD
// code. Lines it does not recognize are ignored, so realistic-looking scripts
// (comment headers, parameter assignments) pass through untouched:
//
//	publish <name>     publish a single shape under an explicit name
//	publish            publish a single unnamed shape
//	assembly <name>    publish an assembly
//	export-error <name> publish a shape whose artifact export fails
//	syntax-error       fail at parse time
//	build-error <msg>  fail at build time with the given message
package geomtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonwraymond/cadexec/geometry"
)

// artifactPrefix marks files written by the fake so Import can verify them.
const artifactPrefix = "BREP:"

// Kernel is a fake geometry.Kernel driven by script directives.
// The zero value is ready to use.
type Kernel struct {
	// FailVolume, FailArea, FailBounds, FailCenter, FailTopology make the
	// corresponding Shape metric return geometry.ErrUnsupported.
	FailVolume   bool
	FailArea     bool
	FailBounds   bool
	FailCenter   bool
	FailTopology bool

	// FailImport makes Import fail regardless of file content.
	FailImport bool
}

var _ geometry.Kernel = (*Kernel)(nil)

// Parse scans the script for directives. A "syntax-error" line fails here;
// everything else is deferred to Build.
func (k *Kernel) Parse(script string) (geometry.Program, error) {
	for _, line := range strings.Split(script, "\n") {
		if strings.TrimSpace(line) == "syntax-error" {
			return nil, fmt.Errorf("%w: forced by script", geometry.ErrSyntax)
		}
	}
	return &program{kernel: k, script: script}, nil
}

// Import reloads a fake artifact previously written by Shape.Export.
func (k *Kernel) Import(path string) (geometry.Shape, error) {
	if k.FailImport {
		return nil, fmt.Errorf("%w: forced import failure", geometry.ErrImport)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", geometry.ErrImport, err)
	}
	content := string(data)
	if !strings.HasPrefix(content, artifactPrefix) {
		return nil, fmt.Errorf("%w: %s is not a fake artifact", geometry.ErrImport, path)
	}
	name := strings.TrimSpace(strings.TrimPrefix(content, artifactPrefix))
	return &Shape{kernel: k, name: name, kind: geometry.KindShape}, nil
}

type program struct {
	kernel *Kernel
	script string
}

func (p *program) Build(ctx context.Context, opts geometry.BuildOptions) ([]geometry.Published, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var published []geometry.Published
	for _, line := range strings.Split(p.script, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "build-error":
			msg := "forced by script"
			if len(fields) > 1 {
				msg = strings.Join(fields[1:], " ")
			}
			return nil, fmt.Errorf("%w: %s", geometry.ErrBuild, msg)
		case "publish":
			name := ""
			if len(fields) > 1 {
				name = fields[1]
			}
			published = append(published, geometry.Published{
				Name:  name,
				Shape: &Shape{kernel: p.kernel, name: name, kind: geometry.KindShape},
			})
		case "assembly":
			name := ""
			if len(fields) > 1 {
				name = fields[1]
			}
			published = append(published, geometry.Published{
				Name:  name,
				Shape: &Shape{kernel: p.kernel, name: name, kind: geometry.KindAssembly},
			})
		case "export-error":
			name := ""
			if len(fields) > 1 {
				name = fields[1]
			}
			published = append(published, geometry.Published{
				Name:  name,
				Shape: &Shape{kernel: p.kernel, name: name, kind: geometry.KindShape, failExport: true},
			})
		}
	}
	return published, nil
}

// Shape is the fake geometry handle. Metrics describe a fixed 10x20x5 box
// unless the owning Kernel forces failures.
type Shape struct {
	kernel     *Kernel
	name       string
	kind       geometry.Kind
	failExport bool
}

var _ geometry.Shape = (*Shape)(nil)

// Name returns the name the shape was published or imported under.
func (s *Shape) Name() string { return s.name }

func (s *Shape) Kind() geometry.Kind { return s.kind }

func (s *Shape) Export(path, format string, opts map[string]any) error {
	if s.failExport {
		return fmt.Errorf("%w: forced export failure for %q", geometry.ErrExport, s.name)
	}
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	content := fmt.Sprintf("%s%s format=%s", artifactPrefix, s.name, format)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: %v", geometry.ErrExport, err)
	}
	return nil
}

func (s *Shape) RenderSVG(path string, opts map[string]any) error {
	if s.failExport {
		return fmt.Errorf("%w: forced render failure for %q", geometry.ErrExport, s.name)
	}
	content := fmt.Sprintf("<svg><!-- %s %v --></svg>", s.name, opts)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: %v", geometry.ErrExport, err)
	}
	return nil
}

func (s *Shape) BoundingBox() (geometry.BoundingBox, error) {
	if s.kernel != nil && s.kernel.FailBounds {
		return geometry.BoundingBox{}, fmt.Errorf("%w: bounding box", geometry.ErrUnsupported)
	}
	return geometry.BoundingBox{
		XMin: 0, YMin: 0, ZMin: 0,
		XMax: 10, YMax: 20, ZMax: 5,
		XLen: 10, YLen: 20, ZLen: 5,
		Center: geometry.Point{X: 5, Y: 10, Z: 2.5},
	}, nil
}

func (s *Shape) Volume() (float64, error) {
	if s.kernel != nil && s.kernel.FailVolume {
		return 0, fmt.Errorf("%w: volume", geometry.ErrUnsupported)
	}
	return 1000, nil
}

func (s *Shape) Area() (float64, error) {
	if s.kernel != nil && s.kernel.FailArea {
		return 0, fmt.Errorf("%w: area", geometry.ErrUnsupported)
	}
	return 700, nil
}

func (s *Shape) Center() (geometry.Point, error) {
	if s.kernel != nil && s.kernel.FailCenter {
		return geometry.Point{}, fmt.Errorf("%w: center of mass", geometry.ErrUnsupported)
	}
	return geometry.Point{X: 5, Y: 10, Z: 2.5}, nil
}

func (s *Shape) Topology() (geometry.Topology, error) {
	if s.kernel != nil && s.kernel.FailTopology {
		return geometry.Topology{}, fmt.Errorf("%w: topology", geometry.ErrUnsupported)
	}
	return geometry.Topology{Faces: 6, Edges: 12, Vertices: 8}, nil
}
