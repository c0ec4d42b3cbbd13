package geometry

import (
	"context"
	"errors"
)

// Common errors for kernel operations.
var (
	// ErrSyntax indicates the script failed to parse. It is distinguishable
	// from build failures so callers can report the two phases separately.
	ErrSyntax = errors.New("script syntax error")

	// ErrBuild indicates the script parsed but failed during geometry
	// construction.
	ErrBuild = errors.New("geometry build error")

	// ErrImport indicates an intermediate artifact could not be reloaded.
	ErrImport = errors.New("artifact import error")

	// ErrExport indicates a shape could not be serialized to a target file.
	ErrExport = errors.New("shape export error")

	// ErrUnsupported indicates the kernel does not implement an operation
	// or metric for the given shape.
	ErrUnsupported = errors.New("unsupported geometry operation")
)

// Kind classifies a published object.
type Kind string

const (
	// KindShape is a single solid, surface, or wire object.
	KindShape Kind = "shape"

	// KindAssembly is a composite of multiple objects. Assemblies are
	// flattened to a single compound when exported to an intermediate
	// artifact.
	KindAssembly Kind = "assembly"
)

// ArtifactFormat is the self-contained serialization used for intermediate
// artifacts passed from the isolated runner back to the host.
const ArtifactFormat = "brep"

// ArtifactExt is the file extension for intermediate artifacts.
const ArtifactExt = ".brep"

// Point is a location in model space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BoundingBox is the axis-aligned extent of a shape.
type BoundingBox struct {
	XMin   float64 `json:"xmin"`
	YMin   float64 `json:"ymin"`
	ZMin   float64 `json:"zmin"`
	XMax   float64 `json:"xmax"`
	YMax   float64 `json:"ymax"`
	ZMax   float64 `json:"zmax"`
	XLen   float64 `json:"xlen"`
	YLen   float64 `json:"ylen"`
	ZLen   float64 `json:"zlen"`
	Center Point   `json:"center"`
}

// Topology holds entity counts for a shape.
type Topology struct {
	Faces    int `json:"faces"`
	Edges    int `json:"edges"`
	Vertices int `json:"vertices"`
}

// PropertySet holds independently computed metrics for a shape. A nil field
// means that metric could not be computed; the others remain valid.
type PropertySet struct {
	BoundingBox  *BoundingBox `json:"bounding_box"`
	Volume       *float64     `json:"volume"`
	Area         *float64     `json:"area"`
	CenterOfMass *Point       `json:"center_of_mass"`
}

// Published is one object a script registered as a run output.
type Published struct {
	// Name is the explicit name given at publish time, or empty when the
	// script did not name the object.
	Name string

	// Shape is the published object.
	Shape Shape
}

// Shape is an opaque handle to a geometry object held by a kernel.
//
// Contract:
// - Concurrency: a Shape is not required to be safe for concurrent use.
// - Errors: metric methods return an error per metric; one metric failing
//   does not invalidate the handle or other metrics.
// - Ownership: option maps passed to Export and RenderSVG are read-only.
type Shape interface {
	// Kind reports whether the object is a single shape or an assembly.
	Kind() Kind

	// Export serializes the shape to path in the given format. An empty
	// format means infer from the path extension. Assemblies are flattened
	// to a single compound. The parent directory must already exist.
	Export(path, format string, opts map[string]any) error

	// RenderSVG writes a vector-image projection of the shape to path.
	RenderSVG(path string, opts map[string]any) error

	// BoundingBox computes the axis-aligned extent.
	BoundingBox() (BoundingBox, error)

	// Volume computes the enclosed volume. Fails for non-solids.
	Volume() (float64, error)

	// Area computes the total surface area.
	Area() (float64, error)

	// Center computes the center of mass.
	Center() (Point, error)

	// Topology counts faces, edges, and vertices.
	Topology() (Topology, error)
}

// BuildOptions configures a single program build.
type BuildOptions struct {
	// SearchPath lists directories the script may import local modules
	// from, highest priority first.
	SearchPath []string
}

// Program is a parsed script ready to build. Parsing and building are
// separate phases so syntax errors are distinguishable from construction
// failures.
type Program interface {
	// Build executes the script and returns the objects it published, in
	// publish order. A construction failure returns an error matching
	// ErrBuild via errors.Is.
	Build(ctx context.Context, opts BuildOptions) ([]Published, error)
}

// Kernel is the boundary to the external geometry library. The module never
// constructs geometry itself; everything flows through a Kernel.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Build must honor cancellation and return ctx.Err() when canceled.
// - Errors: Parse failures match ErrSyntax, build failures ErrBuild, and
//   Import failures ErrImport via errors.Is.
type Kernel interface {
	// Parse validates the script text and returns an executable program.
	Parse(script string) (Program, error)

	// Import reloads a self-contained intermediate artifact from disk.
	Import(path string) (Shape, error)
}
