package introspect

import (
	"context"
	"fmt"
	"strings"
)

// Describe produces a prose description of the addressed shape. Metric
// failures soften the wording instead of failing the call; topology counts
// are appended when available.
func (d *Dispatcher) Describe(ctx context.Context, resultID string, shapeIndex int) (string, error) {
	_ = ctx

	ref, shape, err := d.resolve(resultID, shapeIndex)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Object %q is a %s.", ref.Name, shape.Kind())

	if bb, err := shape.BoundingBox(); err == nil {
		fmt.Fprintf(&b, " Its bounding box spans %.3f x %.3f x %.3f units, centered at (%.3f, %.3f, %.3f).",
			bb.XMax-bb.XMin, bb.YMax-bb.YMin, bb.ZMax-bb.ZMin,
			bb.Center.X, bb.Center.Y, bb.Center.Z)
	} else {
		b.WriteString(" Its bounding box could not be determined.")
	}

	if v, err := shape.Volume(); err == nil {
		fmt.Fprintf(&b, " It encloses a volume of %.3f cubic units", v)
		if a, aerr := shape.Area(); aerr == nil {
			fmt.Fprintf(&b, " with a surface area of %.3f square units.", a)
		} else {
			b.WriteString(".")
		}
	} else if a, aerr := shape.Area(); aerr == nil {
		fmt.Fprintf(&b, " It has a surface area of %.3f square units.", a)
	}

	if c, err := shape.Center(); err == nil {
		fmt.Fprintf(&b, " Its center of mass lies at (%.3f, %.3f, %.3f).", c.X, c.Y, c.Z)
	}

	if topo, err := shape.Topology(); err == nil {
		fmt.Fprintf(&b, " It is bounded by %d faces, %d edges, and %d vertices.",
			topo.Faces, topo.Edges, topo.Vertices)
	}

	return b.String(), nil
}
