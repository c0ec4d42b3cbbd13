// Package geometry defines the boundary between cadexec and the external
// geometry library that actually constructs, serializes, and measures CAD
// objects.
//
// cadexec orchestrates script execution, addressing, and cataloging; it never
// performs geometric math itself. Everything geometric flows through two
// interfaces:
//
//   - [Kernel]: parses scripts into executable programs (two-phase, so syntax
//     errors are distinguishable from build failures) and reloads
//     intermediate artifacts from disk.
//
//   - [Shape]: an opaque handle to one geometry object, able to export
//     itself, render a vector preview, and compute metrics independently.
//
// # Intermediate Artifacts
//
// The isolated script runner hands results back to the host as self-contained
// artifact files in [ArtifactFormat]. Any process holding a Kernel can reload
// those files later, which is what keeps multi-step workflows (execute,
// export, inspect) addressable across independent calls.
//
// # Implementations
//
// The production kernel is provided externally. [github.com/jonwraymond/cadexec/geometry/proc]
// adapts any kernel reachable as a subprocess helper; geomtest provides an
// in-memory fake for tests.
package geometry
