package proc

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/cadexec/geometry"
)

// Errors for bridge transport failures.
var (
	ErrClosed   = errors.New("bridge closed")
	ErrProtocol = errors.New("bridge protocol error")
)

// Operations understood by the bridge.
const (
	OpParse    = "parse"
	OpBuild    = "build"
	OpImport   = "import"
	OpExport   = "export"
	OpRender   = "render"
	OpBounds   = "bounds"
	OpVolume   = "volume"
	OpArea     = "area"
	OpCenter   = "center"
	OpTopology = "topology"
)

// Error kinds carried in failure responses, mapped back to geometry
// sentinels on the client side.
const (
	KindSyntax      = "syntax"
	KindBuild       = "build"
	KindImport      = "import"
	KindExport      = "export"
	KindUnsupported = "unsupported"
)

// Request is one bridge call. Payload fields depend on Op.
type Request struct {
	ID      string         `json:"id"`
	Op      string         `json:"op"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Response answers one Request by ID.
type Response struct {
	ID      string         `json:"id"`
	OK      bool           `json:"ok"`
	Error   string         `json:"error,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// kindOf classifies a geometry error for the wire.
func kindOf(err error) string {
	switch {
	case errors.Is(err, geometry.ErrSyntax):
		return KindSyntax
	case errors.Is(err, geometry.ErrBuild):
		return KindBuild
	case errors.Is(err, geometry.ErrImport):
		return KindImport
	case errors.Is(err, geometry.ErrExport):
		return KindExport
	case errors.Is(err, geometry.ErrUnsupported):
		return KindUnsupported
	default:
		return ""
	}
}

// errorOf reverses kindOf, restoring the sentinel wrapping.
func errorOf(kind, msg string) error {
	switch kind {
	case KindSyntax:
		return fmt.Errorf("%w: %s", geometry.ErrSyntax, msg)
	case KindBuild:
		return fmt.Errorf("%w: %s", geometry.ErrBuild, msg)
	case KindImport:
		return fmt.Errorf("%w: %s", geometry.ErrImport, msg)
	case KindExport:
		return fmt.Errorf("%w: %s", geometry.ErrExport, msg)
	case KindUnsupported:
		return fmt.Errorf("%w: %s", geometry.ErrUnsupported, msg)
	default:
		return errors.New(msg)
	}
}
