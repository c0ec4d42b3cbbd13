package toolset

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/cadexec/env"
	"github.com/jonwraymond/cadexec/geometry"
	"github.com/jonwraymond/cadexec/introspect"
	"github.com/jonwraymond/cadexec/param"
	"github.com/jonwraymond/cadexec/parts"
	"github.com/jonwraymond/cadexec/runner"
	"github.com/jonwraymond/cadexec/store"
	"github.com/jonwraymond/cadexec/workspace"
)

// Errors returned by the tool dispatch layer itself.
var (
	ErrUnknownTool     = errors.New("unknown tool")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Stable error codes surfaced to callers. Every failure maps to exactly
// one code via Code.
const (
	CodeNotFound        = "not_found"
	CodeBuildFailed     = "build_failed"
	CodeSetupFailed     = "setup_failed"
	CodeIndexOutOfRange = "index_out_of_range"
	CodeTimeout         = "timeout"
	CodeInvalidArgument = "invalid_argument"
	CodeExportFailed    = "export_failed"
	CodeUnknownTool     = "unknown_tool"
	CodeInternal        = "internal"
)

// Code classifies an error into its stable code. Unrecognized errors are
// internal.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownTool):
		return CodeUnknownTool
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, param.ErrUnsupportedType),
		errors.Is(err, env.ErrInvalidModule):
		return CodeInvalidArgument
	case errors.Is(err, workspace.ErrNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, introspect.ErrArtifactMissing),
		errors.Is(err, parts.ErrNoLibrary):
		return CodeNotFound
	case errors.Is(err, store.ErrIndexOutOfRange):
		return CodeIndexOutOfRange
	case errors.Is(err, store.ErrBuildFailed):
		return CodeBuildFailed
	case errors.Is(err, env.ErrSetupFailed):
		return CodeSetupFailed
	case errors.Is(err, runner.ErrTimeout):
		return CodeTimeout
	case errors.Is(err, geometry.ErrExport),
		errors.Is(err, geometry.ErrImport):
		return CodeExportFailed
	default:
		return CodeInternal
	}
}

// CallError carries a classified tool failure.
type CallError struct {
	Tool string
	Code string
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Tool, e.Code, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// newCallError classifies err for the named tool.
func newCallError(tool string, err error) *CallError {
	return &CallError{Tool: tool, Code: Code(err), Err: err}
}
