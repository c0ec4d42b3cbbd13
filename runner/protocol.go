package runner

// Envelope is the single JSON document the runner reads from stdin.
type Envelope struct {
	WorkspacePath string         `json:"workspace_path"`
	ScriptContent string         `json:"script_content"`
	Parameters    map[string]any `json:"parameters"`
	ResultID      string         `json:"result_id"`
}

// ShapeResult describes one published object in the runner output.
type ShapeResult struct {
	// Name is the stable name assigned at publish time, explicit or the
	// positional default.
	Name string `json:"name"`

	// Type reports whether the object is a single shape or an assembly.
	Type string `json:"type"`

	// IntermediatePath is the self-contained artifact file, empty when the
	// export failed.
	IntermediatePath string `json:"intermediate_path"`

	// ExportError records a per-object export failure. Other objects in
	// the same run are unaffected.
	ExportError string `json:"export_error,omitempty"`
}

// Output is the single JSON document the runner writes to stdout. Nothing
// else is ever written there; diagnostics go to stderr.
type Output struct {
	Success      bool          `json:"success"`
	Results      []ShapeResult `json:"results"`
	ExceptionStr string        `json:"exception_str,omitempty"`
}
