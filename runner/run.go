package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/jonwraymond/cadexec/geometry"
	"github.com/jonwraymond/cadexec/param"
	"github.com/jonwraymond/cadexec/workspace"
)

// Run executes the runner side of the protocol: it reads one Envelope from
// in, builds the script through the kernel, exports every published object
// to an intermediate artifact, and writes exactly one Output document to
// out. Failures become data in the Output; the returned error is non-nil
// only when the output document itself could not be written.
//
// Diagnostics go to logger (stderr in the subprocess), which is never
// parsed by the host.
func Run(ctx context.Context, in io.Reader, out io.Writer, kernel geometry.Kernel, logger *log.Logger) error {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "runner"})
	}

	output := run(ctx, in, kernel, logger)

	enc := json.NewEncoder(out)
	if err := enc.Encode(output); err != nil {
		return fmt.Errorf("write output document: %w", err)
	}
	return nil
}

func run(ctx context.Context, in io.Reader, kernel geometry.Kernel, logger *log.Logger) Output {
	fail := func(err error) Output {
		logger.Error("run failed", "err", err)
		return Output{Success: false, Results: []ShapeResult{}, ExceptionStr: err.Error()}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fail(fmt.Errorf("read stdin: %w", err))
	}
	if len(data) == 0 {
		return fail(fmt.Errorf("no input data received on stdin"))
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fail(fmt.Errorf("decode input envelope: %w", err))
	}
	if env.ResultID == "" {
		return fail(fmt.Errorf("missing result_id in input"))
	}
	if env.ScriptContent == "" {
		return fail(fmt.Errorf("missing script_content in input"))
	}
	ws, err := workspace.Resolve(env.WorkspacePath)
	if err != nil {
		return fail(fmt.Errorf("invalid workspace_path: %w", err))
	}

	logger.Info("runner started", "workspace", ws, "result_id", env.ResultID)

	// Workspace local modules take priority over the workspace root.
	searchPath := []string{}
	if modules := workspace.ModulesDir(ws); dirExists(modules) {
		searchPath = append(searchPath, modules)
	}
	searchPath = append(searchPath, ws)

	params, err := param.SetFromJSON(env.Parameters)
	if err != nil {
		return fail(err)
	}
	lines := param.Substitute(strings.Split(env.ScriptContent, "\n"), params)
	script := strings.Join(lines, "\n")

	// Two phases so a syntax error is reported distinctly from a build
	// failure.
	program, err := kernel.Parse(script)
	if err != nil {
		return fail(fmt.Errorf("parse script: %w", err))
	}
	published, err := program.Build(ctx, geometry.BuildOptions{SearchPath: searchPath})
	if err != nil {
		return fail(fmt.Errorf("build script: %w", err))
	}

	output := Output{Success: true, Results: []ShapeResult{}}
	if len(published) == 0 {
		logger.Warn("script published no objects")
		return output
	}

	resultDir := workspace.ResultDir(ws, env.ResultID)
	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		return fail(fmt.Errorf("create results directory: %w", err))
	}

	for i, pub := range published {
		name := pub.Name
		if name == "" {
			name = fmt.Sprintf("shape_%d", i)
		}
		result := ShapeResult{Name: name, Type: string(pub.Shape.Kind())}

		artifact := filepath.Join(resultDir, name+geometry.ArtifactExt)
		if err := pub.Shape.Export(artifact, geometry.ArtifactFormat, nil); err != nil {
			// Scoped to this object; the others still export.
			logger.Error("artifact export failed", "name", name, "err", err)
			result.ExportError = err.Error()
		} else {
			result.IntermediatePath = artifact
			logger.Info("exported artifact", "name", name, "path", artifact)
		}
		output.Results = append(output.Results, result)
	}
	return output
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
