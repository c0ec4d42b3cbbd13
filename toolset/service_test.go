package toolset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/jonwraymond/cadexec/env"
	"github.com/jonwraymond/cadexec/gateway"
	"github.com/jonwraymond/cadexec/geometry/geomtest"
	"github.com/jonwraymond/cadexec/introspect"
	"github.com/jonwraymond/cadexec/parts"
	"github.com/jonwraymond/cadexec/runner"
	"github.com/jonwraymond/cadexec/store"
	"github.com/jonwraymond/cadexec/workspace"
)

// nopProvisioner satisfies env.Provisioner without touching a real runtime.
type nopProvisioner struct{}

func (nopProvisioner) Entrypoint(ws string) string {
	return filepath.Join(workspace.RuntimeDir(ws), "bin", "python")
}

func (nopProvisioner) CreateRuntime(ctx context.Context, ws string) error {
	entry := filepath.Join(workspace.RuntimeDir(ws), "bin", "python")
	if err := os.MkdirAll(filepath.Dir(entry), 0o755); err != nil {
		return err
	}
	return os.WriteFile(entry, []byte("#!/bin/sh\n"), 0o755)
}

func (nopProvisioner) InstallBase(ctx context.Context, ws, entrypoint string) error {
	return nil
}

func (nopProvisioner) InstallManifest(ctx context.Context, ws, entrypoint, manifest string) error {
	return nil
}

func (nopProvisioner) InstallPackage(ctx context.Context, ws, entrypoint, pkg string) error {
	return nil
}

// inprocInvoker runs the build loop in-process against the fake kernel,
// exercising the real wire protocol end to end.
type inprocInvoker struct {
	kernel *geomtest.Kernel
}

func (i *inprocInvoker) Invoke(ctx context.Context, entrypoint string, envl runner.Envelope) (runner.Output, error) {
	input, err := json.Marshal(envl)
	if err != nil {
		return runner.Output{}, err
	}
	var buf bytes.Buffer
	if err := runner.Run(ctx, bytes.NewReader(input), &buf, i.kernel, log.New(io.Discard)); err != nil {
		return runner.Output{}, err
	}
	var out runner.Output
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		return runner.Output{}, err
	}
	return out, nil
}

type harness struct {
	svc *Service
	ws  string
	lib string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := log.New(io.Discard)
	kernel := &geomtest.Kernel{}
	st := store.New(0)
	envMgr := env.NewManager(nopProvisioner{}, logger)

	gw, err := gateway.New(gateway.Config{
		Env:     envMgr,
		Invoker: &inprocInvoker{kernel: kernel},
		Store:   st,
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}

	disp, err := introspect.New(st, kernel, logger)
	if err != nil {
		t.Fatalf("introspect.New: %v", err)
	}

	lib := t.TempDir()
	library, err := parts.NewIndexer(parts.Config{
		LibraryDir: lib,
		PreviewDir: filepath.Join(lib, "part_previews"),
		Kernel:     kernel,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("parts.NewIndexer: %v", err)
	}

	svc, err := New(Config{
		Gateway:    gw,
		Env:        envMgr,
		Dispatcher: disp,
		Library:    library,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{svc: svc, ws: t.TempDir(), lib: lib}
}

func (h *harness) call(t *testing.T, name string, args map[string]any) any {
	t.Helper()
	value, err := h.svc.Call(context.Background(), name, args)
	if err != nil {
		t.Fatalf("Call(%s): %v", name, err)
	}
	return value
}

func TestCallExecuteScript(t *testing.T) {
	h := newHarness(t)

	value := h.call(t, ToolExecuteScript, map[string]any{
		"workspace_path": h.ws,
		"script":         "publish box\n",
		"request_id":     "req",
	})
	resp := value.(map[string]any)
	if resp["request_id"] != "req" {
		t.Errorf("request_id = %v", resp["request_id"])
	}
	summaries := resp["results"].([]gateway.SetSummary)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if !summaries[0].Success || summaries[0].ResultID != "req_0" {
		t.Errorf("summary = %+v", summaries[0])
	}
}

func TestCallExecuteScriptGeneratesRequestID(t *testing.T) {
	h := newHarness(t)

	value := h.call(t, ToolExecuteScript, map[string]any{
		"workspace_path": h.ws,
		"script":         "publish box\n",
	})
	resp := value.(map[string]any)
	if resp["request_id"] == "" {
		t.Error("request id should be generated")
	}
}

func TestCallExecuteScriptParametersShorthand(t *testing.T) {
	h := newHarness(t)

	value := h.call(t, ToolExecuteScript, map[string]any{
		"workspace_path": h.ws,
		"script":         "publish box\n",
		"request_id":     "req",
		"parameters":     map[string]any{"width": float64(9)},
	})
	summaries := value.(map[string]any)["results"].([]gateway.SetSummary)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if !summaries[0].Success || summaries[0].ResultID != "req_0" {
		t.Errorf("summary = %+v", summaries[0])
	}

	// parameter_sets wins when both are given.
	value = h.call(t, ToolExecuteScript, map[string]any{
		"workspace_path": h.ws,
		"script":         "publish box\n",
		"request_id":     "req2",
		"parameter_sets": []any{map[string]any{}, map[string]any{}},
		"parameters":     map[string]any{"width": float64(9)},
	})
	summaries = value.(map[string]any)["results"].([]gateway.SetSummary)
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
}

func TestCallExecuteThenExportAndIntrospect(t *testing.T) {
	h := newHarness(t)

	h.call(t, ToolExecuteScript, map[string]any{
		"workspace_path": h.ws,
		"script":         "publish bracket\n",
		"request_id":     "req",
	})

	value := h.call(t, ToolExportShape, map[string]any{
		"workspace_path": h.ws,
		"result_id":      "req_0",
		"filename":       "bracket.step",
	})
	path := value.(map[string]any)["path"].(string)
	if filepath.Dir(path) != workspace.OutputDir(h.ws) {
		t.Errorf("export landed in %q", path)
	}

	value = h.call(t, ToolExportPreview, map[string]any{
		"workspace_path": h.ws,
		"result_id":      "req_0",
	})
	preview := value.(map[string]any)["path"].(string)
	if filepath.Ext(preview) != ".svg" {
		t.Errorf("preview = %q", preview)
	}

	h.call(t, ToolGetProperties, map[string]any{"result_id": "req_0"})

	value = h.call(t, ToolGetDescription, map[string]any{"result_id": "req_0"})
	desc := value.(map[string]any)["description"].(string)
	if desc == "" {
		t.Error("empty description")
	}
}

func TestCallShapeIndexFromJSONNumber(t *testing.T) {
	h := newHarness(t)

	h.call(t, ToolExecuteScript, map[string]any{
		"workspace_path": h.ws,
		"script":         "publish a\npublish b\n",
		"request_id":     "req",
	})

	// JSON decoding hands integers to handlers as float64.
	h.call(t, ToolGetProperties, map[string]any{
		"result_id":   "req_0",
		"shape_index": float64(1),
	})
}

func TestCallLibraryTools(t *testing.T) {
	h := newHarness(t)
	script := `"""
Part: Bearing
Tags: bearing
"""
publish bearing
`
	if err := os.WriteFile(filepath.Join(h.lib, "bearing.py"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	value := h.call(t, ToolScanLibrary, nil)
	report := value.(parts.ScanReport)
	if report.Scanned != 1 || report.Indexed != 1 {
		t.Fatalf("report = %+v, want 1 scanned, 1 indexed", report)
	}

	value = h.call(t, ToolSearchParts, map[string]any{"query": "bearing"})
	resp := value.(map[string]any)
	if resp["count"].(int) != 1 {
		t.Errorf("count = %v", resp["count"])
	}
}

func TestCallSaveModule(t *testing.T) {
	h := newHarness(t)

	value := h.call(t, ToolSaveModule, map[string]any{
		"workspace_path":  h.ws,
		"module_filename": "helpers.py",
		"module_content":  "def helper(): pass\n",
	})
	path := value.(map[string]any)["path"].(string)
	if filepath.Dir(path) != workspace.ModulesDir(h.ws) {
		t.Errorf("module saved to %q", path)
	}
}

func TestCallSaveModuleEmptyContent(t *testing.T) {
	h := newHarness(t)

	value := h.call(t, ToolSaveModule, map[string]any{
		"workspace_path":  h.ws,
		"module_filename": "blank.py",
		"module_content":  "",
	})
	path := value.(map[string]any)["path"].(string)
	if data, err := os.ReadFile(path); err != nil || len(data) != 0 {
		t.Errorf("empty module: data = %q, err = %v", data, err)
	}

	// Absent content is still an error.
	_, err := h.svc.Call(context.Background(), ToolSaveModule, map[string]any{
		"workspace_path":  h.ws,
		"module_filename": "blank.py",
	})
	var callErr *CallError
	if !errors.As(err, &callErr) || callErr.Code != CodeInvalidArgument {
		t.Errorf("err = %v, want %s", err, CodeInvalidArgument)
	}
}

func TestCallInstallPackage(t *testing.T) {
	h := newHarness(t)

	value := h.call(t, ToolInstallPackage, map[string]any{
		"workspace_path": h.ws,
		"package":        "numpy",
	})
	if value.(map[string]any)["installed"] != "numpy" {
		t.Errorf("value = %v", value)
	}
}

func TestCallUnknownTool(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Call(context.Background(), "no_such_tool", nil)
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("err = %T, want *CallError", err)
	}
	if callErr.Code != CodeUnknownTool {
		t.Errorf("code = %q, want %q", callErr.Code, CodeUnknownTool)
	}
}

func TestCallErrorCodes(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		wantCode string
	}{
		{
			"missing required arg", ToolExecuteScript,
			map[string]any{"script": "x"}, CodeInvalidArgument,
		},
		{
			"bad workspace", ToolExecuteScript,
			map[string]any{"workspace_path": filepath.Join(h.ws, "nope"), "script": "x"}, CodeNotFound,
		},
		{
			"unknown result", ToolGetProperties,
			map[string]any{"result_id": "ghost"}, CodeNotFound,
		},
		{
			"bad module name", ToolSaveModule,
			map[string]any{"workspace_path": h.ws, "module_filename": "evil.txt", "module_content": "x"}, CodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Call(context.Background(), tt.tool, tt.args)
			var callErr *CallError
			if !errors.As(err, &callErr) {
				t.Fatalf("err = %T (%v), want *CallError", err, err)
			}
			if callErr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", callErr.Code, tt.wantCode)
			}
		})
	}
}

func TestCallIndexOutOfRangeCode(t *testing.T) {
	h := newHarness(t)

	h.call(t, ToolExecuteScript, map[string]any{
		"workspace_path": h.ws,
		"script":         "publish box\n",
		"request_id":     "req",
	})

	_, err := h.svc.Call(context.Background(), ToolGetProperties, map[string]any{
		"result_id":   "req_0",
		"shape_index": float64(5),
	})
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("err = %T, want *CallError", err)
	}
	if callErr.Code != CodeIndexOutOfRange {
		t.Errorf("code = %q, want %q", callErr.Code, CodeIndexOutOfRange)
	}
	if !errors.Is(err, store.ErrIndexOutOfRange) {
		t.Error("cause should remain reachable through errors.Is")
	}
}

func TestCallBuildFailedCode(t *testing.T) {
	h := newHarness(t)

	h.call(t, ToolExecuteScript, map[string]any{
		"workspace_path": h.ws,
		"script":         "build-error broke\n",
		"request_id":     "req",
	})

	_, err := h.svc.Call(context.Background(), ToolGetDescription, map[string]any{
		"result_id": "req_0",
	})
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("err = %T, want *CallError", err)
	}
	if callErr.Code != CodeBuildFailed {
		t.Errorf("code = %q, want %q", callErr.Code, CodeBuildFailed)
	}
}

func TestToolCatalogSearchable(t *testing.T) {
	h := newHarness(t)

	summaries, err := h.svc.SearchTools("export", 10)
	if err != nil {
		t.Fatalf("SearchTools: %v", err)
	}
	if len(summaries) == 0 {
		t.Fatal("catalog search returned nothing")
	}
}

func TestToolsListsFullCatalog(t *testing.T) {
	h := newHarness(t)

	names := h.svc.Tools()
	if len(names) != 9 {
		t.Fatalf("got %d tools, want 9: %v", len(names), names)
	}
}
