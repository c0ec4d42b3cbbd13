package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonwraymond/cadexec/geometry"
	"github.com/jonwraymond/cadexec/geometry/geomtest"
	"github.com/jonwraymond/cadexec/workspace"
)

func runEnvelope(t *testing.T, kernel geometry.Kernel, env Envelope) Output {
	t.Helper()
	input, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := Run(context.Background(), bytes.NewReader(input), &out, kernel, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var output Output
	if err := json.Unmarshal(out.Bytes(), &output); err != nil {
		t.Fatalf("Run() stdout is not a single JSON document: %v", err)
	}
	return output
}

func TestRun_PublishesArtifacts(t *testing.T) {
	ws := t.TempDir()
	out := runEnvelope(t, &geomtest.Kernel{}, Envelope{
		WorkspacePath: ws,
		ScriptContent: "publish box\npublish\nassembly frame",
		ResultID:      "req1_0",
	})

	if !out.Success {
		t.Fatalf("Success = false, exception: %s", out.ExceptionStr)
	}
	if len(out.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(out.Results))
	}

	// Explicit name, positional default, assembly kind.
	if out.Results[0].Name != "box" || out.Results[0].Type != "shape" {
		t.Errorf("Results[0] = %+v, want name box, type shape", out.Results[0])
	}
	if out.Results[1].Name != "shape_1" {
		t.Errorf("Results[1].Name = %q, want shape_1 (positional default)", out.Results[1].Name)
	}
	if out.Results[2].Type != "assembly" {
		t.Errorf("Results[2].Type = %q, want assembly", out.Results[2].Type)
	}

	// Each artifact lives under the result-id scoped directory and is
	// non-empty.
	for _, r := range out.Results {
		if r.IntermediatePath == "" {
			t.Errorf("Results[%s].IntermediatePath is empty", r.Name)
			continue
		}
		if filepath.Dir(r.IntermediatePath) != workspace.ResultDir(ws, "req1_0") {
			t.Errorf("artifact %q outside result dir", r.IntermediatePath)
		}
		info, err := os.Stat(r.IntermediatePath)
		if err != nil || info.Size() == 0 {
			t.Errorf("artifact %q missing or empty: %v", r.IntermediatePath, err)
		}
	}
}

func TestRun_ParameterSubstitution(t *testing.T) {
	ws := t.TempDir()
	kernel := &geomtest.Kernel{}
	script := "w = 1 # PARAM\npublish plate"

	out := runEnvelope(t, kernel, Envelope{
		WorkspacePath: ws,
		ScriptContent: script,
		Parameters:    map[string]any{"w": float64(9)},
		ResultID:      "req2_0",
	})
	if !out.Success || len(out.Results) != 1 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestRun_BuildError(t *testing.T) {
	out := runEnvelope(t, &geomtest.Kernel{}, Envelope{
		WorkspacePath: t.TempDir(),
		ScriptContent: "build-error fillet radius too large",
		ResultID:      "req3_0",
	})

	if out.Success {
		t.Fatal("Success = true, want false")
	}
	if out.ExceptionStr == "" {
		t.Error("ExceptionStr is empty, want failure detail")
	}
	if !strings.Contains(out.ExceptionStr, "fillet radius too large") {
		t.Errorf("ExceptionStr = %q, want script failure text", out.ExceptionStr)
	}
	if len(out.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0 on build failure", len(out.Results))
	}
}

func TestRun_SyntaxErrorDistinct(t *testing.T) {
	out := runEnvelope(t, &geomtest.Kernel{}, Envelope{
		WorkspacePath: t.TempDir(),
		ScriptContent: "syntax-error",
		ResultID:      "req4_0",
	})
	if out.Success {
		t.Fatal("Success = true, want false")
	}
	if !strings.Contains(out.ExceptionStr, "parse script") {
		t.Errorf("ExceptionStr = %q, want parse-phase failure", out.ExceptionStr)
	}
}

func TestRun_ExportFailureScopedToObject(t *testing.T) {
	out := runEnvelope(t, &geomtest.Kernel{}, Envelope{
		WorkspacePath: t.TempDir(),
		ScriptContent: "publish good\nexport-error bad\npublish other",
		ResultID:      "req5_0",
	})

	if !out.Success {
		t.Fatalf("Success = false: %s", out.ExceptionStr)
	}
	if len(out.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(out.Results))
	}
	if out.Results[0].ExportError != "" || out.Results[0].IntermediatePath == "" {
		t.Errorf("Results[0] should have exported cleanly: %+v", out.Results[0])
	}
	if out.Results[1].ExportError == "" || out.Results[1].IntermediatePath != "" {
		t.Errorf("Results[1] should carry a scoped export error: %+v", out.Results[1])
	}
	if out.Results[2].ExportError != "" || out.Results[2].IntermediatePath == "" {
		t.Errorf("Results[2] should be unaffected by Results[1] failure: %+v", out.Results[2])
	}
}

func TestRun_InvalidEnvelope(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
	}{
		{"missing result id", Envelope{WorkspacePath: t.TempDir(), ScriptContent: "publish x"}},
		{"missing script", Envelope{WorkspacePath: t.TempDir(), ResultID: "r_0"}},
		{"bad workspace", Envelope{WorkspacePath: "/does/not/exist", ScriptContent: "publish x", ResultID: "r_0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runEnvelope(t, &geomtest.Kernel{}, tt.env)
			if out.Success {
				t.Error("Success = true, want false")
			}
			if out.ExceptionStr == "" {
				t.Error("ExceptionStr is empty")
			}
		})
	}
}

func TestRun_EmptyStdin(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), strings.NewReader(""), &out, &geomtest.Kernel{}, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var output Output
	if err := json.Unmarshal(out.Bytes(), &output); err != nil {
		t.Fatal(err)
	}
	if output.Success {
		t.Error("Success = true for empty stdin")
	}
}
