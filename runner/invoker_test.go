package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"
)

// TestRunnerHelper is not a real test. It is re-executed as the runner
// subprocess by the Subprocess invoker tests, with the behavior selected
// through GO_RUNNER_HELPER_MODE.
func TestRunnerHelper(t *testing.T) {
	mode := os.Getenv("GO_RUNNER_HELPER_MODE")
	if mode == "" {
		t.Skip("helper process only")
	}
	defer os.Exit(0)

	switch mode {
	case "ok":
		data, _ := io.ReadAll(os.Stdin)
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			fmt.Fprintln(os.Stderr, "bad envelope:", err)
			os.Exit(1)
		}
		out := Output{
			Success: true,
			Results: []ShapeResult{{Name: "echo_" + env.ResultID, Type: "shape", IntermediatePath: "/tmp/none"}},
		}
		_ = json.NewEncoder(os.Stdout).Encode(out)
	case "crash":
		fmt.Fprintln(os.Stderr, "runtime exploded: missing kernel")
		os.Exit(3)
	case "garbage":
		fmt.Fprintln(os.Stdout, "this is not a protocol document")
	case "hang":
		time.Sleep(30 * time.Second)
	}
}

func helperInvoker(t *testing.T, mode string, timeout time.Duration) *Subprocess {
	t.Helper()
	t.Setenv("GO_RUNNER_HELPER_MODE", mode)
	return &Subprocess{
		Args:    []string{"-test.run=TestRunnerHelper"},
		Timeout: timeout,
	}
}

func TestSubprocess_Invoke(t *testing.T) {
	inv := helperInvoker(t, "ok", 0)
	out, err := inv.Invoke(context.Background(), os.Args[0], Envelope{
		WorkspacePath: t.TempDir(),
		ScriptContent: "publish box",
		ResultID:      "r_0",
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !out.Success || len(out.Results) != 1 || out.Results[0].Name != "echo_r_0" {
		t.Errorf("Invoke() output = %+v", out)
	}
}

func TestSubprocess_NonZeroExit(t *testing.T) {
	inv := helperInvoker(t, "crash", 0)
	_, err := inv.Invoke(context.Background(), os.Args[0], Envelope{
		WorkspacePath: t.TempDir(),
		ResultID:      "r_0",
	})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Invoke() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("ExitError.Code = %d, want 3", exitErr.Code)
	}
	if exitErr.Stderr == "" {
		t.Error("ExitError.Stderr is empty, want captured diagnostics")
	}
}

func TestSubprocess_ProtocolError(t *testing.T) {
	inv := helperInvoker(t, "garbage", 0)
	_, err := inv.Invoke(context.Background(), os.Args[0], Envelope{
		WorkspacePath: t.TempDir(),
		ResultID:      "r_0",
	})
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("Invoke() error = %v, want ErrProtocol", err)
	}
}

func TestSubprocess_Timeout(t *testing.T) {
	inv := helperInvoker(t, "hang", 200*time.Millisecond)
	start := time.Now()
	_, err := inv.Invoke(context.Background(), os.Args[0], Envelope{
		WorkspacePath: t.TempDir(),
		ResultID:      "r_0",
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Invoke() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Invoke() took %v, subprocess was not killed", elapsed)
	}
}
