package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jonwraymond/cadexec/runner"
)

func successOutput(shapes int) runner.Output {
	out := runner.Output{Success: true}
	for i := 0; i < shapes; i++ {
		out.Results = append(out.Results, runner.ShapeResult{
			Name:             fmt.Sprintf("shape_%d", i),
			Type:             "shape",
			IntermediatePath: fmt.Sprintf("/ws/.cad_results/r_0/shape_%d.brep", i),
		})
	}
	return out
}

func TestResolve_Addressing(t *testing.T) {
	s := New(0)
	s.Put("req_0", successOutput(3))

	// Every index inside [0, k) resolves; k is out of range.
	for i := 0; i < 3; i++ {
		ref, err := s.Resolve("req_0", i)
		if err != nil {
			t.Fatalf("Resolve(req_0, %d) error = %v", i, err)
		}
		if ref.Name != fmt.Sprintf("shape_%d", i) {
			t.Errorf("Resolve(req_0, %d).Name = %q", i, ref.Name)
		}
	}
	if _, err := s.Resolve("req_0", 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Resolve(req_0, 3) error = %v, want ErrIndexOutOfRange", err)
	}
	if _, err := s.Resolve("req_0", -1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Resolve(req_0, -1) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestResolve_UnknownID(t *testing.T) {
	s := New(0)
	if _, err := s.Resolve("nope", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestResolve_FailedBuild(t *testing.T) {
	s := New(0)
	s.Put("bad_0", runner.Output{Success: false, ExceptionStr: "boom"})

	_, err := s.Resolve("bad_0", 0)
	if !errors.Is(err, ErrBuildFailed) {
		t.Errorf("Resolve() error = %v, want ErrBuildFailed", err)
	}
}

func TestPut_ReplacesVerbatim(t *testing.T) {
	s := New(0)
	s.Put("r_0", successOutput(1))
	s.Put("r_0", successOutput(2))

	out, err := s.Get("r_0")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 2 {
		t.Errorf("replacement not stored: %d shapes", len(out.Results))
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestRemove(t *testing.T) {
	s := New(0)
	s.Put("r_0", successOutput(1))
	s.Remove("r_0")
	s.Remove("never-existed")

	if _, err := s.Get("r_0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Remove() error = %v, want ErrNotFound", err)
	}
}

func TestEviction_OldestFirst(t *testing.T) {
	s := New(2)
	s.Put("a_0", successOutput(1))
	s.Put("b_0", successOutput(1))
	s.Put("c_0", successOutput(1))

	if _, err := s.Get("a_0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest entry should be evicted, Get(a_0) error = %v", err)
	}
	if _, err := s.Get("b_0"); err != nil {
		t.Errorf("Get(b_0) error = %v", err)
	}
	if _, err := s.Get("c_0"); err != nil {
		t.Errorf("Get(c_0) error = %v", err)
	}
}
