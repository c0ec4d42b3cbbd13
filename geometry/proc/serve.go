package proc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/jonwraymond/cadexec/geometry"
)

// Serve runs the bridge side of the protocol: it reads newline-delimited
// requests from r, applies them to the kernel, and writes one response per
// request to w. It returns when r is exhausted, the context is canceled,
// or a write fails.
//
// Programs and shapes are held by handle for the lifetime of the serve
// loop; handles are not valid across restarts.
func Serve(ctx context.Context, r io.Reader, w io.Writer, kernel geometry.Kernel) error {
	srv := &server{kernel: kernel, shapes: map[string]geometry.Shape{}, programs: map[string]geometry.Program{}}

	enc := json.NewEncoder(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			return fmt.Errorf("%w: decode request: %v", ErrProtocol, err)
		}
		if err := enc.Encode(srv.handle(ctx, req)); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

type server struct {
	kernel geometry.Kernel

	mu       sync.Mutex
	next     int
	shapes   map[string]geometry.Shape
	programs map[string]geometry.Program
}

func (s *server) newHandle(prefix string) string {
	s.next++
	return fmt.Sprintf("%s%d", prefix, s.next)
}

func (s *server) handle(ctx context.Context, req Request) Response {
	payload, err := s.dispatch(ctx, req)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error(), Kind: kindOf(err)}
	}
	return Response{ID: req.ID, OK: true, Payload: payload}
}

func (s *server) dispatch(ctx context.Context, req Request) (map[string]any, error) {
	switch req.Op {
	case OpParse:
		return s.parse(req)
	case OpBuild:
		return s.build(ctx, req)
	case OpImport:
		return s.importShape(req)
	case OpExport:
		return s.export(req)
	case OpRender:
		return s.render(req)
	case OpBounds, OpVolume, OpArea, OpCenter, OpTopology:
		return s.metric(req)
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrProtocol, req.Op)
	}
}

func (s *server) parse(req Request) (map[string]any, error) {
	script, _ := req.Payload["script"].(string)
	program, err := s.kernel.Parse(script)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	handle := s.newHandle("p")
	s.programs[handle] = program
	s.mu.Unlock()
	return map[string]any{"program": handle}, nil
}

func (s *server) build(ctx context.Context, req Request) (map[string]any, error) {
	handle, _ := req.Payload["program"].(string)
	s.mu.Lock()
	program, ok := s.programs[handle]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown program %q", ErrProtocol, handle)
	}

	var searchPath []string
	if raw, ok := req.Payload["search_path"].([]any); ok {
		for _, entry := range raw {
			if dir, ok := entry.(string); ok {
				searchPath = append(searchPath, dir)
			}
		}
	}

	published, err := program.Build(ctx, geometry.BuildOptions{SearchPath: searchPath})
	if err != nil {
		return nil, err
	}

	out := make([]any, len(published))
	s.mu.Lock()
	for i, pub := range published {
		shapeHandle := s.newHandle("s")
		s.shapes[shapeHandle] = pub.Shape
		out[i] = map[string]any{
			"name":  pub.Name,
			"kind":  string(pub.Shape.Kind()),
			"shape": shapeHandle,
		}
	}
	s.mu.Unlock()
	return map[string]any{"published": out}, nil
}

func (s *server) importShape(req Request) (map[string]any, error) {
	path, _ := req.Payload["path"].(string)
	shape, err := s.kernel.Import(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	handle := s.newHandle("s")
	s.shapes[handle] = shape
	s.mu.Unlock()
	return map[string]any{"shape": handle, "kind": string(shape.Kind())}, nil
}

func (s *server) shape(req Request) (geometry.Shape, error) {
	handle, _ := req.Payload["shape"].(string)
	s.mu.Lock()
	shape, ok := s.shapes[handle]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown shape %q", ErrProtocol, handle)
	}
	return shape, nil
}

func (s *server) export(req Request) (map[string]any, error) {
	shape, err := s.shape(req)
	if err != nil {
		return nil, err
	}
	path, _ := req.Payload["path"].(string)
	format, _ := req.Payload["format"].(string)
	opts, _ := req.Payload["options"].(map[string]any)
	if err := shape.Export(path, format, opts); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *server) render(req Request) (map[string]any, error) {
	shape, err := s.shape(req)
	if err != nil {
		return nil, err
	}
	path, _ := req.Payload["path"].(string)
	opts, _ := req.Payload["options"].(map[string]any)
	if err := shape.RenderSVG(path, opts); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *server) metric(req Request) (map[string]any, error) {
	shape, err := s.shape(req)
	if err != nil {
		return nil, err
	}
	switch req.Op {
	case OpBounds:
		bb, err := shape.BoundingBox()
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(bb)
		if err != nil {
			return nil, err
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return map[string]any{"bounds": m}, nil
	case OpVolume:
		v, err := shape.Volume()
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": v}, nil
	case OpArea:
		a, err := shape.Area()
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": a}, nil
	case OpCenter:
		c, err := shape.Center()
		if err != nil {
			return nil, err
		}
		return map[string]any{"x": c.X, "y": c.Y, "z": c.Z}, nil
	case OpTopology:
		topo, err := shape.Topology()
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"faces":    topo.Faces,
			"edges":    topo.Edges,
			"vertices": topo.Vertices,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown metric %q", ErrProtocol, req.Op)
}
