package proc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/cadexec/geometry"
)

// Client implements geometry.Kernel over a bridge connection. Each call
// becomes one request; geometry stays resident on the bridge side and is
// referenced by handle.
//
// Contract:
//   - Concurrency: safe for concurrent use; requests are correlated by id, so
//     calls may interleave freely.
//   - Errors: bridge-side geometry failures come back matching the geometry
//     sentinels; transport failures match ErrClosed or ErrProtocol.
type Client struct {
	r io.Reader
	w io.WriteCloser

	writeMu sync.Mutex
	enc     *json.Encoder

	requestID atomic.Uint64
	pending   sync.Map // map[string]chan Response
	closed    atomic.Bool
	done      chan struct{}

	cmd *exec.Cmd
}

var _ geometry.Kernel = (*Client)(nil)

// NewClient wraps an established bridge connection. The reader is consumed
// by a background goroutine until it is exhausted or Close is called.
func NewClient(r io.Reader, w io.WriteCloser) *Client {
	c := &Client{r: r, w: w, enc: json.NewEncoder(w), done: make(chan struct{})}
	go c.readLoop()
	return c
}

// StartCommand spawns a bridge subprocess and connects a Client to its
// stdio. The subprocess's stderr passes through for diagnostics. Close
// terminates the subprocess by closing its stdin and waiting.
func StartCommand(ctx context.Context, entrypoint string, args ...string) (*Client, error) {
	cmd := exec.CommandContext(ctx, entrypoint, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start bridge: %w", err)
	}

	c := NewClient(stdout, stdin)
	c.cmd = cmd
	return c, nil
}

// Close shuts the connection down and fails all pending requests.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.w.Close()
	if c.cmd != nil {
		if waitErr := c.cmd.Wait(); err == nil {
			err = waitErr
		}
	}
	return err
}

func (c *Client) readLoop() {
	defer close(c.done)
	dec := json.NewDecoder(c.r)
	for {
		var resp Response
		if err := dec.Decode(&resp); err != nil {
			c.closed.Store(true)
			return
		}
		if ch, ok := c.pending.Load(resp.ID); ok {
			select {
			case ch.(chan Response) <- resp:
			default:
			}
		}
	}
}

func (c *Client) request(ctx context.Context, op string, payload map[string]any) (map[string]any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	id := fmt.Sprintf("%d", c.requestID.Add(1))
	respCh := make(chan Response, 1)
	c.pending.Store(id, respCh)
	defer c.pending.Delete(id)

	c.writeMu.Lock()
	err := c.enc.Encode(Request{ID: id, Op: op, Payload: payload})
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: send %s: %v", ErrClosed, op, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("%w: bridge exited during %s", ErrClosed, op)
	case resp := <-respCh:
		if !resp.OK {
			return nil, errorOf(resp.Kind, resp.Error)
		}
		return resp.Payload, nil
	}
}

// Parse compiles a script on the bridge and returns a handle-backed
// program.
func (c *Client) Parse(script string) (geometry.Program, error) {
	payload, err := c.request(context.Background(), OpParse, map[string]any{"script": script})
	if err != nil {
		return nil, err
	}
	handle, _ := payload["program"].(string)
	if handle == "" {
		return nil, fmt.Errorf("%w: parse returned no program handle", ErrProtocol)
	}
	return &program{client: c, handle: handle}, nil
}

// Import loads an intermediate artifact on the bridge.
func (c *Client) Import(path string) (geometry.Shape, error) {
	payload, err := c.request(context.Background(), OpImport, map[string]any{"path": path})
	if err != nil {
		return nil, err
	}
	return c.shapeFromPayload(payload)
}

func (c *Client) shapeFromPayload(payload map[string]any) (geometry.Shape, error) {
	handle, _ := payload["shape"].(string)
	if handle == "" {
		return nil, fmt.Errorf("%w: missing shape handle", ErrProtocol)
	}
	kind, _ := payload["kind"].(string)
	return &shape{client: c, handle: handle, kind: geometry.Kind(kind)}, nil
}

type program struct {
	client *Client
	handle string
}

func (p *program) Build(ctx context.Context, opts geometry.BuildOptions) ([]geometry.Published, error) {
	payload := map[string]any{"program": p.handle}
	if len(opts.SearchPath) > 0 {
		dirs := make([]any, len(opts.SearchPath))
		for i, dir := range opts.SearchPath {
			dirs[i] = dir
		}
		payload["search_path"] = dirs
	}

	resp, err := p.client.request(ctx, OpBuild, payload)
	if err != nil {
		return nil, err
	}

	raw, _ := resp["published"].([]any)
	published := make([]geometry.Published, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: malformed published entry", ErrProtocol)
		}
		sh, err := p.client.shapeFromPayload(m)
		if err != nil {
			return nil, err
		}
		name, _ := m["name"].(string)
		published = append(published, geometry.Published{Name: name, Shape: sh})
	}
	return published, nil
}

type shape struct {
	client *Client
	handle string
	kind   geometry.Kind
}

func (s *shape) Kind() geometry.Kind { return s.kind }

func (s *shape) Export(path, format string, opts map[string]any) error {
	payload := map[string]any{"shape": s.handle, "path": path, "format": format}
	if len(opts) > 0 {
		payload["options"] = opts
	}
	_, err := s.client.request(context.Background(), OpExport, payload)
	return err
}

func (s *shape) RenderSVG(path string, opts map[string]any) error {
	payload := map[string]any{"shape": s.handle, "path": path}
	if len(opts) > 0 {
		payload["options"] = opts
	}
	_, err := s.client.request(context.Background(), OpRender, payload)
	return err
}

func (s *shape) BoundingBox() (geometry.BoundingBox, error) {
	payload, err := s.client.request(context.Background(), OpBounds, map[string]any{"shape": s.handle})
	if err != nil {
		return geometry.BoundingBox{}, err
	}
	raw, err := json.Marshal(payload["bounds"])
	if err != nil {
		return geometry.BoundingBox{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	var bb geometry.BoundingBox
	if err := json.Unmarshal(raw, &bb); err != nil {
		return geometry.BoundingBox{}, fmt.Errorf("%w: decode bounds: %v", ErrProtocol, err)
	}
	return bb, nil
}

func (s *shape) Volume() (float64, error) { return s.metricValue(OpVolume) }

func (s *shape) Area() (float64, error) { return s.metricValue(OpArea) }

func (s *shape) metricValue(op string) (float64, error) {
	payload, err := s.client.request(context.Background(), op, map[string]any{"shape": s.handle})
	if err != nil {
		return 0, err
	}
	v, ok := payload["value"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s returned no value", ErrProtocol, op)
	}
	return v, nil
}

func (s *shape) Center() (geometry.Point, error) {
	payload, err := s.client.request(context.Background(), OpCenter, map[string]any{"shape": s.handle})
	if err != nil {
		return geometry.Point{}, err
	}
	x, _ := payload["x"].(float64)
	y, _ := payload["y"].(float64)
	z, _ := payload["z"].(float64)
	return geometry.Point{X: x, Y: y, Z: z}, nil
}

func (s *shape) Topology() (geometry.Topology, error) {
	payload, err := s.client.request(context.Background(), OpTopology, map[string]any{"shape": s.handle})
	if err != nil {
		return geometry.Topology{}, err
	}
	count := func(key string) int {
		v, _ := payload[key].(float64)
		return int(v)
	}
	return geometry.Topology{
		Faces:    count("faces"),
		Edges:    count("edges"),
		Vertices: count("vertices"),
	}, nil
}
