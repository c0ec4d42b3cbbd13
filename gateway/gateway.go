package gateway

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jonwraymond/cadexec/env"
	"github.com/jonwraymond/cadexec/runner"
	"github.com/jonwraymond/cadexec/store"
)

// Request is one script-execution request: script text plus one or more
// parameter sets against a single workspace.
type Request struct {
	// RequestID correlates the request; result ids are derived from it.
	// Empty means a fresh id is generated.
	RequestID string

	// WorkspacePath is the workspace the script runs against.
	WorkspacePath string

	// Script is the construction script text.
	Script string

	// ParameterSets lists the parameter sets to build, one isolated runner
	// invocation each. Empty means a single build with no parameters.
	ParameterSets []map[string]any
}

// SetSummary reports the outcome for one parameter set.
type SetSummary struct {
	ResultID   string `json:"result_id"`
	Success    bool   `json:"success"`
	ShapeCount int    `json:"shapes_count"`
	Error      string `json:"error,omitempty"`
}

// Config wires a Gateway.
type Config struct {
	// Env ensures workspace runtimes. Required.
	Env *env.Manager

	// Invoker runs one isolated build per parameter set. Required.
	Invoker runner.Invoker

	// Store records one result per parameter set. Required.
	Store *store.Store

	// Logger is optional; defaults to a stderr logger.
	Logger *log.Logger
}

func (c *Config) validate() error {
	if c.Env == nil {
		return fmt.Errorf("gateway: Env is required")
	}
	if c.Invoker == nil {
		return fmt.Errorf("gateway: Invoker is required")
	}
	if c.Store == nil {
		return fmt.Errorf("gateway: Store is required")
	}
	return nil
}

// Gateway drives N isolated runner invocations for one request and records
// their outcomes at deterministically derivable result ids.
type Gateway struct {
	env     *env.Manager
	invoker runner.Invoker
	store   *store.Store
	logger  *log.Logger
}

// New creates a Gateway from the config.
func New(cfg Config) (*Gateway, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "gateway"})
	}
	return &Gateway{env: cfg.Env, invoker: cfg.Invoker, store: cfg.Store, logger: logger}, nil
}

// ResultID derives the addressable id for one parameter set of a request.
func ResultID(requestID string, setIndex int) string {
	return fmt.Sprintf("%s_%d", requestID, setIndex)
}

// Execute runs the request: it ensures the workspace runtime once, then
// invokes the runner for each parameter set in order. A failure while
// invoking set i is scoped to set i; subsequent sets still run. Exactly one
// result is recorded per parameter set; invocation failures are
// synthesized into failed results rather than dropped.
//
// The returned error is non-nil only when the request as a whole could not
// start (bad workspace, runtime setup failure).
func (g *Gateway) Execute(ctx context.Context, req Request) ([]SetSummary, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	sets := req.ParameterSets
	if len(sets) == 0 {
		sets = []map[string]any{{}}
	}

	logger := g.logger.With("request_id", requestID)
	logger.Info("executing script", "workspace", req.WorkspacePath, "sets", len(sets))

	entrypoint, err := g.env.Ensure(ctx, req.WorkspacePath)
	if err != nil {
		return nil, err
	}

	summaries := make([]SetSummary, 0, len(sets))
	for i, params := range sets {
		resultID := ResultID(requestID, i)
		out, err := g.invoker.Invoke(ctx, entrypoint, runner.Envelope{
			WorkspacePath: req.WorkspacePath,
			ScriptContent: req.Script,
			Parameters:    params,
			ResultID:      resultID,
		})
		if err != nil {
			// Scoped to this set; synthesize a failed result so the id
			// still resolves.
			logger.Error("runner invocation failed", "result_id", resultID, "err", err)
			out = runner.Output{Success: false, Results: []runner.ShapeResult{}, ExceptionStr: err.Error()}
		}

		g.store.Put(resultID, out)
		summaries = append(summaries, SetSummary{
			ResultID:   resultID,
			Success:    out.Success,
			ShapeCount: len(out.Results),
			Error:      out.ExceptionStr,
		})
		logger.Info("recorded result", "result_id", resultID, "success", out.Success, "shapes", len(out.Results))
	}
	return summaries, nil
}
