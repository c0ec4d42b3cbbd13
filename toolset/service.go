package toolset

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/search"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"

	"github.com/jonwraymond/cadexec/env"
	"github.com/jonwraymond/cadexec/gateway"
	"github.com/jonwraymond/cadexec/introspect"
	"github.com/jonwraymond/cadexec/parts"
)

// Handler is the function signature for tool handlers.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Config wires the Service to the subsystems it dispatches into.
type Config struct {
	// Gateway executes construction scripts. Required.
	Gateway *gateway.Gateway

	// Env manages workspace runtimes. Required.
	Env *env.Manager

	// Dispatcher performs export and introspection. Required.
	Dispatcher *introspect.Dispatcher

	// Library indexes and searches part scripts. Required.
	Library *parts.Indexer

	// Logger is optional; nil defaults to a stderr logger.
	Logger *log.Logger
}

func (c *Config) validate() error {
	if c.Gateway == nil {
		return fmt.Errorf("toolset: gateway is required")
	}
	if c.Env == nil {
		return fmt.Errorf("toolset: env manager is required")
	}
	if c.Dispatcher == nil {
		return fmt.Errorf("toolset: dispatcher is required")
	}
	if c.Library == nil {
		return fmt.Errorf("toolset: part library is required")
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "toolset"})
	}
	return nil
}

// Service is the tool-facing facade. It registers the tool catalog in a
// discovery index with a documentation store and dispatches calls by tool
// name.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: every failure from Call is a *CallError carrying a stable
//     code; the underlying cause remains reachable through errors.Is.
type Service struct {
	cfg      Config
	index    index.Index
	docs     tooldoc.Store
	handlers map[string]Handler
}

// New creates a Service and registers the full tool catalog.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	idx := index.NewInMemoryIndex(index.IndexOptions{
		Searcher: search.NewBM25Searcher(search.BM25Config{}),
	})
	docs := tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: idx})

	s := &Service{cfg: cfg, index: idx, docs: docs}
	s.handlers = map[string]Handler{
		ToolExecuteScript:  s.executeScript,
		ToolExportShape:    s.exportShape,
		ToolExportPreview:  s.exportPreview,
		ToolGetProperties:  s.getProperties,
		ToolGetDescription: s.getDescription,
		ToolScanLibrary:    s.scanLibrary,
		ToolSearchParts:    s.searchParts,
		ToolSaveModule:     s.saveModule,
		ToolInstallPackage: s.installPackage,
	}

	for _, def := range definitions() {
		name := def.tool.Tool.Name
		if _, ok := s.handlers[name]; !ok {
			return nil, fmt.Errorf("toolset: tool %q has no handler", name)
		}
		if err := idx.RegisterTool(def.tool, model.NewLocalBackend(name)); err != nil {
			return nil, fmt.Errorf("toolset: register %q: %w", name, err)
		}
		toolID := Namespace + ":" + name
		if err := docs.RegisterDoc(toolID, def.doc); err != nil {
			return nil, fmt.Errorf("toolset: register docs for %q: %w", name, err)
		}
	}
	return s, nil
}

// Index returns the discovery index holding the tool catalog.
func (s *Service) Index() index.Index { return s.index }

// SearchTools finds catalog tools matching a query.
func (s *Service) SearchTools(query string, limit int) ([]index.Summary, error) {
	return s.index.Search(query, limit)
}

// DescribeTool retrieves catalog documentation for one tool id.
func (s *Service) DescribeTool(toolID string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	return s.docs.DescribeTool(toolID, level)
}

// Tools lists the registered tool names.
func (s *Service) Tools() []string {
	names := make([]string, 0, len(s.handlers))
	for _, def := range definitions() {
		names = append(names, def.tool.Tool.Name)
	}
	return names
}

// Call dispatches one tool invocation by bare tool name.
func (s *Service) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	handler, ok := s.handlers[name]
	if !ok {
		return nil, newCallError(name, fmt.Errorf("%w: %q", ErrUnknownTool, name))
	}

	logger := s.cfg.Logger.With("tool", name)
	logger.Debug("dispatching tool call")

	value, err := handler(ctx, args)
	if err != nil {
		callErr := newCallError(name, err)
		logger.Error("tool call failed", "code", callErr.Code, "err", err)
		return nil, callErr
	}
	return value, nil
}

func (s *Service) executeScript(ctx context.Context, args map[string]any) (any, error) {
	wsPath, err := stringArg(args, "workspace_path", true)
	if err != nil {
		return nil, err
	}
	script, err := stringArg(args, "script", true)
	if err != nil {
		return nil, err
	}
	requestID, err := stringArg(args, "request_id", false)
	if err != nil {
		return nil, err
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	sets, err := parameterSetsArg(args, "parameter_sets")
	if err != nil {
		return nil, err
	}
	if sets == nil {
		// Single-set shorthand: "parameters" is one parameter map.
		single, err := mapArg(args, "parameters")
		if err != nil {
			return nil, err
		}
		if single != nil {
			sets = []map[string]any{single}
		}
	}

	summaries, err := s.cfg.Gateway.Execute(ctx, gateway.Request{
		RequestID:     requestID,
		WorkspacePath: wsPath,
		Script:        script,
		ParameterSets: sets,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"request_id": requestID,
		"results":    summaries,
	}, nil
}

func (s *Service) exportShape(ctx context.Context, args map[string]any) (any, error) {
	wsPath, err := stringArg(args, "workspace_path", true)
	if err != nil {
		return nil, err
	}
	resultID, err := stringArg(args, "result_id", true)
	if err != nil {
		return nil, err
	}
	filename, err := stringArg(args, "filename", true)
	if err != nil {
		return nil, err
	}
	format, err := stringArg(args, "format", false)
	if err != nil {
		return nil, err
	}
	shapeIndex, err := intArg(args, "shape_index")
	if err != nil {
		return nil, err
	}
	opts, err := mapArg(args, "options")
	if err != nil {
		return nil, err
	}

	path, err := s.cfg.Dispatcher.Export(ctx, introspect.ExportRequest{
		WorkspacePath: wsPath,
		ResultID:      resultID,
		ShapeIndex:    shapeIndex,
		Filename:      filename,
		Format:        format,
		Options:       opts,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": path}, nil
}

func (s *Service) exportPreview(ctx context.Context, args map[string]any) (any, error) {
	wsPath, err := stringArg(args, "workspace_path", true)
	if err != nil {
		return nil, err
	}
	resultID, err := stringArg(args, "result_id", true)
	if err != nil {
		return nil, err
	}
	filename, err := stringArg(args, "filename", false)
	if err != nil {
		return nil, err
	}
	shapeIndex, err := intArg(args, "shape_index")
	if err != nil {
		return nil, err
	}
	opts, err := mapArg(args, "options")
	if err != nil {
		return nil, err
	}

	path, err := s.cfg.Dispatcher.ExportPreview(ctx, introspect.PreviewRequest{
		WorkspacePath: wsPath,
		ResultID:      resultID,
		ShapeIndex:    shapeIndex,
		Filename:      filename,
		Options:       opts,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": path}, nil
}

func (s *Service) getProperties(ctx context.Context, args map[string]any) (any, error) {
	resultID, err := stringArg(args, "result_id", true)
	if err != nil {
		return nil, err
	}
	shapeIndex, err := intArg(args, "shape_index")
	if err != nil {
		return nil, err
	}
	return s.cfg.Dispatcher.Properties(ctx, resultID, shapeIndex)
}

func (s *Service) getDescription(ctx context.Context, args map[string]any) (any, error) {
	resultID, err := stringArg(args, "result_id", true)
	if err != nil {
		return nil, err
	}
	shapeIndex, err := intArg(args, "shape_index")
	if err != nil {
		return nil, err
	}
	desc, err := s.cfg.Dispatcher.Describe(ctx, resultID, shapeIndex)
	if err != nil {
		return nil, err
	}
	return map[string]any{"description": desc}, nil
}

func (s *Service) scanLibrary(ctx context.Context, args map[string]any) (any, error) {
	_ = args
	return s.cfg.Library.Scan(ctx)
}

func (s *Service) searchParts(ctx context.Context, args map[string]any) (any, error) {
	_ = ctx
	query, err := stringArg(args, "query", false)
	if err != nil {
		return nil, err
	}
	limit, err := intArg(args, "limit")
	if err != nil {
		return nil, err
	}
	hits := s.cfg.Library.Search(query, limit)
	return map[string]any{"hits": hits, "count": len(hits)}, nil
}

func (s *Service) saveModule(ctx context.Context, args map[string]any) (any, error) {
	_ = ctx
	wsPath, err := stringArg(args, "workspace_path", true)
	if err != nil {
		return nil, err
	}
	filename, err := stringArg(args, "module_filename", true)
	if err != nil {
		return nil, err
	}
	// An empty module is a valid module; only absence is an error.
	content, err := contentArg(args, "module_content")
	if err != nil {
		return nil, err
	}
	path, err := s.cfg.Env.SaveModule(wsPath, filename, content)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": path}, nil
}

func (s *Service) installPackage(ctx context.Context, args map[string]any) (any, error) {
	wsPath, err := stringArg(args, "workspace_path", true)
	if err != nil {
		return nil, err
	}
	pkg, err := stringArg(args, "package", true)
	if err != nil {
		return nil, err
	}
	if err := s.cfg.Env.InstallPackage(ctx, wsPath, pkg); err != nil {
		return nil, err
	}
	return map[string]any{"installed": pkg}, nil
}
