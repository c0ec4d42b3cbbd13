package toolset

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
)

// Namespace qualifies every tool id, e.g. "cad:execute_script".
const Namespace = "cad"

// Tool names.
const (
	ToolExecuteScript  = "execute_script"
	ToolExportShape    = "export_shape"
	ToolExportPreview  = "export_preview"
	ToolGetProperties  = "get_properties"
	ToolGetDescription = "get_description"
	ToolScanLibrary    = "scan_library"
	ToolSearchParts    = "search_parts"
	ToolSaveModule     = "save_module"
	ToolInstallPackage = "install_package"
)

// schema builds a flat object schema from property definitions.
func schema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		s["required"] = req
	}
	return s
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func integer(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func object(desc string) map[string]any {
	return map[string]any{"type": "object", "description": desc}
}

// definition pairs a tool's schema with its documentation entry.
type definition struct {
	tool model.Tool
	doc  tooldoc.DocEntry
}

func definitions() []definition {
	shapeAddress := map[string]any{
		"result_id":   str("Result identifier returned by execute_script."),
		"shape_index": integer("Zero-based index into the result's shapes. Defaults to 0."),
	}
	withAddress := func(extra map[string]any) map[string]any {
		props := map[string]any{}
		for k, v := range shapeAddress {
			props[k] = v
		}
		for k, v := range extra {
			props[k] = v
		}
		return props
	}

	return []definition{
		{
			tool: model.Tool{
				Tool: mcp.Tool{
					Name:        ToolExecuteScript,
					Description: "Execute a construction script in an isolated workspace runtime, once per parameter set.",
					InputSchema: schema(map[string]any{
						"workspace_path": str("Path to an existing workspace directory."),
						"script":         str("Construction script source."),
						"parameter_sets": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "object"},
							"description": "Parameter maps, one execution per entry. Defaults to a single empty set.",
						},
						"parameters": object("Single parameter map, shorthand for a one-entry parameter_sets. Ignored when parameter_sets is present."),
						"request_id": str("Optional request identifier; generated when omitted."),
					}, "workspace_path", "script"),
				},
				Namespace: Namespace,
				Tags:      model.NormalizeTags([]string{"cad", "execute", "script"}),
			},
			doc: tooldoc.DocEntry{
				Summary: "Run a parametric construction script and record its published shapes",
				Notes:   "Each parameter set executes independently; per-set failures are recorded as failed results addressable like any other.",
			},
		},
		{
			tool: model.Tool{
				Tool: mcp.Tool{
					Name:        ToolExportShape,
					Description: "Export a stored shape to a file, inferring the format from the filename extension.",
					InputSchema: schema(withAddress(map[string]any{
						"workspace_path": str("Path to the workspace the result belongs to."),
						"filename":       str("Destination. Bare names land in the workspace output directory; paths are honored as given."),
						"format":         str("Explicit export format overriding extension inference."),
						"options":        object("Exporter options passed through to the geometry kernel."),
					}), "workspace_path", "result_id", "filename"),
				},
				Namespace: Namespace,
				Tags:      model.NormalizeTags([]string{"cad", "export"}),
			},
			doc: tooldoc.DocEntry{
				Summary: "Write a previously built shape to an exchange-format file",
				Notes:   "The shape is reloaded from its intermediate artifact, so exports survive process restarts as long as the artifact does.",
			},
		},
		{
			tool: model.Tool{
				Tool: mcp.Tool{
					Name:        ToolExportPreview,
					Description: "Render a stored shape to a vector image in the workspace render directory.",
					InputSchema: schema(withAddress(map[string]any{
						"workspace_path": str("Path to the workspace the result belongs to."),
						"filename":       str("Optional image name; generated when omitted, extension forced."),
						"options":        object("Visualization options merged over the defaults; caller wins on conflict."),
					}), "workspace_path", "result_id"),
				},
				Namespace: Namespace,
				Tags:      model.NormalizeTags([]string{"cad", "render", "preview"}),
			},
			doc: tooldoc.DocEntry{
				Summary: "Render a shape preview image",
			},
		},
		{
			tool: model.Tool{
				Tool: mcp.Tool{
					Name:        ToolGetProperties,
					Description: "Compute geometric properties of a stored shape.",
					InputSchema: schema(withAddress(nil), "result_id"),
				},
				Namespace: Namespace,
				Tags:      model.NormalizeTags([]string{"cad", "introspect"}),
			},
			doc: tooldoc.DocEntry{
				Summary: "Bounding box, volume, surface area, and center of mass",
				Notes:   "Metrics are computed independently; a metric the kernel cannot produce is simply absent.",
			},
		},
		{
			tool: model.Tool{
				Tool: mcp.Tool{
					Name:        ToolGetDescription,
					Description: "Produce a prose description of a stored shape.",
					InputSchema: schema(withAddress(nil), "result_id"),
				},
				Namespace: Namespace,
				Tags:      model.NormalizeTags([]string{"cad", "introspect"}),
			},
			doc: tooldoc.DocEntry{
				Summary: "Human-readable shape summary with topology counts",
			},
		},
		{
			tool: model.Tool{
				Tool: mcp.Tool{
					Name:        ToolScanLibrary,
					Description: "Scan the part library, indexing new and changed part scripts and rendering thumbnails.",
					InputSchema: schema(map[string]any{}),
				},
				Namespace: Namespace,
				Tags:      model.NormalizeTags([]string{"cad", "library", "index"}),
			},
			doc: tooldoc.DocEntry{
				Summary: "Refresh the part library index",
				Notes:   "Unchanged files are skipped by modification time; vanished files are evicted with their thumbnails.",
			},
		},
		{
			tool: model.Tool{
				Tool: mcp.Tool{
					Name:        ToolSearchParts,
					Description: "Search indexed library parts by weighted term relevance.",
					InputSchema: schema(map[string]any{
						"query": str("Whitespace-separated search terms. Empty returns every part."),
						"limit": integer("Maximum hits to return; 0 means all."),
					}),
				},
				Namespace: Namespace,
				Tags:      model.NormalizeTags([]string{"cad", "library", "search"}),
			},
			doc: tooldoc.DocEntry{
				Summary: "Ranked part search over id, title, description, tags, and filename",
			},
		},
		{
			tool: model.Tool{
				Tool: mcp.Tool{
					Name:        ToolSaveModule,
					Description: "Save a reusable script module into the workspace modules directory.",
					InputSchema: schema(map[string]any{
						"workspace_path":  str("Path to an existing workspace directory."),
						"module_filename": str("Module filename; must carry the script extension and no path separators."),
						"module_content":  str("Module source."),
					}, "workspace_path", "module_filename", "module_content"),
				},
				Namespace: Namespace,
				Tags:      model.NormalizeTags([]string{"cad", "workspace", "module"}),
			},
			doc: tooldoc.DocEntry{
				Summary: "Store a local module importable by construction scripts",
			},
		},
		{
			tool: model.Tool{
				Tool: mcp.Tool{
					Name:        ToolInstallPackage,
					Description: "Install a dependency package into the workspace runtime.",
					InputSchema: schema(map[string]any{
						"workspace_path": str("Path to an existing workspace directory."),
						"package":        str("Package name, optionally version-qualified."),
					}, "workspace_path", "package"),
				},
				Namespace: Namespace,
				Tags:      model.NormalizeTags([]string{"cad", "workspace", "dependencies"}),
			},
			doc: tooldoc.DocEntry{
				Summary: "Add a runtime dependency to one workspace",
				Notes:   "The workspace runtime is created first if it does not exist yet.",
			},
		},
	}
}
