// Package mcp serves the crew over the Model Context Protocol: JSON-RPC 2.0
// requests on stdin, one response per line on stdout.
package mcp

import (
	"context"
	"log/slog"
	"sort"

	"github.com/rohankatakam/crewforge/internal/mcp/tools"
)

// ProtocolVersion is reported from initialize
const ProtocolVersion = "2024-11-05"

// Tool represents an MCP tool
type Tool interface {
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
	GetSchema() map[string]interface{}
	Description() string
}

// Resource represents an MCP resource
type Resource interface {
	Read(ctx context.Context) (interface{}, error)
}

// Handler handles MCP protocol requests
type Handler struct {
	tools     map[string]Tool
	resources map[string]Resource
	version   string
	logger    *slog.Logger
}

// NewHandler creates a new MCP handler
func NewHandler(version string) *Handler {
	return &Handler{
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
		version:   version,
		logger:    slog.Default().With("component", "mcp"),
	}
}

// RegisterTool registers a tool with the handler
func (h *Handler) RegisterTool(name string, tool Tool) {
	h.tools[name] = tool
}

// RegisterResource registers a resource under its URI
func (h *Handler) RegisterResource(uri string, resource Resource) {
	h.resources[uri] = resource
}

// Handle processes a JSON-RPC request. Notifications get a nil response.
func (h *Handler) Handle(ctx context.Context, req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	h.logger.Debug("request", "method", req.Method, "id", req.ID)

	var resp *tools.JSONRPCResponse
	switch req.Method {
	case "initialize":
		resp = h.handleInitialize(req)
	case "ping":
		resp = result(req, map[string]interface{}{})
	case "tools/list":
		resp = h.handleToolsList(req)
	case "tools/call":
		resp = h.handleToolCall(ctx, req)
	case "resources/list":
		resp = h.handleResourcesList(req)
	case "resources/read":
		resp = h.handleResourceRead(ctx, req)
	default:
		if req.IsNotification() {
			return nil
		}
		resp = fail(req, tools.CodeMethodNotFound, "Method not found")
	}

	if req.IsNotification() {
		return nil
	}
	return resp
}

func result(req *tools.JSONRPCRequest, v interface{}) *tools.JSONRPCResponse {
	return &tools.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: v}
}

func fail(req *tools.JSONRPCRequest, code int, msg string) *tools.JSONRPCResponse {
	return &tools.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error:   &tools.JSONRPCError{Code: code, Message: msg},
	}
}

func (h *Handler) handleInitialize(req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	return result(req, map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
		},
		"serverInfo": map[string]string{
			"name":    "crewforge",
			"version": h.version,
		},
	})
}

func (h *Handler) handleToolsList(req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	names := make([]string, 0, len(h.tools))
	for name := range h.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	toolsList := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		tool := h.tools[name]
		toolsList = append(toolsList, map[string]interface{}{
			"name":        name,
			"description": tool.Description(),
			"inputSchema": tool.GetSchema(),
		})
	}
	return result(req, map[string]interface{}{"tools": toolsList})
}

func (h *Handler) handleToolCall(ctx context.Context, req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	toolName, ok := req.Params["name"].(string)
	if !ok {
		return fail(req, tools.CodeInvalidParams, "Invalid params: 'name' is required")
	}

	tool, exists := h.tools[toolName]
	if !exists {
		return fail(req, tools.CodeInvalidParams, "Tool not found: "+toolName)
	}

	args, ok := req.Params["arguments"].(map[string]interface{})
	if !ok {
		args = make(map[string]interface{})
	}

	out, err := tool.Execute(ctx, args)
	if err != nil {
		h.logger.Warn("tool failed", "tool", toolName, "error", err)
		// Tool errors are reported in-band so the client model can see them
		return result(req, &tools.ToolResult{
			Content: []tools.Content{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
	}
	return result(req, out)
}

func (h *Handler) handleResourcesList(req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	uris := make([]string, 0, len(h.resources))
	for uri := range h.resources {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	list := make([]map[string]interface{}, 0, len(uris))
	for _, uri := range uris {
		entry := map[string]interface{}{"uri": uri, "name": uri}
		if d, ok := h.resources[uri].(interface{ MimeType() string }); ok {
			entry["mimeType"] = d.MimeType()
		}
		list = append(list, entry)
	}
	return result(req, map[string]interface{}{"resources": list})
}

func (h *Handler) handleResourceRead(ctx context.Context, req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	uri, ok := req.Params["uri"].(string)
	if !ok {
		// older clients send name
		uri, ok = req.Params["name"].(string)
	}
	if !ok {
		return fail(req, tools.CodeInvalidParams, "Invalid params: 'uri' is required")
	}

	resource, exists := h.resources[uri]
	if !exists {
		return fail(req, tools.CodeInvalidParams, "Resource not found: "+uri)
	}

	out, err := resource.Read(ctx)
	if err != nil {
		return fail(req, tools.CodeInternalError, "Resource read error: "+err.Error())
	}
	return result(req, out)
}
