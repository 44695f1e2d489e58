package tools

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      interface{}            `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response
func (r *JSONRPCRequest) IsNotification() bool {
	return r.ID == nil
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Content is one item of a tool result
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the MCP tools/call result shape
type ToolResult struct {
	Content []Content   `json:"content"`
	IsError bool        `json:"isError,omitempty"`
	Data    interface{} `json:"structuredContent,omitempty"`
}

// TextResult wraps text as a single content item
func TextResult(text string, data interface{}) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: text}},
		Data:    data,
	}
}

// TaskSummary describes one finished task in a kickoff result
type TaskSummary struct {
	Name       string `json:"name"`
	Agent      string `json:"agent"`
	OutputFile string `json:"output_file,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// KickoffSummary is the structured part of a kickoff result
type KickoffSummary struct {
	FeatureName string        `json:"feature_name"`
	Tasks       []TaskSummary `json:"tasks"`
	TotalTokens int64         `json:"total_tokens"`
}
