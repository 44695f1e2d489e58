package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rohankatakam/crewforge/internal/mcp/tools"
)

// maxLineSize bounds one JSON-RPC message; kickoff arguments can carry a
// full requirements document
const maxLineSize = 4 * 1024 * 1024

// StdioTransport handles JSON-RPC communication over stdio
type StdioTransport struct {
	scanner *bufio.Scanner
	out     io.Writer
	handler *Handler
}

// NewStdioTransport creates a transport reading requests from in and
// writing responses to out
func NewStdioTransport(handler *Handler, in io.Reader, out io.Writer) *StdioTransport {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &StdioTransport{
		scanner: scanner,
		out:     out,
		handler: handler,
	}
}

// Start serves requests until the input closes or ctx is cancelled
func (t *StdioTransport) Start(ctx context.Context) error {
	for t.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(t.scanner.Text())
		if line == "" {
			continue
		}

		var req tools.JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			if err := t.send(&tools.JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   &tools.JSONRPCError{Code: tools.CodeParseError, Message: "Parse error"},
			}); err != nil {
				return err
			}
			continue
		}

		response := t.handler.Handle(ctx, &req)
		if response == nil {
			continue
		}
		if err := t.send(response); err != nil {
			return err
		}
	}
	return t.scanner.Err()
}

func (t *StdioTransport) send(resp *tools.JSONRPCResponse) error {
	respJSON, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if _, err := fmt.Fprintln(t.out, string(respJSON)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
