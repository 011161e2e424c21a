package kit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPDecoder extracts the endpoint's typed request from MCP tool arguments.
type MCPDecoder func(*mcp.CallToolRequest) (any, error)

// RegisterMCPTool exposes an Endpoint as an MCP tool on srv.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, ToolHandler(endpoint, decode))
}

// ToolHandler adapts an Endpoint to the MCP tool calling convention. Decode
// and endpoint failures become tool errors in the result, never protocol
// errors, so a misbehaving tool call does not tear down the session.
func ToolHandler(endpoint Endpoint, decode MCPDecoder) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, err := decode(req)
		if err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
		resp, err := endpoint(WithTransport(ctx, "mcp"), request)
		if err != nil {
			return toolError(errors.New(err.Error())), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	}
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
