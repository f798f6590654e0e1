package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/uit-ai/knowledge-core/internal/toolhost"
)

func registerRetrievalTools(mcpServer *server.MCPServer, host *toolhost.Host) {
	mcpServer.AddTool(mcp.NewTool("retrieve_documents",
		mcp.WithDescription("Retrieve blended dense+lexical search results across every routed collection for a natural-language query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language question or search query")),
	), callToolWithArg(host, "retrieve_documents", "query"))

	mcpServer.AddTool(mcp.NewTool("retrieve_regulation",
		mcp.WithDescription("Retrieve university regulation documents relevant to a query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language question about policy or regulation")),
	), callToolWithArg(host, "retrieve_regulation", "query"))

	mcpServer.AddTool(mcp.NewTool("retrieve_curriculum",
		mcp.WithDescription("Retrieve curriculum and program documents relevant to a query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language question about a major, program, or course")),
	), callToolWithArg(host, "retrieve_curriculum", "query"))
}

func registerPortalTools(mcpServer *server.MCPServer, host *toolhost.Host) {
	mcpServer.AddTool(mcp.NewTool("get_grades",
		mcp.WithDescription("Fetch the authenticated student's grades from the university portal"),
		mcp.WithString("cookie", mcp.Required(), mcp.Description("Opaque portal session cookie")),
	), callToolWithArg(host, "get_grades", "cookie"))

	mcpServer.AddTool(mcp.NewTool("get_schedule",
		mcp.WithDescription("Fetch the authenticated student's class schedule from the university portal"),
		mcp.WithString("cookie", mcp.Required(), mcp.Description("Opaque portal session cookie")),
	), callToolWithArg(host, "get_schedule", "cookie"))
}

// callToolWithArg adapts one named Host tool, which takes a single
// required string argument, to the MCP wire handler shape.
func callToolWithArg(host *toolhost.Host, name, argName string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		value, err := request.RequireString(argName)
		if err != nil || value == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent("error: " + argName + " parameter is required")},
				IsError: true,
			}, nil
		}

		result := host.Call(ctx, name, map[string]interface{}{argName: value})
		if result.Err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent("error: " + result.Err.Error())},
				IsError: true,
			}, nil
		}

		text, ok := result.Value.(string)
		if !ok {
			text = toText(result.Value)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(text)},
		}, nil
	}
}
