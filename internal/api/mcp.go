package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/modelserver/internal/service"
)

// NewMCPServer creates an MCP server exposing the generate and health tools
// over the same service the HTTP surface uses.
func NewMCPServer(svc *service.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"modelserver",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("modelserver: text generation with a locally loaded language model."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("generate",
			mcp.WithDescription("Generate a reply to a prompt with the loaded model. The echoed prompt is stripped from the output."),
			mcp.WithString("messages", mcp.Description("The prompt text"), mcp.Required()),
		),
		mcpGenerate(svc),
	)

	s.AddTool(
		mcp.NewTool("health",
			mcp.WithDescription("Report service health and the loaded model id."),
		),
		mcpHealth(svc),
	)

	return s
}

func mcpGenerate(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Arguments go through the same validation as an HTTP body.
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to read arguments: %v", err)), nil
		}
		prompt, err := service.ParsePrompt(args)
		if err != nil {
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				return mcpError(verr.Reason), nil
			}
			return mcpError(err.Error()), nil
		}

		res, err := svc.Generate(ctx, prompt)
		if err != nil {
			return mcpError(fmt.Sprintf("Failed to generate response: %v", err)), nil
		}
		return mcpText(res.Text), nil
	}
}

func mcpHealth(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(svc.Health())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal health: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
