package handlers

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func UseSelectorPrompt() func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(
			"arg-selector",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleAssistant,
					mcp.NewTextContent("When using query_loki, always start the query with a stream selector like {app=\"nginx\"}. Use get_labels and get_label_values to discover valid label names and values before querying."),
				),
			},
		), nil
	}
}
