package prompts

import "github.com/mark3labs/mcp-go/mcp"

func UseSelectorPrompt() mcp.Prompt {
	return mcp.NewPrompt(
		"arg-selector",
		mcp.WithPromptDescription("When using query_loki, always start the query with a stream selector like {app=\"nginx\"} or {job=\"api\"}; use get_labels and get_label_values to discover valid label names and values first."),
	)
}
