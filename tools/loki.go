package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func QueryLokiTool() mcp.Tool {
	return mcp.NewTool(
		"query_loki",
		mcp.WithDescription("Query logs from Grafana Loki using LogQL"),
		mcp.WithString("query", mcp.Required(), mcp.Description("LogQL query string, e.g. '{app=\"nginx\"} |= \"error\"'")),
		mcp.WithString("from", mcp.Description("Start time as RFC3339, e.g. '2024-01-02T15:04:05Z'. Defaults to one hour ago")),
		mcp.WithString("to", mcp.Description("End time as RFC3339. Defaults to now")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of log lines to return. Default is 1000, maximum is 5000")),
		mcp.WithNumber("batch", mcp.Description("Batch size for fetching results")),
		mcp.WithString("output", mcp.Description("Output mode"), mcp.Enum("default", "raw", "jsonl")),
		mcp.WithBoolean("quiet", mcp.Description("Suppress stream label headers and separators")),
		mcp.WithBoolean("forward", mcp.Description("Return results in chronological order")),
	)
}

func GetLabelsTool() mcp.Tool {
	return mcp.NewTool(
		"get_labels",
		mcp.WithDescription("Get all available log label names from Loki"),
	)
}

func GetLabelValuesTool() mcp.Tool {
	return mcp.NewTool(
		"get_label_values",
		mcp.WithDescription("Get all possible values for a specific log label from Loki"),
		mcp.WithString("label", mcp.Required(), mcp.Description("Label name to get values for")),
	)
}

func GetSeriesTool() mcp.Tool {
	return mcp.NewTool(
		"get_series",
		mcp.WithDescription("Get all log streams that match a given label selector from Loki"),
		mcp.WithString("selector", mcp.Description("Label selector in LogQL format, e.g. '{job=\"nginx\"}'. Optional")),
	)
}
