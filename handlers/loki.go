package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/boqier/loki-mcp-server/pkg/loki"
)

func QueryLoki(svc *loki.Service) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return nil, err
		}

		opts := loki.QueryOptions{Query: query}

		if from := request.GetString("from", ""); from != "" {
			opts.From, err = time.Parse(time.RFC3339, from)
			if err != nil {
				return nil, fmt.Errorf("invalid from time format: %w", err)
			}
		}
		if to := request.GetString("to", ""); to != "" {
			opts.To, err = time.Parse(time.RFC3339, to)
			if err != nil {
				return nil, fmt.Errorf("invalid to time format: %w", err)
			}
		}

		// Over-limit requests never reach the query service.
		opts.Limit = request.GetInt("limit", 0)
		if opts.Limit > loki.MaxLimit {
			return nil, fmt.Errorf("limit %d exceeds maximum of %d", opts.Limit, loki.MaxLimit)
		}

		opts.Batch = request.GetInt("batch", 0)

		if output := request.GetString("output", ""); output != "" {
			if output != loki.OutputDefault && output != loki.OutputRaw && output != loki.OutputJSONL {
				return nil, fmt.Errorf("output must be one of: default, raw, jsonl")
			}
			opts.Output = output
		}

		opts.Quiet = request.GetBool("quiet", false)

		// Forward must only be sent when the caller set it explicitly, so
		// presence is checked before reading the value.
		if _, ok := request.GetArguments()["forward"]; ok {
			forward := request.GetBool("forward", false)
			opts.Forward = &forward
		}

		result, err := svc.QueryLogs(ctx, opts)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(result), nil
	}
}

func GetLabels(svc *loki.Service) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := svc.ListLabels(ctx)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(result), nil
	}
}

func GetLabelValues(svc *loki.Service) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		label, err := request.RequireString("label")
		if err != nil {
			return nil, err
		}

		result, err := svc.ListLabelValues(ctx, label)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(result), nil
	}
}

func GetSeries(svc *loki.Service) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		selector := request.GetString("selector", "")

		result, err := svc.ListSeries(ctx, selector)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(result), nil
	}
}
