package handlers

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/boqier/loki-mcp-server/pkg/config"
)

func GetConnection(cfg *config.Config) func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		redacted, err := json.MarshalIndent(cfg.Redacted(), "", "  ")
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "loki://config",
				MIMEType: "application/json",
				Text:     string(redacted),
			},
		}, nil
	}
}
