package resources

import "github.com/mark3labs/mcp-go/mcp"

func ConnectionResource() mcp.Resource {
	return mcp.NewResource(
		"loki://config",
		"Loki Connection",
		mcp.WithResourceDescription("The resolved Loki connection configuration with credentials stripped"),
		mcp.WithMIMEType("application/json"),
	)
}
