package loki

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/boqier/loki-mcp-server/pkg/config"
)

// buildRangeParams returns the query_range parameters for the HTTP
// backend. The limit is always present: the caller's value when it is
// within bounds, the default ceiling otherwise.
func buildRangeParams(opts QueryOptions) url.Values {
	params := url.Values{}
	params.Set("query", opts.Query)

	if !opts.From.IsZero() {
		params.Set("start", opts.From.Format(time.RFC3339))
	}
	if !opts.To.IsZero() {
		params.Set("end", opts.To.Format(time.RFC3339))
	}

	limit := opts.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	params.Set("limit", strconv.Itoa(limit))

	if opts.Forward != nil {
		if *opts.Forward {
			params.Set("direction", "forward")
		} else {
			params.Set("direction", "backward")
		}
	}

	return params
}

// buildHeaders returns the request headers shared by all HTTP backend
// calls. Basic auth takes precedence over a bearer token when both are
// configured.
func buildHeaders(cfg *config.Config, opts QueryOptions) http.Header {
	headers := http.Header{}

	if cfg.Username != "" && cfg.Password != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		headers.Set("Authorization", "Basic "+creds)
	} else if cfg.BearerToken != "" {
		headers.Set("Authorization", "Bearer "+cfg.BearerToken)
	}

	if cfg.TenantID != "" {
		headers.Set("X-Scope-OrgID", cfg.TenantID)
	}
	if cfg.OrgID != "" {
		headers.Set("X-Org-ID", cfg.OrgID)
	}

	if opts.Output == OutputRaw || opts.Output == OutputJSONL {
		headers.Set("Accept", "application/json")
	}

	return headers
}
