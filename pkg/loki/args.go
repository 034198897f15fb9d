package loki

import (
	"fmt"
	"time"

	"github.com/boqier/loki-mcp-server/pkg/config"
)

// The logcli argument builders are pure: they turn the connection
// configuration and query options into an ordered argv. Ordering matters
// to logcli's parser: auth flags first, then global flags, then the
// sub-command, then its flags, then the raw query as the final
// positional. The query is always one token so operator characters in
// LogQL can never be re-interpreted by a shell.

// buildAuthArgs returns one --flag=value token per present configuration
// field. Absent fields produce no token at all.
func buildAuthArgs(cfg *config.Config) []string {
	var args []string
	if cfg.Addr != "" {
		args = append(args, "--addr="+cfg.Addr)
	}
	if cfg.Username != "" {
		args = append(args, "--username="+cfg.Username)
	}
	if cfg.Password != "" {
		args = append(args, "--password="+cfg.Password)
	}
	if cfg.TenantID != "" {
		args = append(args, "--tenant-id="+cfg.TenantID)
	}
	if cfg.BearerToken != "" {
		args = append(args, "--bearer-token="+cfg.BearerToken)
	}
	if cfg.BearerTokenFile != "" {
		args = append(args, "--bearer-token-file="+cfg.BearerTokenFile)
	}
	if cfg.CACertPath != "" {
		args = append(args, "--ca-cert="+cfg.CACertPath)
	}
	if cfg.ClientCertPath != "" {
		args = append(args, "--cert="+cfg.ClientCertPath)
	}
	if cfg.ClientKeyPath != "" {
		args = append(args, "--key="+cfg.ClientKeyPath)
	}
	if cfg.OrgID != "" {
		args = append(args, "--org-id="+cfg.OrgID)
	}
	if cfg.TLSSkipVerify {
		args = append(args, "--tls-skip-verify")
	}
	return args
}

// buildQueryArgs produces the full argv for `logcli query`. From defaults
// to one hour ago and To to the literal "now" when unset.
func buildQueryArgs(cfg *config.Config, opts QueryOptions) []string {
	args := buildAuthArgs(cfg)

	if opts.Quiet {
		args = append(args, "--quiet")
	}
	if opts.Output != "" {
		args = append(args, "--output="+opts.Output)
	}

	args = append(args, "query")

	from := opts.From
	if from.IsZero() {
		from = time.Now().Add(-1 * time.Hour)
	}
	args = append(args, "--from="+from.Format(time.RFC3339))

	to := "now"
	if !opts.To.IsZero() {
		to = opts.To.Format(time.RFC3339)
	}
	args = append(args, "--to="+to)

	if opts.Limit > 0 {
		args = append(args, fmt.Sprintf("--limit=%d", opts.Limit))
	}
	if opts.Batch > 0 {
		args = append(args, fmt.Sprintf("--batch=%d", opts.Batch))
	}
	if opts.Forward != nil && *opts.Forward {
		args = append(args, "--forward")
	}

	return append(args, opts.Query)
}

// buildLabelsArgs produces the argv for `logcli labels`.
func buildLabelsArgs(cfg *config.Config) []string {
	return append(buildAuthArgs(cfg), "labels")
}

// buildLabelValuesArgs produces the argv for `logcli labels <name>`.
func buildLabelValuesArgs(cfg *config.Config, label string) []string {
	return append(buildAuthArgs(cfg), "labels", label)
}

// buildSeriesArgs produces the argv for `logcli series <matcher>`.
func buildSeriesArgs(cfg *config.Config, matcher string) []string {
	if matcher == "" {
		matcher = "{}"
	}
	return append(buildAuthArgs(cfg), "series", matcher)
}
