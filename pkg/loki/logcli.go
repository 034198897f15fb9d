package loki

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/boqier/loki-mcp-server/pkg/config"
)

// logcliBinary is the command-line Loki client looked for on PATH.
const logcliBinary = "logcli"

var (
	probeOnce      sync.Once
	probeAvailable bool
)

// logcliAvailable reports whether logcli can run. The probe is a trivial
// version check executed once per process; its result is cached and never
// re-evaluated.
func logcliAvailable() bool {
	probeOnce.Do(func() {
		probeAvailable = exec.Command(logcliBinary, "--version").Run() == nil
	})
	return probeAvailable
}

// cliBackend executes queries through the logcli binary. logcli is always
// invoked with an argument vector, never through a shell, so operator
// characters in LogQL cannot be re-interpreted.
type cliBackend struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func newCLIBackend(cfg *config.Config, logger zerolog.Logger) *cliBackend {
	return &cliBackend{cfg: cfg, logger: logger}
}

// run executes logcli with args, capturing stdout and stderr separately.
// A non-zero exit folds the exit status into the typed error's sub-code.
func (b *cliBackend) run(ctx context.Context, args []string) (string, error) {
	b.logger.Debug().Strs("args", args).Msg("running logcli")

	cmd := exec.CommandContext(ctx, logcliBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		e := newError(ErrCodeQueryExecution, err, "logcli execution failed: %s", strings.TrimSpace(stderr.String())).
			withDetail("stderr", stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e = e.withSubCode(exitErr.ExitCode())
		}
		return "", e
	}

	return stdout.String(), nil
}

// QueryLogs returns logcli's stdout verbatim: its text output is already
// the final contract, so no formatter is applied on this path.
func (b *cliBackend) QueryLogs(ctx context.Context, opts QueryOptions) (string, error) {
	start := time.Now()
	out, err := b.run(ctx, buildQueryArgs(b.cfg, opts))
	observeCall("cli", "query_range", start, err)
	return out, err
}

// ListLabels returns label names, one per logcli output line.
func (b *cliBackend) ListLabels(ctx context.Context) ([]string, error) {
	start := time.Now()
	out, err := b.run(ctx, buildLabelsArgs(b.cfg))
	observeCall("cli", "labels", start, err)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ListLabelValues returns the values of one label.
func (b *cliBackend) ListLabelValues(ctx context.Context, label string) ([]string, error) {
	start := time.Now()
	out, err := b.run(ctx, buildLabelValuesArgs(b.cfg, label))
	observeCall("cli", "label_values", start, err)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ListSeries returns matching stream selectors, one per output line.
func (b *cliBackend) ListSeries(ctx context.Context, matcher string) ([]string, error) {
	start := time.Now()
	out, err := b.run(ctx, buildSeriesArgs(b.cfg, matcher))
	observeCall("cli", "series", start, err)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// splitLines splits command output into trimmed, non-empty lines.
func splitLines(out string) []string {
	lines := strings.Split(out, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
