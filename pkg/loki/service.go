// Package loki translates structured tool calls into Loki queries. Two
// backends implement the same capability surface: the logcli binary when
// it is installed, and the Loki HTTP API otherwise. Builders and the
// response formatter are pure; the service layer picks the backend once
// and maps every failure into a typed error before it crosses into the
// tool surface.
package loki

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/boqier/loki-mcp-server/pkg/config"
)

// Backend is the capability surface shared by the execution paths.
type Backend interface {
	QueryLogs(ctx context.Context, opts QueryOptions) (string, error)
	ListLabels(ctx context.Context) ([]string, error)
	ListLabelValues(ctx context.Context, label string) ([]string, error)
	ListSeries(ctx context.Context, matcher string) ([]string, error)
}

// Service orchestrates query execution. It holds no per-call state: the
// configuration snapshot and the chosen backend are read-only, so
// concurrent invocations are fully independent.
type Service struct {
	backend Backend
	logger  zerolog.Logger
}

// NewService selects the backend once, at construction: logcli when the
// availability probe succeeds, the HTTP API otherwise. There is no
// per-call fallback between backends.
func NewService(cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	if logcliAvailable() {
		logger.Debug().Msg("logcli found, using command-line backend")
		return &Service{backend: newCLIBackend(cfg, logger), logger: logger}, nil
	}

	logger.Debug().Msg("logcli not found, using HTTP backend")
	backend, err := newHTTPBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{backend: backend, logger: logger}, nil
}

// newServiceWithBackend wires an explicit backend; used by tests.
func newServiceWithBackend(backend Backend, logger zerolog.Logger) *Service {
	return &Service{backend: backend, logger: logger}
}

// QueryLogs executes a log query and returns the normalized text result.
// Every failure is a *Error carrying the original query in its detail.
func (s *Service) QueryLogs(ctx context.Context, opts QueryOptions) (string, error) {
	out, err := s.backend.QueryLogs(ctx, opts)
	if err != nil {
		return "", s.asTypedError(err, opts.Query)
	}
	return out, nil
}

// ListLabels returns all label names as a {"labels": [...]} JSON envelope.
func (s *Service) ListLabels(ctx context.Context) (string, error) {
	labels, err := s.backend.ListLabels(ctx)
	if err != nil {
		return "", s.asTypedError(err, "")
	}
	return marshalEnvelope("labels", labels)
}

// ListLabelValues returns the values of one label as a
// {"values": [...]} JSON envelope.
func (s *Service) ListLabelValues(ctx context.Context, label string) (string, error) {
	values, err := s.backend.ListLabelValues(ctx, label)
	if err != nil {
		return "", s.asTypedError(err, label)
	}
	return marshalEnvelope("values", values)
}

// ListSeries returns the selectors of streams matching matcher as a
// {"series": [...]} JSON envelope.
func (s *Service) ListSeries(ctx context.Context, matcher string) (string, error) {
	series, err := s.backend.ListSeries(ctx, matcher)
	if err != nil {
		return "", s.asTypedError(err, matcher)
	}
	return marshalEnvelope("series", series)
}

// asTypedError guarantees the boundary contract: anything leaving the
// service is a *Error with a non-empty code and message. Backend errors
// are already typed; anything else is wrapped generically.
func (s *Service) asTypedError(err error, query string) error {
	var typed *Error
	if !errors.As(err, &typed) {
		typed = newError(ErrCodeInternal, err, "unexpected failure: %v", err)
	}
	if query != "" {
		typed = typed.withDetail("query", query)
	}
	s.logger.Error().Err(err).Str("code", string(typed.Code)).Msg("query failed")
	return typed
}

func marshalEnvelope(key string, values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(map[string][]string{key: values})
	if err != nil {
		return "", newError(ErrCodeInternal, err, "failed to serialize response")
	}
	return string(raw), nil
}

// renderSelector renders an unordered label map as a LogQL selector with
// sorted keys, for stable series output.
func renderSelector(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strconv.Quote(labels[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
