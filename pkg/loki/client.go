package loki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promconfig "github.com/prometheus/common/config"

	"github.com/boqier/loki-mcp-server/pkg/config"
	"github.com/boqier/loki-mcp-server/pkg/metrics"
)

const apiPrefix = "/loki/api/v1"

var (
	metricBackendCallsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prometheus.BuildFQName(metrics.MetricNamespace, "backend", "calls_failed_total"),
			Help: "Total number of failed backend calls, per backend and operation.",
		},
		[]string{"backend", "operation"},
	)

	metricBackendCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prometheus.BuildFQName(metrics.MetricNamespace, "backend", "call_duration_seconds"),
			Help:    "Duration of backend calls, per backend and operation, in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"backend", "operation"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		metricBackendCallsFailed,
		metricBackendCallDuration,
	)
}

// observeCall records duration and failure outcome for one backend call.
func observeCall(backend, operation string, start time.Time, err error) {
	metricBackendCallDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metricBackendCallsFailed.WithLabelValues(backend, operation).Inc()
	}
}

// labelsResponse is the envelope of the labels and label-values endpoints.
type labelsResponse struct {
	Status string   `json:"status"`
	Data   []string `json:"data"`
}

// seriesResponse is the envelope of the series endpoint.
type seriesResponse struct {
	Status string              `json:"status"`
	Data   []map[string]string `json:"data"`
}

// httpBackend talks to the Loki HTTP API directly. It holds an effective
// copy of the connection configuration: a configured bearer token file is
// read once at construction.
type httpBackend struct {
	cfg        *config.Config
	httpClient *http.Client
}

// newHTTPBackend builds the HTTP backend from connection configuration.
// TLS material and the bearer token file are loaded here so later calls
// are pure request/response exchanges.
func newHTTPBackend(cfg *config.Config) (*httpBackend, error) {
	effective := *cfg
	if effective.BearerToken == "" && effective.BearerTokenFile != "" {
		raw, err := os.ReadFile(effective.BearerTokenFile)
		if err != nil {
			return nil, newError(ErrCodeConfigLoad, err, "failed to read bearer token file %s", effective.BearerTokenFile)
		}
		effective.BearerToken = strings.TrimSpace(string(raw))
	}

	transport := http.DefaultTransport
	if cfg.CACertPath != "" || cfg.ClientCertPath != "" || cfg.ClientKeyPath != "" || cfg.TLSSkipVerify {
		tlsConfig, err := promconfig.NewTLSConfig(&promconfig.TLSConfig{
			CAFile:             cfg.CACertPath,
			CertFile:           cfg.ClientCertPath,
			KeyFile:            cfg.ClientKeyPath,
			InsecureSkipVerify: cfg.TLSSkipVerify,
		})
		if err != nil {
			return nil, newError(ErrCodeConfigLoad, err, "failed to build TLS configuration")
		}
		transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	return &httpBackend{
		cfg: &effective,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}, nil
}

// get performs one GET against the Loki API and returns the body.
// A missing server address is reported before any network activity.
func (b *httpBackend) get(ctx context.Context, path string, params url.Values, opts QueryOptions) ([]byte, error) {
	if b.cfg.Addr == "" {
		return nil, newError(ErrCodeHTTPQuery, nil, "no Loki server address configured")
	}

	fullURL := strings.TrimRight(b.cfg.Addr, "/") + apiPrefix + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, newError(ErrCodeHTTPQuery, err, "failed to create request")
	}
	req.Header = buildHeaders(b.cfg, opts)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, newError(ErrCodeHTTPQuery, err, "request to Loki failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrCodeHTTPQuery, err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(ErrCodeHTTPQuery, nil, "Loki returned status %d", resp.StatusCode).
			withSubCode(resp.StatusCode).
			withDetail("status", resp.StatusCode).
			withDetail("body", string(body))
	}

	return body, nil
}

// QueryLogs runs a range query and normalizes the JSON envelope into the
// shared text contract.
func (b *httpBackend) QueryLogs(ctx context.Context, opts QueryOptions) (string, error) {
	start := time.Now()
	out, err := b.queryLogs(ctx, opts)
	observeCall("http", "query_range", start, err)
	return out, err
}

func (b *httpBackend) queryLogs(ctx context.Context, opts QueryOptions) (string, error) {
	body, err := b.get(ctx, "/query_range", buildRangeParams(opts), opts)
	if err != nil {
		return "", err
	}

	var resp QueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newError(ErrCodeHTTPQuery, err, "failed to parse query response")
	}

	text, err := FormatQueryResponse(&resp, opts)
	if err != nil {
		return "", newError(ErrCodeHTTPQuery, err, "failed to format query response")
	}
	return text, nil
}

// ListLabels returns all label names.
func (b *httpBackend) ListLabels(ctx context.Context) ([]string, error) {
	start := time.Now()
	labels, err := b.fetchLabels(ctx, "/labels")
	observeCall("http", "labels", start, err)
	return labels, err
}

// ListLabelValues returns all values of one label. The label name is
// path-encoded into the endpoint URL.
func (b *httpBackend) ListLabelValues(ctx context.Context, label string) ([]string, error) {
	start := time.Now()
	values, err := b.fetchLabels(ctx, fmt.Sprintf("/label/%s/values", url.PathEscape(label)))
	observeCall("http", "label_values", start, err)
	return values, err
}

func (b *httpBackend) fetchLabels(ctx context.Context, path string) ([]string, error) {
	body, err := b.get(ctx, path, nil, QueryOptions{})
	if err != nil {
		return nil, err
	}
	var resp labelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newError(ErrCodeHTTPQuery, err, "failed to parse labels response")
	}
	return resp.Data, nil
}

// ListSeries returns the label sets of all streams matching the selector,
// each rendered as a LogQL selector string.
func (b *httpBackend) ListSeries(ctx context.Context, matcher string) ([]string, error) {
	start := time.Now()
	series, err := b.listSeries(ctx, matcher)
	observeCall("http", "series", start, err)
	return series, err
}

func (b *httpBackend) listSeries(ctx context.Context, matcher string) ([]string, error) {
	params := url.Values{}
	if matcher != "" {
		params.Set("match[]", matcher)
	}
	body, err := b.get(ctx, "/series", params, QueryOptions{})
	if err != nil {
		return nil, err
	}

	var resp seriesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newError(ErrCodeHTTPQuery, err, "failed to parse series response")
	}

	out := make([]string, 0, len(resp.Data))
	for _, labels := range resp.Data {
		out = append(out, renderSelector(labels))
	}
	return out, nil
}
