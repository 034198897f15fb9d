package loki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boqier/loki-mcp-server/pkg/config"
)

// fakeBackend lets tests drive the service without a real backend.
type fakeBackend struct {
	queryLogs       func(ctx context.Context, opts QueryOptions) (string, error)
	listLabels      func(ctx context.Context) ([]string, error)
	listLabelValues func(ctx context.Context, label string) ([]string, error)
	listSeries      func(ctx context.Context, matcher string) ([]string, error)
}

func (f *fakeBackend) QueryLogs(ctx context.Context, opts QueryOptions) (string, error) {
	return f.queryLogs(ctx, opts)
}

func (f *fakeBackend) ListLabels(ctx context.Context) ([]string, error) {
	return f.listLabels(ctx)
}

func (f *fakeBackend) ListLabelValues(ctx context.Context, label string) ([]string, error) {
	return f.listLabelValues(ctx, label)
}

func (f *fakeBackend) ListSeries(ctx context.Context, matcher string) ([]string, error) {
	return f.listSeries(ctx, matcher)
}

func TestQueryLogsWrapsUntypedErrors(t *testing.T) {
	svc := newServiceWithBackend(&fakeBackend{
		queryLogs: func(context.Context, QueryOptions) (string, error) {
			return "", errors.New("boom")
		},
	}, zerolog.Nop())

	_, err := svc.QueryLogs(context.Background(), QueryOptions{Query: `{app="x"}`})
	require.Error(t, err)

	var typed *Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, ErrCodeInternal, typed.Code)
	assert.NotEmpty(t, typed.Message)
	assert.Equal(t, `{app="x"}`, typed.Detail["query"])
}

func TestQueryLogsKeepsTypedErrors(t *testing.T) {
	svc := newServiceWithBackend(&fakeBackend{
		queryLogs: func(context.Context, QueryOptions) (string, error) {
			return "", newError(ErrCodeQueryExecution, nil, "logcli execution failed").withSubCode(2)
		},
	}, zerolog.Nop())

	_, err := svc.QueryLogs(context.Background(), QueryOptions{Query: `{app="x"}`})

	var typed *Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, ErrCodeQueryExecution, typed.Code)
	assert.Equal(t, 2, typed.SubCode)
}

func TestListLabelsEnvelope(t *testing.T) {
	svc := newServiceWithBackend(&fakeBackend{
		listLabels: func(context.Context) ([]string, error) {
			return []string{"app", "job"}, nil
		},
	}, zerolog.Nop())

	out, err := svc.ListLabels(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels": ["app", "job"]}`, out)
}

func TestListLabelValuesEnvelopeEmpty(t *testing.T) {
	svc := newServiceWithBackend(&fakeBackend{
		listLabelValues: func(context.Context, string) ([]string, error) {
			return nil, nil
		},
	}, zerolog.Nop())

	out, err := svc.ListLabelValues(context.Background(), "app")
	require.NoError(t, err)
	assert.JSONEq(t, `{"values": []}`, out)
}

func TestListSeriesEnvelope(t *testing.T) {
	svc := newServiceWithBackend(&fakeBackend{
		listSeries: func(context.Context, string) ([]string, error) {
			return []string{`{app="x"}`}, nil
		},
	}, zerolog.Nop())

	out, err := svc.ListSeries(context.Background(), `{app="x"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"series": ["{app=\"x\"}"]}`, out)
}

func TestHTTPQueryRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loki/api/v1/query_range", r.URL.Path)
		assert.Equal(t, `{app="x"}`, r.URL.Query().Get("query"))
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		assert.Equal(t, "team-a", r.Header.Get("X-Scope-OrgID"))
		fmt.Fprint(w, `{
			"status": "success",
			"data": {
				"resultType": "streams",
				"result": [{
					"stream": {"app": "x"},
					"values": [["1704207600000000000", "hello"]]
				}]
			}
		}`)
	}))
	defer srv.Close()

	backend, err := newHTTPBackend(&config.Config{Addr: srv.URL, TenantID: "team-a"})
	require.NoError(t, err)
	svc := newServiceWithBackend(backend, zerolog.Nop())

	out, err := svc.QueryLogs(context.Background(), QueryOptions{Query: `{app="x"}`})
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, `{app="x"}`)
}

func TestHTTPNon2xxIsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	backend, err := newHTTPBackend(&config.Config{Addr: srv.URL})
	require.NoError(t, err)
	svc := newServiceWithBackend(backend, zerolog.Nop())

	_, err = svc.ListLabels(context.Background())
	require.Error(t, err)

	var typed *Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, ErrCodeHTTPQuery, typed.Code)
	assert.Equal(t, http.StatusTooManyRequests, typed.SubCode)
	assert.Equal(t, http.StatusTooManyRequests, typed.Detail["status"])
	assert.Contains(t, typed.Detail["body"], "too many requests")
}

func TestHTTPMissingAddr(t *testing.T) {
	backend, err := newHTTPBackend(&config.Config{})
	require.NoError(t, err)

	_, err = backend.ListLabels(context.Background())
	require.Error(t, err)

	var typed *Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, ErrCodeHTTPQuery, typed.Code)
	assert.Contains(t, typed.Message, "address")
}

func TestHTTPLabelValuesPathEscaped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.EscapedPath(), "app%2Fname")
		fmt.Fprint(w, `{"status": "success", "data": ["a", "b"]}`)
	}))
	defer srv.Close()

	backend, err := newHTTPBackend(&config.Config{Addr: srv.URL})
	require.NoError(t, err)

	values, err := backend.ListLabelValues(context.Background(), "app/name")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, values)
}

func TestHTTPListSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loki/api/v1/series", r.URL.Path)
		assert.Equal(t, `{app="x"}`, r.URL.Query().Get("match[]"))
		fmt.Fprint(w, `{"status": "success", "data": [{"app": "x", "job": "api"}]}`)
	}))
	defer srv.Close()

	backend, err := newHTTPBackend(&config.Config{Addr: srv.URL})
	require.NoError(t, err)

	series, err := backend.ListSeries(context.Background(), `{app="x"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{`{app="x", job="api"}`}, series)
}

func TestHTTPBearerTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("secret-token\n"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"status": "success", "data": []}`)
	}))
	defer srv.Close()

	backend, err := newHTTPBackend(&config.Config{Addr: srv.URL, BearerTokenFile: path})
	require.NoError(t, err)

	_, err = backend.ListLabels(context.Background())
	require.NoError(t, err)
}

func TestConcurrentQueriesAreIsolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Echo the query back as the only log line.
		fmt.Fprintf(w, `{
			"status": "success",
			"data": {
				"resultType": "streams",
				"result": [{
					"stream": {"app": "x"},
					"values": [["1704207600000000000", %q]]
				}]
			}
		}`, r.URL.Query().Get("query"))
	}))
	defer srv.Close()

	backend, err := newHTTPBackend(&config.Config{Addr: srv.URL})
	require.NoError(t, err)
	svc := newServiceWithBackend(backend, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			query := fmt.Sprintf(`{app="x-%d"}`, i)
			out, err := svc.QueryLogs(context.Background(), QueryOptions{Query: query, Quiet: true})
			assert.NoError(t, err)
			assert.Contains(t, out, query)
		}(i)
	}
	wg.Wait()
}
