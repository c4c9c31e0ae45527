package history

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"template-builder/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	method string
	path   string
	body   map[string]interface{}
}

func newTestServer(t *testing.T, status int) (*elasticsearch.Client, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(data, &body)
		captured = append(captured, capturedRequest{method: r.Method, path: r.URL.Path, body: body})

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, &captured
}

func TestElasticSink_Record(t *testing.T) {
	client, captured := newTestServer(t, http.StatusCreated)
	sink := NewElasticSink(client, "template-builds", logger.NewTestLogger(t))

	err := sink.Record(context.Background(), Entry{
		BuildID: "build-tpl1-1-abc123", TemplateID: "tpl-1", Success: true,
		ComponentsGenerated: 2, PerformanceImprovement: "3.5x",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/template-builds/_doc/build-tpl1-1-abc123", req.path)
	assert.Equal(t, "3.5x", req.body["performanceImprovement"])
	assert.Equal(t, "2024-05-01T12:00:00Z", req.body["@timestamp"])
}

func TestElasticSink_RejectedBuildGetsGeneratedID(t *testing.T) {
	client, captured := newTestServer(t, http.StatusCreated)
	sink := NewElasticSink(client, "template-builds", logger.NewTestLogger(t))

	require.NoError(t, sink.Record(context.Background(), Entry{TemplateID: "tpl-1", ErrorKind: "VALIDATION_FAILED"}))
	assert.True(t, strings.HasPrefix((*captured)[0].path, "/template-builds/_doc/rejected-"))
}

func TestElasticSink_ErrorResponse(t *testing.T) {
	client, _ := newTestServer(t, http.StatusBadRequest)
	sink := NewElasticSink(client, "template-builds", logger.NewTestLogger(t))

	err := sink.Record(context.Background(), Entry{BuildID: "b1"})
	assert.Error(t, err)
}
