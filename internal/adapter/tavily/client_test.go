package tavily

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"health-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("", "", 3, time.Second, testLogger(), nil)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "new glp-1 approvals", req.Query)
		assert.Equal(t, 2, req.MaxResults)
		assert.Equal(t, "basic", req.SearchDepth)

		_, _ = w.Write([]byte(`{"results":[
			{"title":"GLP-1 agonists","url":"https://example.org/glp1","content":"GLP-1 receptor agonists lower blood sugar.","score":0.9},
			{"title":"","url":"https://example.org/untitled","content":"dropped"},
			{"title":"Semaglutide","url":"https://example.org/sema","content":"Semaglutide is a GLP-1 agonist."},
			{"title":"Third","url":"https://example.org/3","content":"over the limit"}
		]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tvly-test", 3, time.Second, testLogger(), nil)
	require.NoError(t, err)

	docs := client.Search(context.Background(), "new glp-1 approvals", 2)
	require.Len(t, docs, 2)
	assert.Equal(t, domain.Document{Title: "GLP-1 agonists", Summary: "GLP-1 receptor agonists lower blood sugar.", URL: "https://example.org/glp1"}, docs[0])
	assert.Equal(t, "Semaglutide", docs[1].Title)
}

func TestClient_Search_DegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tvly-test", 3, time.Second, testLogger(), nil)
	require.NoError(t, err)

	docs := client.Search(context.Background(), "asthma", 3)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestClient_Search_BlankQuery(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tvly-test", 3, time.Second, testLogger(), nil)
	require.NoError(t, err)

	assert.Empty(t, client.Search(context.Background(), " ", 3))
	assert.Equal(t, int32(0), hits.Load())
}
