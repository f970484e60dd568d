package medlineplus

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asthmaXML = `<?xml version="1.0" encoding="UTF-8"?>
<nlmSearchResult>
  <list>
    <document url="https://medlineplus.gov/asthma.html">
      <content name="title">Asthma</content>
      <content name="FullSummary">&lt;p&gt;Asthma is a condition affecting airways.&lt;/p&gt;</content>
    </document>
    <document url="https://medlineplus.gov/asthmainchildren.html">
      <content name="title">Asthma in Children</content>
      <content name="FullSummary">&lt;p&gt;Asthma is the most common chronic disease in children.&lt;/p&gt;</content>
    </document>
  </list>
</nlmSearchResult>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestClient_Search(t *testing.T) {
	server, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "healthTopics", r.URL.Query().Get("db"))
		assert.Equal(t, "asthma", r.URL.Query().Get("term"))
		assert.Equal(t, "3", r.URL.Query().Get("retmax"))
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(asthmaXML))
	})

	client := NewClient(Config{BaseURL: server.URL}, testLogger(), nil)
	docs := client.Search(context.Background(), "  asthma ", 0)

	require.Len(t, docs, 2)
	assert.Equal(t, "Asthma", docs[0].Title)
	assert.Equal(t, "Asthma is a condition affecting airways.", docs[0].Summary)
	assert.Equal(t, "https://medlineplus.gov/asthma.html", docs[0].URL)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Search_TruncatesToMaxResults(t *testing.T) {
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(asthmaXML))
	})

	client := NewClient(Config{BaseURL: server.URL}, testLogger(), nil)
	docs := client.Search(context.Background(), "asthma", 1)

	require.Len(t, docs, 1)
	assert.Equal(t, "Asthma", docs[0].Title)
}

func TestClient_Search_BlankQuerySkipsNetwork(t *testing.T) {
	server, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(asthmaXML))
	})

	client := NewClient(Config{BaseURL: server.URL}, testLogger(), nil)

	for _, q := range []string{"", "   ", "\t\n"} {
		assert.Empty(t, client.Search(context.Background(), q, 3))
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_Search_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed xml",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<nlmSearchResult><list><document>"))
			},
		},
		{
			name: "slow upstream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(asthmaXML))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, tt.handler)
			client := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, testLogger(), nil)

			docs := client.Search(context.Background(), "asthma", 3)
			assert.NotNil(t, docs)
			assert.Empty(t, docs)
		})
	}
}

func TestClient_Search_UnreachableHost(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1/ws/query", Timeout: time.Second}, testLogger(), nil)
	assert.Empty(t, client.Search(context.Background(), "asthma", 3))
}

func TestClient_Search_CachesSuccessfulLookups(t *testing.T) {
	server, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(asthmaXML))
	})

	client := NewClient(Config{BaseURL: server.URL, CacheSize: 8, CacheTTL: time.Minute}, testLogger(), nil)

	first := client.Search(context.Background(), "asthma", 3)
	second := client.Search(context.Background(), "Asthma", 3)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())

	// Mutating a returned slice must not leak into the cache.
	second[0].Title = "changed"
	assert.Equal(t, "Asthma", client.Search(context.Background(), "asthma", 3)[0].Title)
}

func TestClient_Search_DoesNotCacheFailures(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(asthmaXML))
	})

	client := NewClient(Config{BaseURL: server.URL, CacheSize: 8, CacheTTL: time.Minute}, testLogger(), nil)

	assert.Empty(t, client.Search(context.Background(), "asthma", 3))
	fail.Store(false)
	assert.Len(t, client.Search(context.Background(), "asthma", 3), 2)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_Search_RateLimitDegradesToEmpty(t *testing.T) {
	server, hits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(asthmaXML))
	})

	client := NewClient(Config{BaseURL: server.URL, RatePerMinute: 1, Timeout: 50 * time.Millisecond}, testLogger(), nil)

	assert.Len(t, client.Search(context.Background(), "asthma", 3), 2)
	assert.Empty(t, client.Search(context.Background(), "wheezing", 3))
	assert.Equal(t, int32(1), hits.Load())
}
