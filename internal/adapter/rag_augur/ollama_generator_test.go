package rag_augur

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"health-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions(t *testing.T) {
	gen := NewOllamaGenerator("http://localhost:11434", "gemma3:12b", 0, discardLogger(), nil)

	opts := gen.buildOptions(1024)
	assert.Equal(t, 0.0, opts["temperature"])
	assert.Equal(t, 1024, opts["num_predict"])

	opts = gen.buildOptions(0)
	_, ok := opts["num_predict"]
	assert.False(t, ok)
}

func TestGetThinkParam(t *testing.T) {
	assert.Nil(t, NewOllamaGenerator("http://x", "gemma3:12b", 0, discardLogger(), nil).getThinkParam())
	assert.Equal(t, false, NewOllamaGenerator("http://x", "qwen3:8b", 0, discardLogger(), nil).getThinkParam())
}

func TestOllamaGenerator_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "gemma3:12b", req["model"])
		assert.Equal(t, false, req["stream"])

		msgs, ok := req["messages"].([]interface{})
		require.True(t, ok)
		require.Len(t, msgs, 2)
		first := msgs[0].(map[string]interface{})
		assert.Equal(t, "system", first["role"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  asthma, wheezing  "},"done":true}`))
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "gemma3:12b", 0, discardLogger(), nil)
	resp, err := gen.Chat(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "You generate search terms."},
		{Role: domain.RoleUser, Content: "What is asthma?"},
	}, 256)

	require.NoError(t, err)
	assert.True(t, resp.Done)
	assert.Equal(t, "asthma, wheezing", resp.Text)
	assert.Equal(t, "gemma3:12b", gen.Version())
}

func TestOllamaGenerator_Chat_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "missing", 0, discardLogger(), nil)
	resp, err := gen.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}}, 0)

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
