package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_SendsTranscript(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[PISTA] Hace frío"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL+"/v1/", "sk-test", "small-model", 5*time.Second)
	transcript := []Message{
		{Role: RoleSystem, Content: "secret"},
		{Role: RoleUser, Content: "¿hace calor?"},
	}
	out, err := c.Complete(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "[PISTA] Hace frío", out.Text)
	assert.Equal(t, "small-model", got.Model)
	assert.Equal(t, transcript, got.Messages)
}

func TestOpenAIClient_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
		"blank content": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  "}}]}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			c := NewOpenAIClient(srv.URL, "", "m", 5*time.Second)
			_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hola"}})
			assert.ErrorIs(t, err, ErrProviderUnavailable)
		})
	}
}

func TestOpenAIClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAIClient(url, "", "m", time.Second)
	_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hola"}})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
