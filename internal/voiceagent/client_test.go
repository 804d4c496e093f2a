package voiceagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAgent(t *testing.T) {
	var gotAuth string
	var gotSpec AgentSpec
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/agents", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSpec))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"agt_123","name":"CFO","status":"ready"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test")
	agent, err := client.CreateAgent(context.Background(), AgentSpec{Name: "CFO", Temperament: "skeptical"})
	require.NoError(t, err)
	assert.Equal(t, "agt_123", agent.ID)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "skeptical", gotSpec.Temperament)
}

func TestUpdateAgentUsesPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/v1/agents/agt_123", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"agt_123","name":"CFO v2","status":"ready"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test")
	agent, err := client.UpdateAgent(context.Background(), "agt_123", AgentSpec{Name: "CFO v2"})
	require.NoError(t, err)
	assert.Equal(t, "CFO v2", agent.Name)
}

func TestProviderErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk-test")
	_, err := client.CreateAgent(context.Background(), AgentSpec{Name: "CFO"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestMissingBaseURL(t *testing.T) {
	client := &Client{}
	_, err := client.CreateAgent(context.Background(), AgentSpec{Name: "CFO"})
	assert.Error(t, err)
}
