package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/payroll-desk/internal/config"
	"github.com/spec-kit/payroll-desk/internal/domain"
)

func brief() Brief {
	return Brief{
		TicketID:    "t2",
		Title:       "Overtime error at Plant 2",
		Type:        domain.TicketTypeIncident,
		Description: "Luis worked 12 hours, not 21.",
		Priority:    domain.PriorityCritical,
	}
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func testConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		Enabled:     true,
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		BaseURL:     baseURL,
		Temperature: 0.3,
		MaxTokens:   200,
	}
}

func TestOpenAIAnalyzerReturnsContent(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "  **Problem Summary**: overtime typo.  ")
	defer srv.Close()

	text, err := NewOpenAIAnalyzer(testConfig(srv.URL+"/v1"), nil).Analyze(context.Background(), brief())
	require.NoError(t, err)
	assert.Equal(t, "**Problem Summary**: overtime typo.", text)
}

func TestOpenAIAnalyzerEmptyContent(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "")
	defer srv.Close()

	_, err := NewOpenAIAnalyzer(testConfig(srv.URL+"/v1"), nil).Analyze(context.Background(), brief())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestStartSettlesOnceWithFallbackText(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	cfg := testConfig(srv.URL + "/v1")
	res, ok := <-Start(context.Background(), NewOpenAIAnalyzer(cfg, nil), brief())
	require.True(t, ok)
	assert.Error(t, res.Err)
	assert.Equal(t, MsgUnavailable, res.Text)
	assert.Equal(t, "t2", res.TicketID)

	_, ok = <-Start(context.Background(), Disabled{}, brief())
	assert.True(t, ok)
}

func TestNewFallsBackToDisabled(t *testing.T) {
	a := New(config.AIConfig{Enabled: true}, nil)
	_, isDisabled := a.(Disabled)
	assert.True(t, isDisabled)

	res := <-Start(context.Background(), a, brief())
	assert.ErrorIs(t, res.Err, ErrNotConfigured)
	assert.Equal(t, MsgNotConfigured, res.Text)
}

func TestPromptCarriesTicketFields(t *testing.T) {
	p := buildPrompt(brief())
	assert.Contains(t, p, "Overtime error at Plant 2")
	assert.Contains(t, p, "Incident")
	assert.Contains(t, p, "CRITICAL")
	assert.Contains(t, p, "Payroll Impact")
}
