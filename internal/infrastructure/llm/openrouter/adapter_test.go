package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
	"framefill/internal/infrastructure/logger"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertResponseMessage_WithContent(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "Hello, world!",
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Equal(t, "Hello, world!", result.Content)
}

func TestConvertResponseMessage_ReasoningOnly(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:             "assistant",
		ReasoningContent: `{"success": true}`,
	}

	assert.Equal(t, `{"success": true}`, convertResponseMessage(msg).Content)
}

func TestConvertMessages(t *testing.T) {
	result := convertMessages([]entity.Message{
		{Role: entity.RoleSystem, Content: "Be brief"},
		{Role: entity.RoleUser, Content: "Hello"},
	})

	require.Len(t, result, 2)
	assert.Equal(t, "system", result[0].Role)
	assert.Equal(t, "Be brief", result[0].Content)
	assert.Equal(t, "user", result[1].Role)
	assert.Equal(t, "Hello", result[1].Content)
}

func newServer(t *testing.T, got *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: `{"success": true}`},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChat(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newServer(t, &got)

	cfg := DefaultConfig("secret", "default/model")
	cfg.BaseURL = srv.URL
	cfg.Logger = logger.NewNop()
	a := NewOpenRouterAdapter(cfg)

	resp, err := a.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "Hello"}},
		JSONMode: true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"success": true}`, resp.Message.Content)
	assert.Equal(t, "default/model", got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)
}

func TestChat_ModelOverride(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newServer(t, &got)

	cfg := DefaultConfig("secret", "default/model")
	cfg.BaseURL = srv.URL
	a := NewOpenRouterAdapter(cfg)

	_, err := a.Chat(context.Background(), output.ChatRequest{
		Model:    "other/model",
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "Hello"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "other/model", got.Model)
	assert.Nil(t, got.ResponseFormat)
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig("secret", "m")
	cfg.BaseURL = srv.URL
	_, err := NewOpenRouterAdapter(cfg).Chat(context.Background(), output.ChatRequest{})
	assert.EqualError(t, err, "no choices in response")
}
