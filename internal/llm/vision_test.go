package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raphaelgruber/docdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisionReadImage(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Hello world\n"}}]
		}`)
	}))
	defer srv.Close()

	v := NewVision(config.Config{
		OpenAIAPIKey:  "sk-test",
		VisionModel:   "gpt-4o-mini",
		VisionBaseURL: srv.URL + "/v1",
	})

	text, err := v.ReadImage(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,AAAA", image["url"])
}

func TestVisionProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`)
	}))
	defer srv.Close()

	v := NewVision(config.Config{OpenAIAPIKey: "bad", VisionModel: "m", VisionBaseURL: srv.URL + "/v1"})
	_, err := v.ReadImage(context.Background(), "data:image/png;base64,AAAA")
	assert.ErrorIs(t, err, ErrFatalAPI)
}
