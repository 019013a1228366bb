package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/docdesk/internal/config"
	"github.com/sashabaranov/go-openai"
)

const ocrPrompt = `Extract all text visible in this image.
Return only the text, preserving reading order and line breaks. If there is no text, return an empty response.`

// Vision reads text out of images with an OpenAI-compatible vision model.
type Vision struct {
	client *openai.Client
	model  string
}

// NewVision creates a vision OCR client. An empty base URL targets OpenAI.
func NewVision(cfg config.Config) *Vision {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.VisionBaseURL != "" {
		clientConfig.BaseURL = cfg.VisionBaseURL
	}
	return &Vision{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.VisionModel,
	}
}

// ReadImage returns the text in the image given as a data URL.
func (v *Vision) ReadImage(ctx context.Context, dataURL string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: ocrPrompt},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					},
				},
			},
		}},
		MaxTokens: 4096,
	}

	resp, err := v.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", wrapFatalError(err))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from vision model")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
