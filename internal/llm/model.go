// Package llm provides the text and vision models behind the capability gateway.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/docdesk/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	answerSystemPrompt = `You are a document assistant. Answer the user's question based ONLY on the provided document.
If the document doesn't contain the answer, say that it isn't in the document.
Answer in the language of the question and keep it concise.`

	answerUserPrompt = `Document:
%s

Question: %s

Answer:`

	translateSystemPrompt = `You are a professional translator. Translate the user's text from %s to %s.
- Output only the translation, with no notes or quotes
- Preserve line breaks, numbers, and names
- Keep the register of the original`

	// Translation should be close to deterministic.
	translateTemperature = 0.2
)

// Model wraps a langchaingo LLM for answering and translation.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates the text model for cfg.LLMProvider.
func NewModel(ctx context.Context, cfg config.Config) (*Model, error) {
	model, err := newProviderModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.LLMProvider, err)
	}
	return &Model{llm: model, modelName: cfg.LLMModel}, nil
}

func newProviderModel(ctx context.Context, cfg config.Config) (llms.Model, error) {
	switch cfg.LLMProvider {
	case config.ProviderOllama:
		return ollama.New(ollama.WithModel(cfg.LLMModel), ollama.WithServerURL(cfg.OllamaHost))

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return openai.New(openai.WithToken(cfg.OpenAIAPIKey), openai.WithModel(cfg.LLMModel))

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is not set")
		}
		return anthropic.New(anthropic.WithToken(cfg.AnthropicAPIKey), anthropic.WithModel(cfg.LLMModel))

	case config.ProviderBedrock:
		// Credentials and region come from the standard AWS chain
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(cfg.LLMModel),
		)

	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

// GenerateWithSystem sends a system and a user message and returns the trimmed reply.
// Provider errors that retrying cannot fix are marked with ErrFatalAPI.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...llms.CallOption) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", wrapFatalError(err))
	}
	if len(response.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// AnswerQuestion answers question using only documentText.
func (m *Model) AnswerQuestion(ctx context.Context, question, documentText string) (string, error) {
	return m.GenerateWithSystem(ctx, answerSystemPrompt, fmt.Sprintf(answerUserPrompt, documentText, question))
}

// Translate translates text from sourceLanguage to targetLanguage.
// Languages are display names such as "English" or "Hindi (हिंदी)".
func (m *Model) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	return m.GenerateWithSystem(ctx,
		fmt.Sprintf(translateSystemPrompt, sourceLanguage, targetLanguage),
		text,
		llms.WithTemperature(translateTemperature),
	)
}
