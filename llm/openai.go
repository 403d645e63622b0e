package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIConfig は OpenAI 互換 API の接続設定です。
// BaseURL を指定すると互換サーバ (ローカル推論サーバなど) に向けられます。
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
}

type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm.NewOpenAI: an API key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAI{client: &client, model: cfg.Model}, nil
}

func (o *OpenAI) Generate(ctx context.Context, input GenerateInput) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(input.System),
			openai.UserMessage(input.User),
		},
		MaxCompletionTokens: openai.Int(int64(input.maxTokens())),
	}

	resp, err := o.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm.OpenAI.Generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm.OpenAI.Generate: no choices: %w", ErrEmptyResponse)
	}

	txt := strings.TrimSpace(resp.Choices[0].Message.Content)
	if txt == "" {
		return "", fmt.Errorf("llm.OpenAI.Generate: %w", ErrEmptyResponse)
	}
	return txt, nil
}

var _ LLM = &OpenAI{}
