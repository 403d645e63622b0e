package llm

import (
	"context"
	"fmt"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config は New に渡すプロバイダ設定です。
type Config struct {
	Provider string
	Model    string
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Trace    bool
}

// New は Config に従って LLM を生成します。Trace が true なら Traced で包みます。
func New(ctx context.Context, cfg Config) (LLM, error) {
	var (
		gen LLM
		err error
	)
	switch cfg.Provider {
	case ProviderGemini, "":
		gc := cfg.Gemini
		if gc.Model == "" {
			gc.Model = cfg.Model
		}
		gen, err = NewGemini(ctx, gc)
	case ProviderOpenAI:
		oc := cfg.OpenAI
		if oc.Model == "" {
			oc.Model = cfg.Model
		}
		gen, err = NewOpenAI(oc)
	default:
		return nil, fmt.Errorf("llm.New: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Trace {
		provider := cfg.Provider
		if provider == "" {
			provider = ProviderGemini
		}
		gen = NewTraced(gen, provider, cfg.Model, nil)
	}
	return gen, nil
}
