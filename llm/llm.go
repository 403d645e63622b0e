package llm

import (
	"context"
	"errors"
)

// DefaultMaxTokens は、MaxTokens 未指定時の出力上限トークン数です。
const DefaultMaxTokens = 600

// ErrEmptyResponse は、生成器が本文を返さなかったことを示します。
var ErrEmptyResponse = errors.New("llm returned an empty response")

type LLM interface {
	// Generate generates text based on the provided prompt.
	Generate(ctx context.Context, input GenerateInput) (string, error)
}

// GenerateInput は、1 ターン分の生成指示です。
type GenerateInput struct {
	System    string // 声の一覧、判定結果、関係性、出力規則
	User      string // 場面の本文
	MaxTokens int
}

func (in GenerateInput) maxTokens() int {
	if in.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return in.MaxTokens
}

// Func は関数を LLM として扱うアダプタです。テストやドライランで使います。
type Func func(ctx context.Context, input GenerateInput) (string, error)

func (f Func) Generate(ctx context.Context, input GenerateInput) (string, error) {
	return f(ctx, input)
}

var _ LLM = Func(nil)
