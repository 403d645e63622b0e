package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sat8bit/chorus/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestFuncAdapter(t *testing.T) {
	var got llm.GenerateInput
	gen := llm.Func(func(_ context.Context, in llm.GenerateInput) (string, error) {
		got = in
		return "LOGIC: ok", nil
	})

	out, err := gen.Generate(context.Background(), llm.GenerateInput{System: "sys", User: "usr"})
	require.NoError(t, err)
	assert.Equal(t, "LOGIC: ok", out)
	assert.Equal(t, "sys", got.System)
}

func TestOpenAIGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "test-model",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "  LOGIC: The door was locked from inside.\n"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
		}`)
	}))
	defer srv.Close()

	gen, err := llm.NewOpenAI(llm.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), llm.GenerateInput{System: "voices", User: "scene", MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "LOGIC: The door was locked from inside.", out)

	assert.Equal(t, "test-model", body["model"])
	assert.EqualValues(t, 50, body["max_completion_tokens"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":0,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	gen, err := llm.NewOpenAI(llm.OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), llm.GenerateInput{User: "scene"})
	require.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	gen, err := llm.NewOpenAI(llm.OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), llm.GenerateInput{User: "scene"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.OpenAI.Generate")
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := llm.NewOpenAI(llm.OpenAIConfig{Model: "m"})
	require.Error(t, err)
}

func TestGeminiGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "test-model:generateContent")
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates": [{"content": {"role": "model", "parts": [
			{"text": "SHIVERS: The city exhales.\n"},
			{"text": "LOGIC: Wind."}
		]}}]}`)
	}))
	defer srv.Close()

	gen, err := llm.NewGemini(context.Background(), llm.GeminiConfig{APIKey: "k", Model: "test-model", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), llm.GenerateInput{System: "voices", User: "scene"})
	require.NoError(t, err)
	assert.Equal(t, "SHIVERS: The city exhales.\nLOGIC: Wind.", out)
	assert.Contains(t, body, "systemInstruction")
}

func TestGeminiEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	gen, err := llm.NewGemini(context.Background(), llm.GeminiConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), llm.GenerateInput{User: "scene"})
	require.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestNewGeminiRequiresCredentials(t *testing.T) {
	_, err := llm.NewGemini(context.Background(), llm.GeminiConfig{Model: "m"})
	require.Error(t, err)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := llm.New(context.Background(), llm.Config{Provider: "carrier-pigeon"})
	require.Error(t, err)
}

func TestNewOpenAIProviderWithTrace(t *testing.T) {
	gen, err := llm.New(context.Background(), llm.Config{
		Provider: llm.ProviderOpenAI,
		Model:    "m",
		OpenAI:   llm.OpenAIConfig{APIKey: "k"},
		Trace:    true,
	})
	require.NoError(t, err)
	assert.IsType(t, &llm.Traced{}, gen)
}

func TestTracedRecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tracer := tp.Tracer("test")

	ok := llm.NewTraced(llm.Func(func(context.Context, llm.GenerateInput) (string, error) {
		return "DRAMA: Sire!", nil
	}), "openai", "m", tracer)
	out, err := ok.Generate(context.Background(), llm.GenerateInput{User: "scene"})
	require.NoError(t, err)
	assert.Equal(t, "DRAMA: Sire!", out)

	boom := errors.New("boom")
	bad := llm.NewTraced(llm.Func(func(context.Context, llm.GenerateInput) (string, error) {
		return "", boom
	}), "openai", "m", tracer)
	_, err = bad.Generate(context.Background(), llm.GenerateInput{User: "scene"})
	require.ErrorIs(t, err, boom)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "llm.generate", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
