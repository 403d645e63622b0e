// Package app は、設定から Engine とその周辺 (生成器、ジャーナル、トレース、ログ) を組み立てます。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/buslog"
	"github.com/sat8bit/chorus/chorus"
	"github.com/sat8bit/chorus/config"
	"github.com/sat8bit/chorus/journal"
	"github.com/sat8bit/chorus/llm"
	"github.com/sat8bit/chorus/logging"
	"github.com/sat8bit/chorus/observability"
	"github.com/sat8bit/chorus/random"
)

// Version はトレースのリソースに載せるバージョンです。
var Version = "dev"

// Options は Build の任意の設定です。
type Options struct {
	// LogOutput はログの出力先です。nil なら io.Discard。
	LogOutput io.Writer
	LogLevel  slog.Level
	// Bus があれば Warn 以上のログをバスにも流します。
	Bus bus.Bus
	// Generator を指定すると設定からの生成器の組み立てを省きます。
	Generator llm.LLM
	// NoGenerator は Plan だけを使う場合に true にします。
	NoGenerator bool
}

// App は組み立て済みの依存関係です。Close で後始末をします。
type App struct {
	Config  *config.Config
	Engine  *chorus.Engine
	Journal *journal.Journal
	Logger  *slog.Logger
	Tracing *observability.TracerProvider
}

// Build は cfg に従って App を組み立てます。
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := newLogger(opts)

	tp, err := observability.InitTracing(ctx, observability.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: Version,
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		Headers:        cfg.Tracing.Headers,
		Insecure:       cfg.Tracing.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("app.Build: %w", err)
	}
	a := &App{Config: cfg, Logger: logger, Tracing: tp}

	gen := opts.Generator
	if gen == nil && !opts.NoGenerator {
		gen, err = llm.New(ctx, llm.Config{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			Gemini: llm.GeminiConfig{
				APIKey:   cfg.Gemini.APIKey,
				Project:  cfg.Gemini.Project,
				Location: cfg.Gemini.Location,
			},
			OpenAI: llm.OpenAIConfig{
				APIKey:  cfg.OpenAI.APIKey,
				BaseURL: cfg.OpenAI.BaseURL,
			},
			Trace: tp.Enabled(),
		})
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("app.Build: %w", err)
		}
	}

	var rec chorus.Recorder
	if cfg.JournalEnabled() {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("app.Build: %w", err)
		}
		a.Journal = j
		rec = j
	}

	cat, err := chorus.LoadCatalog(ctx, cfg.RelationsDir, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("app.Build: %w", err)
	}

	eng, err := chorus.New(cat, gen, chorus.Options{
		Random:       random.NewSeeded(cfg.Seed),
		Bus:          opts.Bus,
		Journal:      rec,
		Logger:       logger,
		Tracer:       tp.Tracer("github.com/sat8bit/chorus"),
		ContextLimit: cfg.ContextLimit,
		MaxTokens:    cfg.MaxTokens,
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("app.Build: %w", err)
	}
	a.Engine = eng
	return a, nil
}

func newLogger(opts Options) *slog.Logger {
	out := opts.LogOutput
	if out == nil {
		out = io.Discard
	}
	var h slog.Handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.LogLevel})
	if opts.Bus != nil {
		h = buslog.NewBusHandler(h, opts.Bus, slog.LevelWarn)
	}
	return slog.New(logging.NewContextHandler(h))
}

// Close はジャーナルを閉じ、残りのスパンを送り出します。
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
	}
	if a.Tracing != nil {
		errs = append(errs, a.Tracing.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
