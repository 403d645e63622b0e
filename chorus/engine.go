// Package chorus は、場面 1 つに対する内なる声の反応を最初から最後まで組み立てます。
package chorus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/dice"
	"github.com/sat8bit/chorus/journal"
	"github.com/sat8bit/chorus/llm"
	"github.com/sat8bit/chorus/logging"
	"github.com/sat8bit/chorus/message"
	"github.com/sat8bit/chorus/prompt"
	"github.com/sat8bit/chorus/random"
	"github.com/sat8bit/chorus/response"
	"github.com/sat8bit/chorus/scene"
	"github.com/sat8bit/chorus/selector"
	"github.com/sat8bit/chorus/state"
	"github.com/sat8bit/chorus/turn"
)

// DefaultGenerateTimeout は、呼び出し側が待つのをやめた後も生成を待ち続ける上限です。
const DefaultGenerateTimeout = 2 * time.Minute

var (
	// ErrBusy は、前のターンの生成を待っている間に次の呼び出しが来たことを示します。
	ErrBusy = turn.ErrBusy
	// ErrAbandoned は、生成が返る前に呼び出し側の context が終わったことを示します。
	ErrAbandoned = errors.New("turn abandoned before the generator answered")
)

// Recorder はターンの記録先です。*journal.Journal が実装します。
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Options は Engine の任意の設定です。
type Options struct {
	Random          random.Source
	Luck            dice.Luck
	Bus             bus.Bus
	Journal         Recorder
	Turns           turn.Manager
	Logger          *slog.Logger
	Tracer          trace.Tracer
	ContextLimit    int
	MaxTokens       int
	GenerateTimeout time.Duration
}

// Engine は、選択、指示の組み立て、生成、解析、配信をつなぐ orchestrator です。
type Engine struct {
	catalog  *Catalog
	selector *selector.Selector
	builder  *prompt.Builder
	gen      llm.LLM

	src     random.Source
	bus     bus.Bus
	journal Recorder
	turns   turn.Manager
	epoch   turn.Epoch

	logger    *slog.Logger
	tracer    trace.Tracer
	maxTokens int
	timeout   time.Duration
}

// New は Engine を生成します。gen が nil の Engine は Plan だけを使えます。
func New(cat *Catalog, gen llm.LLM, opts Options) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("chorus.New: nil catalog")
	}
	scorer, err := cat.scorer()
	if err != nil {
		return nil, fmt.Errorf("chorus.New: %w", err)
	}

	if opts.Random == nil {
		opts.Random = random.NewSeeded(0)
	}
	if opts.Turns == nil {
		opts.Turns = turn.NewMutexManager()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/sat8bit/chorus")
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = DefaultGenerateTimeout
	}

	return &Engine{
		catalog: cat,
		selector: selector.New(cat.Pool, scorer, cat.Graph, cat.Statuses, cat.Primal, selector.Options{
			Luck:   opts.Luck,
			Logger: opts.Logger,
		}),
		builder:   prompt.NewBuilder(cat.Graph, opts.ContextLimit),
		gen:       gen,
		src:       opts.Random,
		bus:       opts.Bus,
		journal:   opts.Journal,
		turns:     opts.Turns,
		logger:    opts.Logger.With("source", "chorus"),
		tracer:    opts.Tracer,
		maxTokens: opts.MaxTokens,
		timeout:   opts.GenerateTimeout,
	}, nil
}

// Catalog は Engine が使っているデータ表を返します。
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Plan は声を選んで指示を組み立てるところまでを行い、生成器は呼びません。
// 乱数を引くのでゲートは取りますが、エポックは進めません。進行中のターンがあれば ErrBusy を返します。
func (e *Engine) Plan(ctx context.Context, text string, snap state.Snapshot) (*Turn, error) {
	if err := e.turns.TryAcquire(); err != nil {
		return nil, fmt.Errorf("chorus.Plan: %w", err)
	}
	defer e.turns.Release()

	t := &Turn{ID: uuid.NewString()}
	if err := e.plan(ctx, t, text, snap); err != nil {
		return nil, err
	}
	return t, nil
}

// React は場面に対する 1 ターンを実行します。
// 進行中のターンがあれば ErrBusy を返し、割り込ませません。
// 声が選ばれなければ生成器を呼ばずに空のターンを返します。
// 生成の途中で ctx が終わると ErrAbandoned を返します。その生成結果は、
// 新しいターンが始まっていなければ後から配信されます。
func (e *Engine) React(ctx context.Context, text string, snap state.Snapshot) (*Turn, error) {
	if err := e.turns.TryAcquire(); err != nil {
		return nil, fmt.Errorf("chorus.React: %w", err)
	}
	return e.react(ctx, "", text, snap)
}

// ReactScene は、タイトル付きの場面に対して 1 ターンを実行します。
// React と違い、進行中のターンがあれば終わるまで待ちます。場面を順に流す watch モード用です。
func (e *Engine) ReactScene(ctx context.Context, sc *scene.Scene, snap state.Snapshot) (*Turn, error) {
	if err := e.turns.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("chorus.ReactScene: %w", err)
	}
	return e.react(ctx, sc.Title, sc.Text, snap)
}

// react はゲートを取得済みの状態で呼ばれ、戻るまでに解放します。
func (e *Engine) react(ctx context.Context, title, text string, snap state.Snapshot) (*Turn, error) {
	released := false
	release := func() {
		if !released {
			released = true
			e.turns.Release()
		}
	}
	defer release()

	t := &Turn{ID: uuid.NewString(), Epoch: e.epoch.Next(), Title: title}
	ctx = logging.WithAttrs(ctx, slog.String("turn_id", t.ID), slog.Uint64("epoch", t.Epoch))
	ctx, span := e.tracer.Start(ctx, "chorus.react", trace.WithAttributes(
		attribute.String("chorus.turn_id", t.ID),
		attribute.Int64("chorus.epoch", int64(t.Epoch)),
	))
	defer span.End()

	if err := e.plan(ctx, t, text, snap); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("chorus.voices", len(t.Selections)))

	if t.Empty() {
		e.logger.InfoContext(ctx, "no voices selected; generator skipped")
		e.deliver(ctx, t)
		return t, nil
	}
	if e.gen == nil {
		return nil, fmt.Errorf("chorus.React: no generator configured")
	}

	type outcome struct {
		raw string
		err error
	}
	done := make(chan outcome, 1)
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	go func() {
		defer cancel()
		gctx, gspan := e.tracer.Start(genCtx, "chorus.generate")
		defer gspan.End()
		raw, err := e.gen.Generate(gctx, llm.GenerateInput{
			System:    t.Instruction.System,
			User:      t.Instruction.User,
			MaxTokens: e.maxTokens,
		})
		if err != nil {
			gspan.RecordError(err)
			gspan.SetStatus(codes.Error, err.Error())
		}
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
			e.logger.ErrorContext(ctx, "generator failed", "error", out.err)
			e.broadcast(&message.Message{TurnID: t.ID, Kind: message.KindError, Text: out.err.Error(), At: time.Now()})
			return nil, fmt.Errorf("chorus.React: %w", out.err)
		}
		e.finish(ctx, t, out.raw)
		e.deliver(ctx, t)
		return t, nil

	case <-ctx.Done():
		span.SetStatus(codes.Error, "abandoned")
		e.logger.WarnContext(ctx, "turn abandoned while generating", "error", ctx.Err())
		release()
		lateCtx := context.WithoutCancel(ctx)
		go func() {
			out := <-done
			e.deliverLate(lateCtx, t, out.raw, out.err)
		}()
		return nil, fmt.Errorf("chorus.React: %w: %w", ErrAbandoned, ctx.Err())
	}
}

func (e *Engine) plan(ctx context.Context, t *Turn, text string, snap state.Snapshot) error {
	ctx, span := e.tracer.Start(ctx, "chorus.select")
	defer span.End()

	t.Vector = scene.Analyze(text)
	sels, err := e.selector.Select(ctx, t.Vector, snap, e.src)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chorus.plan: %w", err)
	}
	t.Selections = sels
	if len(sels) > 0 {
		t.Instruction = e.builder.Build(sels, text, e.src)
	}
	return nil
}

func (e *Engine) finish(ctx context.Context, t *Turn, raw string) {
	t.Raw = raw
	t.Results, t.Report = response.Parse(raw, t.Selections)
	if t.Report.Dropped > 0 || t.Report.Duplicates > 0 {
		e.logger.WarnContext(ctx, "generator went off script",
			"dropped", t.Report.Dropped,
			"duplicates", t.Report.Duplicates,
		)
	}
	if t.Report.Fallback {
		e.logger.WarnContext(ctx, "no labelled lines parsed; using fallback", "voice", t.Results[0].VoiceID)
	}
}

// deliverLate は、呼び出し側が待つのをやめた後に返ってきた生成結果を扱います。
// ゲートを取ってからエポックを確かめるので、新しいターンの配信と混ざりません。
// より新しいエポックが始まっていれば結果は捨てます。
func (e *Engine) deliverLate(ctx context.Context, t *Turn, raw string, err error) {
	if aerr := e.turns.Acquire(ctx); aerr != nil {
		e.logger.DebugContext(ctx, "late result dropped", "error", aerr)
		return
	}
	defer e.turns.Release()

	if !e.epoch.IsCurrent(t.Epoch) {
		e.logger.DebugContext(ctx, "late result dropped; newer turn started", "current", e.epoch.Current())
		return
	}
	if err != nil {
		e.logger.WarnContext(ctx, "abandoned turn failed", "error", err)
		return
	}
	e.finish(ctx, t, raw)
	e.deliver(ctx, t)
}

func (e *Engine) deliver(ctx context.Context, t *Turn) {
	if e.journal != nil {
		if err := e.journal.Record(ctx, t.entry()); err != nil {
			e.logger.ErrorContext(ctx, "failed to record turn", "error", err)
		}
	}

	e.broadcast(message.Scene(t.ID, t.Title, t.Vector.Text))
	for _, r := range t.Results {
		e.broadcast(message.Voice(t.ID, r))
	}
	e.broadcast(message.TurnEnd(t.ID))
	e.logger.InfoContext(ctx, "turn delivered", "voices", len(t.Results))
}

func (e *Engine) broadcast(m *message.Message) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Broadcast(m); err != nil {
		e.logger.Debug("broadcast failed", "kind", m.Kind, "error", err)
	}
}
