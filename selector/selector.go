// Package selector は、場面ごとに話す声を選び、判定を行います。
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/sat8bit/chorus/dice"
	"github.com/sat8bit/chorus/random"
	"github.com/sat8bit/chorus/relation"
	"github.com/sat8bit/chorus/relevance"
	"github.com/sat8bit/chorus/scene"
	"github.com/sat8bit/chorus/state"
	"github.com/sat8bit/chorus/voice"
)

// Reason は声が選ばれた理由です。
type Reason string

const (
	ReasonPrimary Reason = "primary"
	ReasonCascade Reason = "cascade"
	ReasonPrimal  Reason = "primal"
)

const (
	acceptFloor = 0.2
	acceptScale = 0.8
)

// Selection は、今回話すことになった声です。呼び出しごとに作られ、使い終われば捨てられます。
type Selection struct {
	Voice  *voice.Voice
	Reason Reason
	// Relevance は primary の場合にだけ設定されます。
	Relevance *relevance.Score
	// Check は判定を行わない原始の声や、判定の入力が不正だった場合は nil です。
	Check *dice.Check
	// RespondingTo と CascadeRule は cascade の場合にだけ設定されます。
	RespondingTo string
	CascadeRule  string
}

func (s Selection) Primal() bool  { return s.Reason == ReasonPrimal }
func (s Selection) Cascade() bool { return s.Reason == ReasonCascade }

// Options は Selector の任意の設定です。
type Options struct {
	Luck   dice.Luck
	Logger *slog.Logger
}

// Selector は選択の手順をまとめる orchestrator です。
type Selector struct {
	pool     *voice.Pool
	scorer   *relevance.Scorer
	graph    *relation.Graph
	statuses dice.StatusTable
	primal   *PrimalRules
	luck     dice.Luck
	logger   *slog.Logger
}

func New(
	pool *voice.Pool,
	scorer *relevance.Scorer,
	graph *relation.Graph,
	statuses dice.StatusTable,
	primal *PrimalRules,
	opts Options,
) *Selector {
	if opts.Luck == nil {
		opts.Luck = dice.NoLuck{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if primal == nil {
		primal = &PrimalRules{KeywordChance: defaultKeywordChance, FlatChance: defaultFlatChance}
	}
	return &Selector{
		pool:     pool,
		scorer:   scorer,
		graph:    graph,
		statuses: statuses,
		primal:   primal,
		luck:     opts.Luck,
		logger:   opts.Logger.With("source", "selector"),
	}
}

// Settings は、スナップショットの設定を正規化したものを返します。
func (s *Selector) Settings(snap state.Snapshot) (state.Settings, error) {
	if err := snap.Settings.Validate(); err != nil {
		return state.Settings{}, err
	}
	return snap.Settings.Normalize(), nil
}

// PrimalCandidates は、抽選前に目覚めている原始の声を返します。
func (s *Selector) PrimalCandidates(snap state.Snapshot) []string {
	return s.primal.Candidates(snap)
}

// Select は話す声を選び、それぞれの判定を行います。
// 結果は [原始の声] + [primary] + [cascade] の順で、MaxVoices を超えません。
// 原始の声が切り捨てられることはなく、実際に話す原始の声の数が MaxVoices を超えたときだけ上限を上回ります。
func (s *Selector) Select(ctx context.Context, vec scene.Vector, snap state.Snapshot, src random.Source) ([]Selection, error) {
	settings, err := s.Settings(snap)
	if err != nil {
		return nil, fmt.Errorf("selector.Select: %w", err)
	}
	hits := s.scorer.KeywordHits(vec.Text)
	chosen := map[string]struct{}{}

	// 1. 原始の声
	var primal []Selection
	for _, id := range s.primal.gate(snap, hits, src) {
		v, err := s.pool.Get(id)
		if err != nil {
			s.logger.WarnContext(ctx, "primal voice is not in the pool", "voice", id)
			continue
		}
		chosen[id] = struct{}{}
		primal = append(primal, Selection{Voice: v, Reason: ReasonPrimal})
	}

	// 2. 枠の計算
	remaining := max(settings.MinVoices, settings.MaxVoices-len(primal))

	// 3. primary の抽選
	primaries := s.samplePrimaries(vec, snap, settings, remaining, len(primal) > 0, src)
	for _, p := range primaries {
		chosen[p.Voice.ID] = struct{}{}
	}

	// 4. cascade の展開
	cascades := s.expandCascades(primaries, vec.Text, settings.Cascade(), chosen, src)

	// 5. 上限の適用
	limit := max(settings.MaxVoices, len(primal))
	selections := capSelections(primal, primaries, cascades, limit)

	// 6. 判定
	roller := dice.NewRoller(src)
	for i := range selections {
		s.check(ctx, &selections[i], vec, snap, roller, src)
	}

	s.logger.DebugContext(ctx, "voices selected",
		"primal", len(primal),
		"primaries", len(primaries),
		"cascades", len(cascades),
		"total", len(selections),
		"max", limit,
	)
	return selections, nil
}

func (s *Selector) samplePrimaries(vec scene.Vector, snap state.Snapshot, settings state.Settings, remaining int, primalSpeaks bool, src random.Source) []Selection {
	scores := s.scorer.ScoreAll(vec, snap, src)
	spread := float64(settings.MaxVoices - settings.MinVoices)
	target := min(remaining, int(math.Round(float64(settings.MinVoices)+spread*vec.Max())))

	accepted := make([]bool, len(scores))
	count := 0
	for i, sc := range scores {
		if count >= target {
			break
		}
		if random.Bernoulli(src, acceptFloor+acceptScale*sc.Value) {
			accepted[i] = true
			count++
		}
	}

	floor := settings.MinVoices
	if primalSpeaks {
		floor = 0
	}
	floor = min(floor, target)
	for i := range scores {
		if count >= floor {
			break
		}
		if !accepted[i] {
			accepted[i] = true
			count++
		}
	}

	out := make([]Selection, 0, count)
	for i, sc := range scores {
		if !accepted[i] {
			continue
		}
		v, err := s.pool.Get(sc.VoiceID)
		if err != nil {
			continue
		}
		score := sc
		out = append(out, Selection{Voice: v, Reason: ReasonPrimary, Relevance: &score})
	}
	return out
}

func (s *Selector) expandCascades(primaries []Selection, text string, limit int, chosen map[string]struct{}, src random.Source) []Selection {
	var out []Selection
	for _, p := range primaries {
		if len(out) >= limit {
			break
		}
		for _, r := range s.graph.CascadeResponders(p.Voice.ID, text, src) {
			if len(out) >= limit {
				break
			}
			if _, ok := chosen[r.VoiceID]; ok {
				continue
			}
			v, err := s.pool.Get(r.VoiceID)
			if err != nil {
				continue
			}
			chosen[r.VoiceID] = struct{}{}
			out = append(out, Selection{
				Voice:        v,
				Reason:       ReasonCascade,
				RespondingTo: p.Voice.ID,
				CascadeRule:  r.RuleID,
			})
		}
	}
	return out
}

func capSelections(primal, primaries, cascades []Selection, limit int) []Selection {
	out := slices.Clone(primal)
	room := max(limit-len(out), 0)
	if len(primaries) > room {
		primaries = primaries[:room]
	}
	out = append(out, primaries...)

	kept := map[string]struct{}{}
	for _, p := range primaries {
		kept[p.Voice.ID] = struct{}{}
	}
	for _, c := range cascades {
		if len(out) >= limit {
			break
		}
		if _, ok := kept[c.RespondingTo]; !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Selector) check(ctx context.Context, sel *Selection, vec scene.Vector, snap state.Snapshot, roller *dice.Roller, src random.Source) {
	subject := dice.Subject{Primal: sel.Primal(), Cascade: sel.Cascade()}
	if sel.Relevance != nil {
		subject.Relevance = sel.Relevance.Value
	}
	ok, difficulty := dice.DetermineDifficulty(subject, vec, src)
	if !ok {
		return
	}

	v := sel.Voice
	level := dice.EffectiveLevel(
		snap.Level(v.ID, v.BaseLevel),
		snap.Penalty(v.ID),
		dice.StatusModifier(s.statuses, v.ID, snap.ActiveStatuses),
		s.luck.Modifier(v.ID, snap),
	)
	c, err := roller.Roll(level, difficulty)
	if err != nil {
		s.logger.WarnContext(ctx, "check skipped", "voice", v.ID, "error", err)
		return
	}
	sel.Check = &c
}
