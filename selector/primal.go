package selector

import (
	"fmt"

	"github.com/sat8bit/chorus/configs"
	"github.com/sat8bit/chorus/random"
	"github.com/sat8bit/chorus/state"
	"github.com/sat8bit/chorus/voice"
	"gopkg.in/yaml.v3"
)

const (
	// KindStatus は、いずれかのステータスで声のグループをまとめて目覚めさせます。
	KindStatus = "status"
	// KindCombo は、ステータスが Min 個以上そろったときに目覚めさせます。
	KindCombo = "combo"

	defaultKeywordChance = 0.9
	defaultFlatChance    = 0.7
	defaultComboMin      = 2
)

// PrimalRule は原始の声を目覚めさせる条件です。
// Voices はひとつのグループとして扱われ、個別には話しません。
type PrimalRule struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind"`
	Statuses []string `yaml:"statuses"`
	Min      int      `yaml:"min,omitempty"`
	Voices   []string `yaml:"voices"`
}

// Triggered は、スナップショットでこのルールが成立しているかを返します。
func (r *PrimalRule) Triggered(snap state.Snapshot) bool {
	n := 0
	for _, st := range r.Statuses {
		if snap.HasStatus(st) {
			n++
		}
	}
	if r.Kind == KindCombo {
		return n >= r.Min
	}
	return n > 0
}

// PrimalRules は原始の声のゲート設定です。
// キーワードが一致したグループは KeywordChance、それ以外は FlatChance で話します。
type PrimalRules struct {
	KeywordChance float64       `yaml:"keywordChance"`
	FlatChance    float64       `yaml:"flatChance"`
	Rules         []*PrimalRule `yaml:"rules"`
}

// LoadPrimalRules は埋め込みのルールを読み込みます。
func LoadPrimalRules(pool *voice.Pool) (*PrimalRules, error) {
	return ParsePrimalRules(configs.Primal, pool)
}

// ParsePrimalRules は YAML のルールを読み込み、原始の声だけを参照していることを検証します。
func ParsePrimalRules(data []byte, pool *voice.Pool) (*PrimalRules, error) {
	var pr PrimalRules
	if err := yaml.Unmarshal(data, &pr); err != nil {
		return nil, fmt.Errorf("selector.ParsePrimalRules: %w", err)
	}
	if pr.KeywordChance == 0 {
		pr.KeywordChance = defaultKeywordChance
	}
	if pr.FlatChance == 0 {
		pr.FlatChance = defaultFlatChance
	}
	for _, r := range pr.Rules {
		switch r.Kind {
		case KindStatus:
		case KindCombo:
			if r.Min <= 0 {
				r.Min = defaultComboMin
			}
		default:
			return nil, fmt.Errorf("selector.ParsePrimalRules: rule %s has unknown kind %q", r.ID, r.Kind)
		}
		for _, id := range r.Voices {
			v, err := pool.Get(id)
			if err != nil {
				return nil, fmt.Errorf("selector.ParsePrimalRules: rule %s: %w", r.ID, err)
			}
			if !v.Primal {
				return nil, fmt.Errorf("selector.ParsePrimalRules: rule %s: %s is not a primal voice", r.ID, id)
			}
		}
	}
	return &pr, nil
}

// Candidates は、ゲートの抽選前に目覚めている原始の声の ID を返します。
func (pr *PrimalRules) Candidates(snap state.Snapshot) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, r := range pr.Rules {
		if !r.Triggered(snap) {
			continue
		}
		for _, id := range r.Voices {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// gate は成立したルールごとに 1 回だけ抽選し、話す原始の声を返します。
func (pr *PrimalRules) gate(snap state.Snapshot, hits map[string]int, src random.Source) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, r := range pr.Rules {
		if !r.Triggered(snap) {
			continue
		}
		var group []string
		matched := false
		for _, id := range r.Voices {
			if _, ok := seen[id]; ok {
				continue
			}
			group = append(group, id)
			if hits[id] > 0 {
				matched = true
			}
		}
		if len(group) == 0 {
			continue
		}
		p := pr.FlatChance
		if matched {
			p = pr.KeywordChance
		}
		if !random.Bernoulli(src, p) {
			continue
		}
		for _, id := range group {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
