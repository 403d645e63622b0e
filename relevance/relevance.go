// Package relevance は、場面に対する各声の関連度を計算します。
package relevance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/sat8bit/chorus/dice"
	"github.com/sat8bit/chorus/random"
	"github.com/sat8bit/chorus/scene"
	"github.com/sat8bit/chorus/state"
	"github.com/sat8bit/chorus/voice"
)

const (
	keywordWeight   = 0.2
	keywordCap      = 0.6
	statusWeight    = 0.15
	levelWeight     = 0.05
	jitter          = 0.1
	defaultAffinity = 0.3
)

// Score は 1 回の呼び出しにおける声の関連度です。保存はされません。
type Score struct {
	VoiceID        string          `json:"voiceId"`
	Value          float64         `json:"value"`
	EffectiveLevel int             `json:"effectiveLevel"`
	Attribute      voice.Attribute `json:"attribute"`
	StatusModifier int             `json:"statusModifier"`
	KeywordHits    int             `json:"keywordHits"`
}

// Scorer は声のキーワードを Aho-Corasick オートマトンにまとめて保持します。
type Scorer struct {
	pool     *voice.Pool
	statuses dice.StatusTable
	affinity map[voice.Attribute]float64

	ac            *ahocorasick.Automaton
	patternVoices [][]string
}

// NewScorer は、プール内のすべての声のキーワードからオートマトンを構築します。
func NewScorer(pool *voice.Pool, statuses dice.StatusTable) (*Scorer, error) {
	s := &Scorer{
		pool:     pool,
		statuses: statuses,
		affinity: map[voice.Attribute]float64{
			voice.AttributePsyche:    defaultAffinity,
			voice.AttributePhysique:  defaultAffinity,
			voice.AttributeIntellect: defaultAffinity,
			voice.AttributeMotorics:  defaultAffinity,
		},
	}

	var patterns []string
	index := map[string]int{}
	for _, v := range pool.All() {
		seen := map[string]struct{}{}
		for _, kw := range v.Keywords {
			key := strings.ToLower(strings.TrimSpace(kw))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			idx, ok := index[key]
			if !ok {
				idx = len(patterns)
				index[key] = idx
				patterns = append(patterns, key)
				s.patternVoices = append(s.patternVoices, nil)
			}
			s.patternVoices[idx] = append(s.patternVoices[idx], v.ID)
		}
	}
	if len(patterns) == 0 {
		return s, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("relevance.NewScorer: %w", err)
	}
	s.ac = automaton
	return s, nil
}

// KeywordHits は、声ごとに text に含まれていたキーワードの種類数を返します。
func (s *Scorer) KeywordHits(text string) map[string]int {
	hits := map[string]int{}
	if s.ac == nil || text == "" {
		return hits
	}
	found := map[int]struct{}{}
	for _, m := range s.ac.FindAllOverlapping([]byte(strings.ToLower(text))) {
		found[m.PatternID] = struct{}{}
	}
	for idx := range found {
		for _, id := range s.patternVoices[idx] {
			hits[id]++
		}
	}
	return hits
}

// Score は 1 つの声の関連度を計算します。乱数は 1 回だけ引きます。
func (s *Scorer) Score(voiceID string, vec scene.Vector, snap state.Snapshot, src random.Source) (Score, error) {
	v, err := s.pool.Get(voiceID)
	if err != nil {
		return Score{}, fmt.Errorf("relevance.Scorer.Score: %w", err)
	}
	return s.score(v, s.KeywordHits(vec.Text)[v.ID], vec, snap, src), nil
}

// ScoreAll は原始の声以外のすべての声を採点し、関連度の高い順に返します。
// 同点の場合は ID 順です。
func (s *Scorer) ScoreAll(vec scene.Vector, snap state.Snapshot, src random.Source) []Score {
	hits := s.KeywordHits(vec.Text)
	ordinary := s.pool.Ordinary()
	scores := make([]Score, 0, len(ordinary))
	for _, v := range ordinary {
		scores = append(scores, s.score(v, hits[v.ID], vec, snap, src))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].VoiceID < scores[j].VoiceID
	})
	return scores
}

func (s *Scorer) score(v *voice.Voice, hits int, vec scene.Vector, snap state.Snapshot, src random.Source) Score {
	mod := dice.StatusModifier(s.statuses, v.ID, snap.ActiveStatuses)
	level := dice.EffectiveLevel(snap.Level(v.ID, v.BaseLevel), snap.Penalty(v.ID), mod)

	value := min(float64(hits)*keywordWeight, keywordCap)
	value += s.affinity[v.Attribute] * signalFor(v.Attribute, vec)
	if mod > 0 {
		value += float64(mod) * statusWeight
	}
	value += float64(level) * levelWeight
	value += random.Uniform(src, -jitter, jitter)

	return Score{
		VoiceID:        v.ID,
		Value:          min(max(value, 0), 1),
		EffectiveLevel: level,
		Attribute:      v.Attribute,
		StatusModifier: mod,
		KeywordHits:    hits,
	}
}

func signalFor(a voice.Attribute, vec scene.Vector) float64 {
	switch a {
	case voice.AttributePsyche:
		return vec.Emotional
	case voice.AttributePhysique:
		return vec.Danger
	case voice.AttributeIntellect:
		return vec.Mystery
	case voice.AttributeMotorics:
		return vec.Physical
	}
	return 0
}
