package relevance_test

import (
	"testing"

	"github.com/sat8bit/chorus/random"
	"github.com/sat8bit/chorus/relevance"
	"github.com/sat8bit/chorus/scene"
	"github.com/sat8bit/chorus/state"
	"github.com/sat8bit/chorus/status"
	"github.com/sat8bit/chorus/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVoices = `
voices:
  - {id: logic, signature: LOGIC, attribute: intellect, baseLevel: 3, keywords: [clue, proof, motive, alibi]}
  - {id: empathy, signature: EMPATHY, attribute: psyche, baseLevel: 2, keywords: [tears, grief]}
  - {id: half_light, signature: HALF LIGHT, attribute: physique, baseLevel: 1, keywords: [gun]}
  - {id: perception, signature: PERCEPTION, attribute: motorics, baseLevel: 1, keywords: [glint]}
  - {id: limbic_system, signature: LIMBIC SYSTEM, attribute: primal, primal: true, keywords: [tears]}
`

const testStatuses = `
statuses:
  - id: grieving
    modifiers: {empathy: 2}
  - id: drunk
    modifiers: {logic: -1}
`

func newScorer(t *testing.T) *relevance.Scorer {
	t.Helper()
	pool, err := voice.NewPoolFromYAML([]byte(testVoices))
	require.NoError(t, err)
	table, err := status.NewTableFromYAML([]byte(testStatuses))
	require.NoError(t, err)
	s, err := relevance.NewScorer(pool, table)
	require.NoError(t, err)
	return s
}

// Float64 が 0.5 を返すとジッターは 0 になります。
var noJitter = random.Floats(0.5)

func TestScoreLevelOnlyWithoutKeywordsOrStatuses(t *testing.T) {
	s := newScorer(t)
	vec := scene.Analyze("lorem ipsum")

	got, err := s.Score("logic", vec, state.Snapshot{}, noJitter)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, got.Value, 1e-9)
	assert.Equal(t, 3, got.EffectiveLevel)
	assert.Zero(t, got.KeywordHits)

	low, err := s.Score("logic", vec, state.Snapshot{}, random.Floats(0))
	require.NoError(t, err)
	assert.InDelta(t, 0.05, low.Value, 1e-9)
}

func TestScoreKeywordContributionIsCapped(t *testing.T) {
	s := newScorer(t)
	vec := scene.Vector{Text: "The CLUE, the proof, the motive and the alibi."}

	got, err := s.Score("logic", vec, state.Snapshot{}, noJitter)
	require.NoError(t, err)
	assert.Equal(t, 4, got.KeywordHits)
	assert.InDelta(t, 0.6+0.15, got.Value, 1e-9)
}

func TestScoreAttributeAffinity(t *testing.T) {
	s := newScorer(t)
	vec := scene.Vector{Emotional: 0.5, Text: "nothing matching"}

	got, err := s.Score("empathy", vec, state.Snapshot{}, noJitter)
	require.NoError(t, err)
	assert.InDelta(t, 0.3*0.5+2*0.05, got.Value, 1e-9)
}

func TestScoreStatusBonusAndLevel(t *testing.T) {
	s := newScorer(t)
	snap := state.Snapshot{ActiveStatuses: []string{"grieving"}}

	got, err := s.Score("empathy", scene.Vector{}, snap, noJitter)
	require.NoError(t, err)
	assert.Equal(t, 2, got.StatusModifier)
	assert.Equal(t, 4, got.EffectiveLevel)
	assert.InDelta(t, 2*0.15+4*0.05, got.Value, 1e-9)
}

func TestScoreNegativeStatusOnlyAffectsLevel(t *testing.T) {
	s := newScorer(t)
	snap := state.Snapshot{
		ActiveStatuses:    []string{"drunk"},
		ResearchPenalties: map[string]int{"logic": -1},
	}
	got, err := s.Score("logic", scene.Vector{}, snap, noJitter)
	require.NoError(t, err)
	assert.Equal(t, -1, got.StatusModifier)
	assert.Equal(t, 1, got.EffectiveLevel)
	assert.InDelta(t, 0.05, got.Value, 1e-9)
}

func TestScoreIsClamped(t *testing.T) {
	s := newScorer(t)
	snap := state.Snapshot{Levels: map[string]int{"logic": 20}}
	vec := scene.Vector{Mystery: 1, Text: "clue proof motive"}

	got, err := s.Score("logic", vec, snap, random.Floats(0.99))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Value)
}

func TestScoreUnknownVoice(t *testing.T) {
	s := newScorer(t)
	_, err := s.Score("nobody", scene.Vector{}, state.Snapshot{}, noJitter)
	require.ErrorIs(t, err, voice.ErrUnknownVoice)
}

func TestScoreAllSkipsPrimalAndSorts(t *testing.T) {
	s := newScorer(t)
	vec := scene.Vector{Text: "a glint of a gun"}

	scores := s.ScoreAll(vec, state.Snapshot{}, noJitter)
	require.Len(t, scores, 4)
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1].Value, scores[i].Value)
	}
	for _, sc := range scores {
		assert.NotEqual(t, "limbic_system", sc.VoiceID)
	}
	// half_light と perception は同点なので ID 順になります。
	assert.Equal(t, "half_light", scores[0].VoiceID)
	assert.Equal(t, "perception", scores[1].VoiceID)
}

func TestKeywordHitsSharedKeyword(t *testing.T) {
	s := newScorer(t)
	hits := s.KeywordHits("Tears again.")
	assert.Equal(t, 1, hits["empathy"])
	assert.Equal(t, 1, hits["limbic_system"])
	assert.Zero(t, hits["logic"])
}
