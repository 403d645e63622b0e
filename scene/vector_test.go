package scene_test

import (
	"testing"

	"github.com/sat8bit/chorus/scene"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzeEmpty(t *testing.T) {
	v := scene.Analyze("")
	assert.Zero(t, v.Max())
	assert.Equal(t, scene.Vector{}, v)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	text := `She pulls a knife. "Why are you lying to me?" Tears run down her face.`
	assert.Equal(t, scene.Analyze(text), scene.Analyze(text))
}

func TestAnalyzeSignals(t *testing.T) {
	tests := []struct {
		name string
		text string
		hot  func(scene.Vector) float64
	}{
		{name: "danger", text: "He draws a gun and threatens to kill you. Blood on the knife.", hot: func(v scene.Vector) float64 { return v.Danger }},
		{name: "emotional", text: "She cries, alone, full of grief and despair!!", hot: func(v scene.Vector) float64 { return v.Emotional }},
		{name: "mystery", text: "A strange ghost, a hidden clue, a secret dream.", hot: func(v scene.Vector) float64 { return v.Mystery }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := scene.Analyze(tt.text)
			assert.Greater(t, tt.hot(v), 0.3)
			assert.Equal(t, tt.hot(v), v.Max())
			assert.Equal(t, tt.text, v.Text)
		})
	}
}

func TestAnalyzeValuesInRange(t *testing.T) {
	v := scene.Analyze(`"Why?" she asks. He punches the wall, blood, a gun, tears, a ghost, a secret, a clue!! Run!`)
	for _, x := range []float64{v.Emotional, v.Danger, v.Social, v.Mystery, v.Physical} {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.LessOrEqual(t, x, 1.0)
	}
}

func TestAnalyzeNoMatches(t *testing.T) {
	v := scene.Analyze("lorem ipsum dolor")
	assert.Zero(t, v.Max())
	assert.False(t, v.Any(0))
}

func TestVectorAny(t *testing.T) {
	v := scene.Vector{Danger: 0.75}
	assert.True(t, v.Any(0.6))
	assert.False(t, scene.Vector{Danger: 0.6}.Any(0.6))
}
