package voice_test

import (
	"testing"

	"github.com/sat8bit/chorus/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolEmbedded(t *testing.T) {
	pool, err := voice.NewPool()
	require.NoError(t, err)

	ordinary := pool.Ordinary()
	require.Len(t, ordinary, 24)

	perAttribute := map[voice.Attribute]int{}
	for _, v := range ordinary {
		perAttribute[v.Attribute]++
		assert.NotEmpty(t, v.Keywords, v.ID)
		assert.GreaterOrEqual(t, v.BaseLevel, 1, v.ID)
	}
	for _, a := range []voice.Attribute{voice.AttributeIntellect, voice.AttributePsyche, voice.AttributePhysique, voice.AttributeMotorics} {
		assert.Equal(t, 6, perAttribute[a], a)
	}

	primal := pool.Primal()
	require.Len(t, primal, 3)
	for _, v := range primal {
		assert.True(t, v.Primal)
	}
}

func TestNewPoolRejectsSignatureCollision(t *testing.T) {
	_, err := voice.NewPoolFromYAML([]byte(`
voices:
  - {id: a, signature: "Half Light", attribute: physique}
  - {id: b, signature: "HALF  LIGHT", attribute: motorics}
`))
	require.ErrorIs(t, err, voice.ErrDuplicateSignature)
}

func TestNewPoolRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "duplicate id",
			yaml: "voices:\n  - {id: a, signature: A, attribute: psyche}\n  - {id: a, signature: B, attribute: psyche}\n",
			want: voice.ErrDuplicateID,
		},
		{
			name: "unknown attribute",
			yaml: "voices:\n  - {id: a, signature: A, attribute: charisma}\n",
			want: voice.ErrInvalidVoice,
		},
		{
			name: "missing signature",
			yaml: "voices:\n  - {id: a, attribute: psyche}\n",
			want: voice.ErrInvalidVoice,
		},
		{
			name: "primal flag without primal attribute",
			yaml: "voices:\n  - {id: a, signature: A, attribute: psyche, primal: true}\n",
			want: voice.ErrInvalidVoice,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := voice.NewPoolFromYAML([]byte(tt.yaml))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPoolGet(t *testing.T) {
	pool, err := voice.NewPool()
	require.NoError(t, err)

	v, err := pool.Get("inland_empire")
	require.NoError(t, err)
	assert.Equal(t, "INLAND EMPIRE", v.Signature)

	_, err = pool.Get("nope")
	require.ErrorIs(t, err, voice.ErrUnknownVoice)
	assert.False(t, pool.Has("nope"))
}

func TestBaseLevelDefaultsToOne(t *testing.T) {
	pool, err := voice.NewPoolFromYAML([]byte("voices:\n  - {id: a, signature: A, attribute: psyche}\n"))
	require.NoError(t, err)
	v, err := pool.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v.BaseLevel)
	assert.Equal(t, "a", v.Name)
}

func TestNormalizeSignature(t *testing.T) {
	assert.Equal(t, "ESPRIT DE CORPS", voice.NormalizeSignature("  esprit de   Corps "))
}
