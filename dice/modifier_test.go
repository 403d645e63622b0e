package dice_test

import (
	"testing"

	"github.com/sat8bit/chorus/dice"
	"github.com/sat8bit/chorus/state"
	"github.com/sat8bit/chorus/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusModifier(t *testing.T) {
	table, err := status.NewTableFromYAML([]byte(`
statuses:
  - id: drunk
    modifiers: {electrochemistry: 2, composure: -2}
  - id: stimmed
    modifiers: {electrochemistry: 1}
`))
	require.NoError(t, err)

	assert.Equal(t, 3, dice.StatusModifier(table, "electrochemistry", []string{"drunk", "stimmed"}))
	assert.Equal(t, -2, dice.StatusModifier(table, "composure", []string{"drunk", "unknown"}))
	assert.Equal(t, 0, dice.StatusModifier(table, "logic", []string{"drunk"}))
	assert.Equal(t, 0, dice.StatusModifier(nil, "logic", []string{"drunk"}))
}

func TestEffectiveLevelFloorsAtOne(t *testing.T) {
	assert.Equal(t, 5, dice.EffectiveLevel(3, 2))
	assert.Equal(t, 1, dice.EffectiveLevel(2, -4, -1))
}

func TestLuck(t *testing.T) {
	assert.Equal(t, 0, dice.NoLuck{}.Modifier("logic", state.Snapshot{}))

	lucky := dice.LuckFunc(func(id string, snap state.Snapshot) int {
		if snap.HasStatus("blessed") {
			return 2
		}
		return 0
	})
	assert.Equal(t, 2, lucky.Modifier("logic", state.Snapshot{ActiveStatuses: []string{"blessed"}}))
}
