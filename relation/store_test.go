package relation_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sat8bit/chorus/relation"
	"github.com/sat8bit/chorus/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWithoutOverrides(t *testing.T) {
	pool, err := voice.NewPool()
	require.NoError(t, err)

	g, issues, err := relation.NewStore(t.TempDir()).Load(pool)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.True(t, g.AreRivals("logic", "inland_empire"))
}

func TestStoreMergesOverrides(t *testing.T) {
	pool, err := voice.NewPool()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, relation.OverrideFile), []byte(`
relations:
  logic:
    rivals: [electrochemistry]
    interruptChance: 0.1
cascades:
  - {id: logic_contradiction, trigger: logic, patterns: [nonsense], responders: [encyclopedia], chance: 1}
  - {id: shivers_rain, trigger: shivers, patterns: [rain], responders: [inland_empire], chance: 0.5}
`), 0o644))

	g, issues, err := relation.NewStore(dir).Load(pool)
	require.NoError(t, err)
	assert.Empty(t, issues)

	assert.Equal(t, []string{"electrochemistry"}, g.Entry("logic").Rivals)

	rules := map[string]*relation.CascadeRule{}
	for _, r := range g.Rules() {
		rules[r.ID] = r
	}
	require.Contains(t, rules, "shivers_rain")
	assert.Equal(t, []string{"encyclopedia"}, rules["logic_contradiction"].Responders)
	assert.True(t, rules["logic_contradiction"].Matches("Utter NONSENSE"))
}

func TestStoreSaveRoundTrip(t *testing.T) {
	pool, err := voice.NewPool()
	require.NoError(t, err)
	dir := t.TempDir()
	store := relation.NewStore(dir)

	g, _, err := store.Load(pool)
	require.NoError(t, err)
	require.NoError(t, store.Save(g))

	again, issues, err := store.Load(pool)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, len(g.Rules()), len(again.Rules()))
	assert.Equal(t, g.Entry("volition").Interrupts, again.Entry("volition").Interrupts)
}

func TestStoreSaveRequiresDataDir(t *testing.T) {
	pool, err := voice.NewPool()
	require.NoError(t, err)
	g, _, err := relation.NewStore("").Load(pool)
	require.NoError(t, err)
	require.Error(t, relation.NewStore("").Save(g))
}
