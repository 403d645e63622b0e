package app_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/sat8bit/chorus/app"
	"github.com/sat8bit/chorus/config"
	"github.com/sat8bit/chorus/llm"
	"github.com/sat8bit/chorus/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWithJournal(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Journal: filepath.Join(t.TempDir(), "j.db"), Seed: 5}
	cfg.ApplyDefaults()

	var logs bytes.Buffer
	a, err := app.Build(ctx, cfg, app.Options{
		LogOutput: &logs,
		Generator: llm.Func(func(context.Context, llm.GenerateInput) (string, error) {
			return "LOGIC: Noted.", nil
		}),
	})
	require.NoError(t, err)
	defer a.Close(ctx)

	tr, err := a.Engine.React(ctx, "Why is the door locked?", state.Snapshot{})
	require.NoError(t, err)
	assert.NotEmpty(t, tr.Results)

	recent, err := a.Journal.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, tr.ID, recent[0].TurnID)
	assert.Contains(t, logs.String(), "turn_id="+tr.ID)
}

func TestBuildWithoutGenerator(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Journal: "off"}
	cfg.ApplyDefaults()

	a, err := app.Build(ctx, cfg, app.Options{NoGenerator: true})
	require.NoError(t, err)
	defer a.Close(ctx)
	assert.Nil(t, a.Journal)

	tr, err := a.Engine.Plan(ctx, "rain", state.Snapshot{})
	require.NoError(t, err)
	assert.NotEmpty(t, tr.Selections)
}

func TestBuildFailsWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Journal: "off", Provider: config.ProviderOpenAI}
	cfg.ApplyDefaults()

	_, err := app.Build(ctx, cfg, app.Options{})
	require.Error(t, err)
}
