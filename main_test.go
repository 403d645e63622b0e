package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sat8bit/chorus/chorus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	t.Setenv("CHORUS_JOURNAL", "off")
	t.Setenv("CHORUS_SEED", "17")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVoicesCommand(t *testing.T) {
	out := run(t, "", "voices")
	assert.Contains(t, out, "SIGNATURE")
	assert.Contains(t, out, "INLAND EMPIRE")
	assert.Contains(t, out, "ANCIENT REPTILIAN BRAIN")
}

func TestReactDryRunFromStdin(t *testing.T) {
	out := run(t, "Why is there blood on the floor?", "react", "--dry-run")
	assert.Contains(t, out, "# selected")
	assert.Contains(t, out, "# system")
	assert.Contains(t, out, "<scene>")
}

func TestReactDryRunJSON(t *testing.T) {
	out := run(t, "", "react", "--dry-run", "--json", "--text", "The gun is still warm.")

	var v chorus.View
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.NotEmpty(t, v.TurnID)
	assert.NotEmpty(t, v.Selections)
	assert.Empty(t, v.Results)
}

func TestRelationsCommandWritesOverride(t *testing.T) {
	dir := t.TempDir()
	out := run(t, "", "relations", "--out", dir)
	assert.Equal(t, filepath.Join(dir, "relations.yaml"), strings.TrimSpace(out))
	assert.FileExists(t, filepath.Join(dir, "relations.yaml"))
}
