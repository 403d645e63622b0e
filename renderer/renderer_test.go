package renderer_test

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/dice"
	"github.com/sat8bit/chorus/message"
	"github.com/sat8bit/chorus/renderer"
	"github.com/sat8bit/chorus/response"
	"github.com/sat8bit/chorus/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishTurn(t *testing.T, b bus.Bus) {
	t.Helper()
	check, err := dice.Resolve(3, 4, 5, 10)
	require.NoError(t, err)

	require.NoError(t, b.Broadcast(message.Scene("t-1", "Body in the yard", "A man hangs from a tree.")))
	require.NoError(t, b.Broadcast(message.Voice("t-1", response.Result{
		VoiceID: "logic", Label: "LOGIC", Name: "Logic", Color: "#5b8bd9",
		Text: "He did not climb up there himself.", Check: &check,
	})))
	require.NoError(t, b.Broadcast(message.Voice("t-1", response.Result{
		VoiceID: "drama", Label: "DRAMA", Name: "Drama", Color: "#a35bd9",
		Text: "A tragedy, sire!", Cascade: true, RespondingTo: "logic",
	})))
	require.NoError(t, b.Broadcast(message.TurnEnd("t-1")))
}

func TestConsoleRenderer(t *testing.T) {
	var out bytes.Buffer
	b := bus.NewMemoryBus(16)
	var wg sync.WaitGroup

	require.NoError(t, renderer.NewConsoleRenderer(&out, 0).Render(b, &wg))
	publishTurn(t, b)
	require.NoError(t, b.Broadcast(&message.Message{Kind: message.KindError, Text: "upstream 503"}))
	b.Close()
	wg.Wait()

	text := out.String()
	assert.Contains(t, text, "── Body in the yard ──")
	assert.Contains(t, text, "LOGIC [[3+4]+5=12 vs 10")
	assert.Contains(t, text, ": He did not climb up there himself.")
	assert.Contains(t, text, "↳ DRAMA: A tragedy, sire!")
	assert.Contains(t, text, "[error] upstream 503")
}

func TestMarkdownRenderer(t *testing.T) {
	dir := t.TempDir()
	md := renderer.NewMarkdownRenderer(dir)
	b := bus.NewMemoryBus(16)
	var wg sync.WaitGroup

	require.NoError(t, md.Render(b, &wg))
	publishTurn(t, b)
	b.Close()
	wg.Wait()

	pool, err := voice.NewPool()
	require.NoError(t, err)
	require.NoError(t, md.Finalize(pool))

	raw, err := os.ReadFile(md.FilePath())
	require.NoError(t, err)
	doc := string(raw)

	assert.True(t, strings.HasPrefix(doc, "+++\ntitle = \"Body in the yard\"\n"))
	assert.Contains(t, doc, `tags = ["Drama", "Logic"]`)
	assert.Contains(t, doc, "> A man hangs from a tree.")
	assert.Contains(t, doc, "**LOGIC** `success`: He did not climb up there himself.")
	assert.Contains(t, doc, "- **DRAMA**: A tragedy, sire!")
	assert.Contains(t, doc, "## Voices heard")
	assert.Contains(t, doc, "(intellect): 1")
}

type fixedProgress struct{ current, max int }

func (p fixedProgress) GetCurrentTurn() int { return p.current }
func (p fixedProgress) GetMaxTurns() int    { return p.max }

func TestMarkdownRendererWritesProgress(t *testing.T) {
	tests := []struct {
		name     string
		progress fixedProgress
		want     string
	}{
		{name: "bounded run", progress: fixedProgress{current: 1, max: 5}, want: "*1 of 5 turns*"},
		{name: "unbounded run", progress: fixedProgress{current: 1}, want: "*1 turns*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := renderer.NewMarkdownRenderer(t.TempDir())
			md.SetProgress(tt.progress)
			b := bus.NewMemoryBus(16)
			var wg sync.WaitGroup

			require.NoError(t, md.Render(b, &wg))
			publishTurn(t, b)
			b.Close()
			wg.Wait()

			pool, err := voice.NewPool()
			require.NoError(t, err)
			require.NoError(t, md.Finalize(pool))

			raw, err := os.ReadFile(md.FilePath())
			require.NoError(t, err)
			assert.Contains(t, string(raw), tt.want)
		})
	}
}

func TestMarkdownRendererSkipsEmptyRun(t *testing.T) {
	dir := t.TempDir()
	md := renderer.NewMarkdownRenderer(dir)
	b := bus.NewMemoryBus(4)
	var wg sync.WaitGroup

	require.NoError(t, md.Render(b, &wg))
	b.Close()
	wg.Wait()

	_, err := os.Stat(md.FilePath())
	assert.True(t, os.IsNotExist(err))
}
