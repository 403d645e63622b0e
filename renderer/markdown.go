package renderer

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/message"
	"github.com/sat8bit/chorus/turn"
	"github.com/sat8bit/chorus/voice"
)

const markdownTemplate = `+++
title = {{ .Title }}
date = {{ .Date }}
tags = {{ .Tags }}
+++

{{ .Body }}
`

var jst = time.FixedZone("JST", 9*60*60)

// MarkdownRenderer は、バスが閉じられたときにターンの記録を Hugo 用の Markdown に書き出します。
type MarkdownRenderer struct {
	outputDir string
	filePath  string
	now       time.Time
	progress  turn.TurnProvider

	mu    sync.Mutex
	heard map[string]int
}

func NewMarkdownRenderer(outputDir string) *MarkdownRenderer {
	now := time.Now().In(jst)
	return &MarkdownRenderer{
		outputDir: outputDir,
		filePath:  filepath.Join(outputDir, now.Format("20060102-150405")+".md"),
		now:       now,
		heard:     map[string]int{},
	}
}

// FilePath は書き出し先のパスを返します。
func (r *MarkdownRenderer) FilePath() string {
	return r.filePath
}

// SetProgress は、Finalize がターン数を書くときに参照する TurnProvider を設定します。
func (r *MarkdownRenderer) SetProgress(p turn.TurnProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = p
}

func (r *MarkdownRenderer) Render(b bus.Bus, wg *sync.WaitGroup) error {
	messageCh := b.Subscribe()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var inbox []*message.Message
		for msg := range messageCh {
			inbox = append(inbox, msg)
		}
		if err := r.render(inbox); err != nil {
			slog.Error("failed to render markdown", "source", "renderer", "error", err)
		}
	}()
	return nil
}

func (r *MarkdownRenderer) render(inbox []*message.Message) error {
	var (
		body   strings.Builder
		title  string
		turns  int
		voices = map[string]struct{}{}
	)

	for _, msg := range inbox {
		switch msg.Kind {
		case message.KindScene:
			turns++
			if title == "" && msg.Title != "" {
				title = msg.Title
			}
			heading := msg.Title
			if heading == "" {
				heading = fmt.Sprintf("Scene %d", turns)
			}
			fmt.Fprintf(&body, "## %s\n\n", heading)
			for _, line := range strings.Split(strings.TrimSpace(msg.Text), "\n") {
				fmt.Fprintf(&body, "> %s\n", line)
			}
			body.WriteString("\n")
		case message.KindVoice:
			res := msg.Result
			if res == nil {
				continue
			}
			voices[res.Name] = struct{}{}
			r.count(res.VoiceID)
			indent := ""
			if res.Cascade {
				indent = "- "
			}
			check := ""
			if res.Check != nil {
				check = fmt.Sprintf(" `%s`", res.Check.Framing())
			}
			fmt.Fprintf(&body, "%s**%s**%s: %s\n\n", indent, res.Label, check, res.Text)
		case message.KindError:
			fmt.Fprintf(&body, "*(the chorus fell silent: %s)*\n\n", msg.Text)
		case message.KindTurnEnd:
			body.WriteString("---\n\n")
		}
	}

	if turns == 0 {
		return nil
	}
	if title == "" {
		title = "Inner Chorus"
	}

	names := make([]string, 0, len(voices))
	for n := range voices {
		names = append(names, fmt.Sprintf("%q", n))
	}
	sort.Strings(names)

	tmpl, err := template.New("markdown").Parse(markdownTemplate)
	if err != nil {
		return fmt.Errorf("renderer.MarkdownRenderer: parse template: %w", err)
	}
	data := struct {
		Date  string
		Title string
		Tags  string
		Body  string
	}{
		Date:  fmt.Sprintf("%q", r.now.Format("2006-01-02T15:04:05-07:00")),
		Title: fmt.Sprintf("%q", title),
		Tags:  fmt.Sprintf("[%s]", strings.Join(names, ", ")),
		Body:  strings.TrimRight(body.String(), "\n"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("renderer.MarkdownRenderer: execute template: %w", err)
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("renderer.MarkdownRenderer: %w", err)
	}
	if err := os.WriteFile(r.filePath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("renderer.MarkdownRenderer: %w", err)
	}

	slog.Info("Markdown file generated", "source", "renderer", "path", r.filePath)
	return nil
}

func (r *MarkdownRenderer) count(voiceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heard[voiceID]++
}

// Finalize は、どの声が何回話したかをファイルの末尾に追記します。
// Render の書き出しが終わってから呼んでください。
func (r *MarkdownRenderer) Finalize(pool *voice.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.heard) == 0 {
		return nil
	}

	var epilogue strings.Builder
	epilogue.WriteString("\n\n## Voices heard\n\n")
	if r.progress != nil {
		if limit := r.progress.GetMaxTurns(); limit > 0 {
			fmt.Fprintf(&epilogue, "*%d of %d turns*\n\n", r.progress.GetCurrentTurn(), limit)
		} else {
			fmt.Fprintf(&epilogue, "*%d turns*\n\n", r.progress.GetCurrentTurn())
		}
	}
	for _, v := range pool.All() {
		n := r.heard[v.ID]
		if n == 0 {
			continue
		}
		fmt.Fprintf(&epilogue, "- **%s** (%s): %d\n", v.Name, v.Attribute, n)
	}

	f, err := os.OpenFile(r.filePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Markdown file does not exist, cannot append epilogue.", "path", r.filePath)
			return nil
		}
		return fmt.Errorf("renderer.MarkdownRenderer.Finalize: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(epilogue.String()); err != nil {
		return fmt.Errorf("renderer.MarkdownRenderer.Finalize: %w", err)
	}
	return nil
}

var _ Renderer = (*MarkdownRenderer)(nil)
