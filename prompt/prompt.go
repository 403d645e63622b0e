// Package prompt は、選ばれた声から生成サービスへの指示を組み立てます。
package prompt

import (
	"fmt"
	"strings"

	"github.com/sat8bit/chorus/dice"
	"github.com/sat8bit/chorus/random"
	"github.com/sat8bit/chorus/relation"
	"github.com/sat8bit/chorus/selector"
)

// DefaultContextLimit は、ユーザー指示に載せる場面テキストの既定の最大文字数です。
const DefaultContextLimit = 2000

// Separator は、生成サービスに求める行の区切りです。
const Separator = " — "

// Instruction は生成サービスに渡す指示の組です。
type Instruction struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Builder は関係性を参照しながら指示を組み立てます。
type Builder struct {
	graph        *relation.Graph
	contextLimit int
}

func NewBuilder(graph *relation.Graph, contextLimit int) *Builder {
	if contextLimit <= 0 {
		contextLimit = DefaultContextLimit
	}
	return &Builder{graph: graph, contextLimit: contextLimit}
}

// Build は指示を組み立てます。反応セリフの見本を選ぶために src を使います。
func (b *Builder) Build(sels []selector.Selection, text string, src random.Source) Instruction {
	return Instruction{
		System: b.system(sels, src),
		User:   b.user(text),
	}
}

func (b *Builder) system(sels []selector.Selection, src random.Source) string {
	var sb strings.Builder

	sb.WriteString(`You are the inner chorus of the player character: a set of distinct internal voices reacting to the scene.

STRICT OUTPUT RULES (MANDATORY):
- Write exactly one line per voice listed below, in the listed order.
- Format every line as: SIGNATURE` + Separator + `text
- Use ONLY the signatures listed below. Never invent, rename or add voices.
- Keep each line to one or two short sentences, in the voice's own personality.
- Voices whose check failed must sound uncertain or unreliable; their observation may be wrong.
- No narration, no stage directions, no text outside the voice lines.
`)

	sb.WriteString("\nVOICES:\n")
	for i, s := range sels {
		v := s.Voice
		fmt.Fprintf(&sb, "%d. %s (%s)", i+1, v.Signature, v.Name)
		switch {
		case s.Primal():
			sb.WriteString(" [PRIMAL: speaks first, from deep instinct]")
		case s.Cascade():
			if target := find(sels, s.RespondingTo); target != nil {
				fmt.Fprintf(&sb, " [responds to %s]", target.Voice.Signature)
			}
		}
		sb.WriteString("\n")
		if v.Personality != "" {
			fmt.Fprintf(&sb, "   Personality: %s\n", v.Personality)
		}
		if line := checkLine(s); line != "" {
			fmt.Fprintf(&sb, "   Check: %s\n", line)
		}
	}

	if notes := b.relationships(sels, src); len(notes) > 0 {
		sb.WriteString("\nRELATIONSHIPS:\n")
		for _, n := range notes {
			fmt.Fprintf(&sb, "- %s\n", n)
		}
	}

	return strings.TrimSpace(sb.String())
}

func checkLine(s selector.Selection) string {
	if s.Primal() {
		return "none. Primal voices never roll."
	}
	c := s.Check
	if c == nil {
		return ""
	}
	dicePart := fmt.Sprintf("[%d+%d]+%d=%d vs %d (%s)", c.Die1, c.Die2, c.Level, c.Total, c.Difficulty, c.Band)
	return fmt.Sprintf("%s %s. %s", strings.ToUpper(c.Framing()), dicePart, framingGuide(*c))
}

func framingGuide(c dice.Check) string {
	switch {
	case c.Boxcars:
		return "The insight is profound and exactly right."
	case c.SnakeEyes:
		return "The voice is confidently and badly wrong."
	case c.Success:
		return "The observation is accurate."
	default:
		return "The observation is uncertain and unreliable; it may mislead."
	}
}

func (b *Builder) relationships(sels []selector.Selection, src random.Source) []string {
	var notes []string
	for i := range sels {
		a := sels[i].Voice
		for j := i + 1; j < len(sels); j++ {
			c := sels[j].Voice
			switch {
			case b.graph.AreRivals(a.ID, c.ID):
				notes = append(notes, fmt.Sprintf("%s and %s are rivals and needle each other.", a.Signature, c.Signature))
			case b.graph.AreAllies(a.ID, c.ID):
				notes = append(notes, fmt.Sprintf("%s and %s are allies and back each other up.", a.Signature, c.Signature))
			}
		}
	}
	for _, s := range sels {
		for _, o := range sels {
			if o.Voice.ID == s.Voice.ID {
				continue
			}
			if nick := b.graph.Nickname(s.Voice.ID, o.Voice.ID); nick != "" {
				notes = append(notes, fmt.Sprintf("%s calls %s %q.", s.Voice.Signature, o.Voice.Signature, nick))
			}
		}
		if nick := b.graph.Nickname(s.Voice.ID, relation.Player); nick != "" {
			notes = append(notes, fmt.Sprintf("%s calls the player %q.", s.Voice.Signature, nick))
		}
	}
	for _, s := range sels {
		if hint := b.reactionHint(s, sels, src); hint != "" {
			notes = append(notes, fmt.Sprintf("Style hint for %s: %q", s.Voice.Signature, hint))
		}
	}
	return notes
}

// reactionHint は、その声の関係に合った反応セリフの見本を 1 つ選びます。
func (b *Builder) reactionHint(s selector.Selection, sels []selector.Selection, src random.Source) string {
	e := b.graph.Entry(s.Voice.ID)
	if e == nil {
		return ""
	}

	targets := make([]string, 0, len(sels))
	if s.Cascade() && s.RespondingTo != "" {
		targets = append(targets, s.RespondingTo)
	}
	for _, o := range sels {
		if o.Voice.ID != s.Voice.ID && o.Voice.ID != s.RespondingTo {
			targets = append(targets, o.Voice.ID)
		}
	}

	var pool []string
	for _, t := range targets {
		if b.graph.AreRivals(s.Voice.ID, t) && len(e.Reactions.ToRival) > 0 {
			pool = e.Reactions.ToRival
			break
		}
		if b.graph.AreAllies(s.Voice.ID, t) && len(e.Reactions.ToAlly) > 0 {
			pool = e.Reactions.ToAlly
			break
		}
	}
	if pool == nil && s.Cascade() {
		pool = e.Reactions.Contextual
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[src.IntN(len(pool))]
}

func (b *Builder) user(text string) string {
	text = strings.TrimSpace(text)
	return fmt.Sprintf("<scene>\n%s\n</scene>\n\nReact to the scene above.", TruncateTail(text, b.contextLimit))
}

// TruncateTail は、文字数が n を超える場合に末尾の n 文字だけを残します。
// 最新の描写ほど重要なので先頭を切り捨てます。
func TruncateTail(s string, n int) string {
	r := []rune(s)
	if n > 0 && len(r) > n {
		return "…" + string(r[len(r)-n:])
	}
	return s
}

func find(sels []selector.Selection, id string) *selector.Selection {
	for i := range sels {
		if sels[i].Voice.ID == id {
			return &sels[i]
		}
	}
	return nil
}
