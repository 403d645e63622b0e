// Package relation は、声同士のライバル・同盟・割り込み・カスケードの関係を扱います。
package relation

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/sat8bit/chorus/voice"
	"gopkg.in/yaml.v3"
)

// Player は、ニックネームの対象としてだけ使える特別な ID です。
const Player = "player"

// MaxPerSpeaker は、1 人の話し手から派生するカスケードの上限です。
const MaxPerSpeaker = 2

// Reactions は、関係ごとの反応セリフの候補です。
type Reactions struct {
	ToRival    []string `yaml:"toRival,omitempty"`
	ToAlly     []string `yaml:"toAlly,omitempty"`
	Contextual []string `yaml:"contextual,omitempty"`
}

// Entry は、ある声から見た関係性です。
type Entry struct {
	Rivals          []string          `yaml:"rivals,omitempty"`
	Allies          []string          `yaml:"allies,omitempty"`
	Interrupts      []string          `yaml:"interrupts,omitempty"`
	InterruptChance float64           `yaml:"interruptChance,omitempty"`
	Nicknames       map[string]string `yaml:"nicknames,omitempty"`
	Reactions       Reactions         `yaml:"reactions,omitempty"`
}

// CascadeRule は、特定の声が特定のパターンを口にしたときに応答する声を定義します。
type CascadeRule struct {
	ID         string   `yaml:"id"`
	Trigger    string   `yaml:"trigger"`
	Patterns   []string `yaml:"patterns"`
	Responders []string `yaml:"responders"`
	Chance     float64  `yaml:"chance"`

	compiled []*regexp.Regexp
}

// Matches は、いずれかのパターンが text に一致するかを返します。
func (r *CascadeRule) Matches(text string) bool {
	for _, p := range r.compiled {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// File は、関係性テーブルの YAML 表現です。
type File struct {
	Relations map[string]*Entry `yaml:"relations"`
	Cascades  []*CascadeRule    `yaml:"cascades"`
}

// ParseFile は YAML を File として読み込みます。
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("relation.ParseFile: %w", err)
	}
	if f.Relations == nil {
		f.Relations = map[string]*Entry{}
	}
	return &f, nil
}

// Issue は、読み込み時に取り除かれた不正な参照です。
type Issue struct {
	Where string
	Ref   string
	Why   string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %q %s", i.Where, i.Ref, i.Why)
}

// Graph は、検証済みの関係性です。読み込み後は変更されません。
type Graph struct {
	entries map[string]*Entry
	ids     []string
	rules   []*CascadeRule
}

// Load は YAML から Graph を構築します。
func Load(data []byte, pool *voice.Pool) (*Graph, []Issue, error) {
	f, err := ParseFile(data)
	if err != nil {
		return nil, nil, err
	}
	g, issues := Build(f, pool)
	return g, issues, nil
}

// Build は File を検証して Graph を構築します。
// プールにない ID への参照は取り除かれ、Issue として返されます。
func Build(f *File, pool *voice.Pool) (*Graph, []Issue) {
	g := &Graph{entries: map[string]*Entry{}}
	var issues []Issue

	keys := make([]string, 0, len(f.Relations))
	for id := range f.Relations {
		keys = append(keys, id)
	}
	sort.Strings(keys)

	for _, id := range keys {
		src := f.Relations[id]
		if !pool.Has(id) {
			issues = append(issues, Issue{Where: "relations", Ref: id, Why: "is not a known voice"})
			continue
		}
		if src == nil {
			continue
		}
		where := "relations." + id
		e := &Entry{
			InterruptChance: min(max(src.InterruptChance, 0), 1),
			Reactions:       src.Reactions,
			Nicknames:       map[string]string{},
		}
		e.Rivals, issues = pruneIDs(src.Rivals, id, pool, where+".rivals", issues)
		e.Allies, issues = pruneIDs(src.Allies, id, pool, where+".allies", issues)
		e.Interrupts, issues = pruneIDs(src.Interrupts, id, pool, where+".interrupts", issues)
		for target, nick := range src.Nicknames {
			if target != Player && !pool.Has(target) {
				issues = append(issues, Issue{Where: where + ".nicknames", Ref: target, Why: "is not a known voice"})
				continue
			}
			e.Nicknames[target] = nick
		}
		g.entries[id] = e
		g.ids = append(g.ids, id)
	}

	for _, src := range f.Cascades {
		if src == nil {
			continue
		}
		where := "cascades." + src.ID
		if src.ID == "" {
			issues = append(issues, Issue{Where: "cascades", Ref: src.Trigger, Why: "rule has no id"})
			continue
		}
		if !pool.Has(src.Trigger) {
			issues = append(issues, Issue{Where: where + ".trigger", Ref: src.Trigger, Why: "is not a known voice"})
			continue
		}
		r := &CascadeRule{
			ID:       src.ID,
			Trigger:  src.Trigger,
			Patterns: src.Patterns,
			Chance:   min(max(src.Chance, 0), 1),
		}
		r.Responders, issues = pruneIDs(src.Responders, src.Trigger, pool, where+".responders", issues)
		for _, p := range src.Patterns {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				issues = append(issues, Issue{Where: where + ".patterns", Ref: p, Why: "does not compile"})
				continue
			}
			r.compiled = append(r.compiled, re)
		}
		if len(r.compiled) == 0 || len(r.Responders) == 0 {
			issues = append(issues, Issue{Where: where, Ref: src.ID, Why: "has no usable patterns or responders"})
			continue
		}
		g.rules = append(g.rules, r)
	}
	sort.SliceStable(g.rules, func(i, j int) bool { return g.rules[i].ID < g.rules[j].ID })

	return g, issues
}

func pruneIDs(ids []string, self string, pool *voice.Pool, where string, issues []Issue) ([]string, []Issue) {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		switch {
		case id == Player:
			issues = append(issues, Issue{Where: where, Ref: id, Why: "is only allowed as a nickname target"})
		case id == self:
			issues = append(issues, Issue{Where: where, Ref: id, Why: "refers to itself"})
		case !pool.Has(id):
			issues = append(issues, Issue{Where: where, Ref: id, Why: "is not a known voice"})
		default:
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, issues
}

// Entry は声の関係性を返します。定義がなければ nil です。
func (g *Graph) Entry(id string) *Entry {
	if g == nil {
		return nil
	}
	return g.entries[id]
}

// Rules はカスケードルールを ID 順に返します。
func (g *Graph) Rules() []*CascadeRule {
	if g == nil {
		return nil
	}
	return g.rules
}

// AreRivals は、どちらかが相手をライバルとしているかを返します。
func (g *Graph) AreRivals(a, b string) bool {
	return g.lists(a, b, func(e *Entry) []string { return e.Rivals })
}

// AreAllies は、どちらかが相手を同盟としているかを返します。
func (g *Graph) AreAllies(a, b string) bool {
	return g.lists(a, b, func(e *Entry) []string { return e.Allies })
}

func (g *Graph) lists(a, b string, set func(*Entry) []string) bool {
	if e := g.Entry(a); e != nil && contains(set(e), b) {
		return true
	}
	if e := g.Entry(b); e != nil && contains(set(e), a) {
		return true
	}
	return false
}

// Nickname は from が to を呼ぶときのあだ名を返します。
func (g *Graph) Nickname(from, to string) string {
	if e := g.Entry(from); e != nil {
		return e.Nicknames[to]
	}
	return ""
}

// File は Graph を YAML 表現に戻します。
func (g *Graph) File() *File {
	f := &File{Relations: map[string]*Entry{}}
	for _, id := range g.ids {
		f.Relations[id] = g.entries[id]
	}
	f.Cascades = append(f.Cascades, g.rules...)
	return f
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
