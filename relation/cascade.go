package relation

import (
	"sort"

	"github.com/sat8bit/chorus/random"
)

// 応答の優先度です。数字が小さいほど優先されます。
const (
	PriorityRival     = 1
	PriorityInterrupt = 2
	PriorityRule      = 3
)

// Responder は、話し手に反応するカスケードの候補です。
type Responder struct {
	VoiceID  string
	Priority int
	// RuleID はルール由来の場合にだけ設定されます。
	RuleID string
}

// ShouldInterrupt は、candidate が speaker の発言に割り込むかを返します。
// candidate の割り込み対象に speaker が含まれる場合にだけ乱数を引きます。
func (g *Graph) ShouldInterrupt(speaker, candidate string, src random.Source) bool {
	e := g.Entry(candidate)
	if e == nil || !contains(e.Interrupts, speaker) {
		return false
	}
	return random.Bernoulli(src, e.InterruptChance)
}

// CascadeResponders は、speaker が text を話したときに反応する声を返します。
// 結果に speaker 自身と重複は含まれず、MaxPerSpeaker 件を超えません。
func (g *Graph) CascadeResponders(speaker, text string, src random.Source) []Responder {
	if g == nil {
		return nil
	}
	var out []Responder
	tried := map[string]struct{}{speaker: {}}

	if e := g.Entry(speaker); e != nil {
		for _, rival := range e.Rivals {
			tried[rival] = struct{}{}
			if g.ShouldInterrupt(speaker, rival, src) {
				out = append(out, Responder{VoiceID: rival, Priority: PriorityRival})
			}
		}
	}

	for _, id := range g.ids {
		if _, ok := tried[id]; ok {
			continue
		}
		if g.ShouldInterrupt(speaker, id, src) {
			out = append(out, Responder{VoiceID: id, Priority: PriorityInterrupt})
		}
	}

	for _, r := range g.rules {
		if r.Trigger != speaker || !r.Matches(text) {
			continue
		}
		if !random.Bernoulli(src, r.Chance) {
			continue
		}
		for _, id := range r.Responders {
			out = append(out, Responder{VoiceID: id, Priority: PriorityRule, RuleID: r.ID})
		}
	}

	return capResponders(dedupe(speaker, out), MaxPerSpeaker)
}

func dedupe(speaker string, in []Responder) []Responder {
	sort.SliceStable(in, func(i, j int) bool { return in[i].Priority < in[j].Priority })
	seen := map[string]struct{}{speaker: {}}
	out := in[:0]
	for _, r := range in {
		if _, ok := seen[r.VoiceID]; ok {
			continue
		}
		seen[r.VoiceID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func capResponders(in []Responder, n int) []Responder {
	if len(in) > n {
		return in[:n]
	}
	return in
}
