// Package scene は、場面のテキストとそこから読み取れる強度のシグナルを扱います。
package scene

import "regexp"

// Vector は、場面テキストから求めた 5 つのシグナルです。値はすべて [0,1] です。
type Vector struct {
	Emotional float64 `json:"emotional"`
	Danger    float64 `json:"danger"`
	Social    float64 `json:"social"`
	Mystery   float64 `json:"mystery"`
	Physical  float64 `json:"physical"`
	// Text は下流のキーワード照合のために元のテキストを保持します。
	Text string `json:"-"`
}

// Max は最も強いシグナルの値を返します。
func (v Vector) Max() float64 {
	return max(v.Emotional, v.Danger, v.Social, v.Mystery, v.Physical)
}

// Any は、いずれかのシグナルが threshold を超えているかを返します。
func (v Vector) Any(threshold float64) bool {
	return v.Max() > threshold
}

type signal struct {
	name     string
	patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

var (
	emotionalPatterns = compile(
		`\b(cr(y|ies|ied|ying)|tears?|sob(s|bing)?)\b`,
		`\b(love[sd]?|loving|heart ?broken)\b`,
		`\b(angry|anger|rage|furious|hate[sd]?)\b`,
		`\b(afraid|fear(ful)?|scared|terrified)\b`,
		`\b(grief|griev(e|ing)|mourn(ing)?|loss)\b`,
		`\b(lonely|alone|abandon(ed)?)\b`,
		`\b(sad|sorrow|despair|miserable)\b`,
		`!{2,}`,
	)
	dangerPatterns = compile(
		`\b(guns?|pistol|rifle|shotgun)\b`,
		`\b(knife|knives|blade|machete)\b`,
		`\b(kill(s|ed|ing)?|murder(ed)?|dead|death)\b`,
		`\b(attack(s|ed)?|ambush|assault)\b`,
		`\b(blood|bleed(ing)?)\b`,
		`\b(threat(en(s|ed)?)?|danger(ous)?)\b`,
		`\b(run|flee|escape)\b`,
		`\b(explosion|fire|burning)\b`,
	)
	socialPatterns = compile(
		`"[^"]+"`,
		`\b(says?|said|asks?|asked|replies|replied|whispers?)\b`,
		`\b(lie[sd]?|lying|liar|deceiv(e|ed|ing))\b`,
		`\b(trust|betray(ed)?|loyal(ty)?)\b`,
		`\b(negotiat(e|ion)|deal|bargain|favou?r)\b`,
		`\b(smile[sd]?|frown(s|ed)?|glance[sd]?)\b`,
		`\b(friend|partner|stranger|crowd)\b`,
		`\?`,
	)
	mysteryPatterns = compile(
		`\b(strange|odd|weird|uncanny)\b`,
		`\b(secret|hidden|conceal(ed)?)\b`,
		`\b(clue|evidence|trace)\b`,
		`\b(unknown|mystery|mysterious)\b`,
		`\b(ghost|spirit|phantom|pale)\b`,
		`\b(why|how come|what if)\b`,
		`\b(missing|vanish(ed)?|disappear(ed)?)\b`,
		`\b(dream|vision|omen)\b`,
	)
	physicalPatterns = compile(
		`\b(punch(es|ed)?|kick(s|ed)?|hit|slam(s|med)?)\b`,
		`\b(run(s|ning)?|sprint(s|ed)?|jump(s|ed)?|climb(s|ed)?)\b`,
		`\b(grab(s|bed)?|push(es|ed)?|pull(s|ed)?|throw(s|n)?|threw)\b`,
		`\b(cold|heat|sweat(ing)?|shiver(ing)?)\b`,
		`\b(hand|fist|arm|leg|body)s?\b`,
		`\b(pain|ache|hurts?|wound(ed)?)\b`,
		`\b(drink(s|ing)?|eat(s|ing)?|smok(e|es|ing))\b`,
		`\b(dance[sd]?|dancing|stumble[sd]?|fall(s|en)?|fell)\b`,
	)

	signals = []signal{
		{"emotional", emotionalPatterns},
		{"danger", dangerPatterns},
		{"social", socialPatterns},
		{"mystery", mysteryPatterns},
		{"physical", physicalPatterns},
	}
)

// Analyze は場面テキストを Vector に変換します。
// 各シグナルの値は、そのカテゴリで一致したパターンの数をパターンの総数で割ったものです。
// 同じテキストには常に同じ結果を返します。
func Analyze(text string) Vector {
	v := Vector{Text: text}
	if text == "" {
		return v
	}
	values := make([]float64, len(signals))
	for i, s := range signals {
		hits := 0
		for _, p := range s.patterns {
			if p.MatchString(text) {
				hits++
			}
		}
		values[i] = float64(hits) / float64(len(s.patterns))
	}
	v.Emotional, v.Danger, v.Social, v.Mystery, v.Physical = values[0], values[1], values[2], values[3], values[4]
	return v
}
