// Package response は、生成サービスが返したテキストを声ごとの結果に戻します。
package response

import (
	"regexp"
	"strings"

	"github.com/sat8bit/chorus/dice"
	"github.com/sat8bit/chorus/selector"
	"github.com/sat8bit/chorus/voice"
)

// FallbackLimit は、1 行も解釈できなかったときに使う生テキストの最大文字数です。
const FallbackLimit = 280

// Result は、呼び出し元へ返す声ひとつ分の結果です。
type Result struct {
	VoiceID      string      `json:"voiceId"`
	Label        string      `json:"label"`
	Name         string      `json:"name"`
	Color        string      `json:"color"`
	Text         string      `json:"text"`
	Check        *dice.Check `json:"check"`
	Primal       bool        `json:"primal"`
	Cascade      bool        `json:"cascade"`
	RespondingTo string      `json:"respondingTo,omitempty"`
}

// Report は解析の診断情報です。
type Report struct {
	Lines      int  `json:"lines"`
	Dropped    int  `json:"dropped"`
	Duplicates int  `json:"duplicates"`
	Fallback   bool `json:"fallback"`
}

var (
	separators = []string{":", "—", "–", " - "}
	labelRe    = regexp.MustCompile(`^[A-Z][A-Z0-9 /'&.\-]*$`)
	listRe     = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s+`)
)

// Parse は raw を行ごとに解釈します。ラベルの照合は sels に含まれる声の署名だけで行い、
// それ以外の声を名乗る行はすべて捨てます。結果の順序は応答の順序に従います。
func Parse(raw string, sels []selector.Selection) ([]Result, Report) {
	var report Report
	lookup := make(map[string]*selector.Selection, len(sels))
	for i := range sels {
		lookup[voice.NormalizeSignature(sels[i].Voice.Signature)] = &sels[i]
	}

	var (
		results []Result
		index   = map[string]int{}
		current = -1
	)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		report.Lines++

		label, text, ok := splitLabel(line)
		if !ok {
			if current >= 0 {
				results[current].Text = strings.TrimSpace(results[current].Text + " " + cleanText(line))
			}
			continue
		}

		sel, known := lookup[label]
		if !known {
			report.Dropped++
			current = -1
			continue
		}
		if _, dup := index[sel.Voice.ID]; dup {
			report.Duplicates++
			current = -1
			continue
		}
		index[sel.Voice.ID] = len(results)
		current = len(results)
		results = append(results, newResult(*sel, text))
	}

	if len(results) == 0 && len(sels) > 0 && strings.TrimSpace(raw) != "" {
		report.Fallback = true
		results = append(results, newResult(sels[0], truncate(strings.TrimSpace(raw), FallbackLimit)))
	}
	return results, report
}

func newResult(s selector.Selection, text string) Result {
	return Result{
		VoiceID:      s.Voice.ID,
		Label:        s.Voice.Signature,
		Name:         s.Voice.Name,
		Color:        s.Voice.Color,
		Text:         text,
		Check:        s.Check,
		Primal:       s.Primal(),
		Cascade:      s.Cascade(),
		RespondingTo: s.RespondingTo,
	}
}

// splitLabel は行頭の全大文字ラベルと本文を分けます。
func splitLabel(line string) (string, string, bool) {
	line = listRe.ReplaceAllString(line, "")
	cut := -1
	var sep string
	for _, s := range separators {
		if i := strings.Index(line, s); i > 0 && (cut < 0 || i < cut) {
			cut, sep = i, s
		}
	}
	if cut < 0 {
		return "", "", false
	}
	raw := strings.Trim(line[:cut], "*_` []")
	if raw != strings.ToUpper(raw) {
		return "", "", false
	}
	label := voice.NormalizeSignature(raw)
	if !labelRe.MatchString(label) {
		return "", "", false
	}
	text := cleanText(line[cut+len(sep):])
	return label, text, true
}

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
