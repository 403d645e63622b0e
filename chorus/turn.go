package chorus

import (
	"github.com/sat8bit/chorus/journal"
	"github.com/sat8bit/chorus/prompt"
	"github.com/sat8bit/chorus/response"
	"github.com/sat8bit/chorus/scene"
	"github.com/sat8bit/chorus/selector"
)

// Turn は 1 回の呼び出しの結果です。Results が呼び出し側に渡すデータです。
type Turn struct {
	ID          string
	Epoch       uint64
	Title       string
	Vector      scene.Vector
	Selections  []selector.Selection
	Instruction prompt.Instruction
	Raw         string
	Results     []response.Result
	Report      response.Report
}

// Empty は、声が 1 つも選ばれなかったかどうかを返します。
func (t *Turn) Empty() bool {
	return len(t.Selections) == 0
}

func (t *Turn) entry() journal.Entry {
	e := journal.Entry{
		TurnID:     t.ID,
		Epoch:      t.Epoch,
		Scene:      t.Vector.Text,
		System:     t.Instruction.System,
		User:       t.Instruction.User,
		Raw:        t.Raw,
		Dropped:    t.Report.Dropped,
		Duplicates: t.Report.Duplicates,
		Fallback:   t.Report.Fallback,
	}
	for _, r := range t.Results {
		v := journal.Voice{VoiceID: r.VoiceID, Text: r.Text, RespondingTo: r.RespondingTo}
		switch {
		case r.Primal:
			v.Reason = string(selector.ReasonPrimal)
		case r.Cascade:
			v.Reason = string(selector.ReasonCascade)
		default:
			v.Reason = string(selector.ReasonPrimary)
		}
		if r.Check != nil {
			v.Check = r.Check.String()
		}
		e.Voices = append(e.Voices, v)
	}
	return e
}
