package chorus

import (
	"github.com/sat8bit/chorus/dice"
	"github.com/sat8bit/chorus/response"
	"github.com/sat8bit/chorus/scene"
)

// View は Turn の JSON 表現です。CLI と MCP サーバが返します。
type View struct {
	TurnID     string            `json:"turnId"`
	Epoch      uint64            `json:"epoch"`
	Vector     scene.Vector      `json:"vector"`
	Selections []SelectionView   `json:"selections"`
	Results    []response.Result `json:"results"`
	Report     response.Report   `json:"report"`
}

type SelectionView struct {
	VoiceID      string      `json:"voiceId"`
	Signature    string      `json:"signature"`
	Reason       string      `json:"reason"`
	Relevance    float64     `json:"relevance,omitempty"`
	RespondingTo string      `json:"respondingTo,omitempty"`
	CascadeRule  string      `json:"cascadeRule,omitempty"`
	Check        *dice.Check `json:"check,omitempty"`
}

func (t *Turn) View() View {
	v := View{
		TurnID:     t.ID,
		Epoch:      t.Epoch,
		Vector:     t.Vector,
		Selections: make([]SelectionView, 0, len(t.Selections)),
		Results:    t.Results,
		Report:     t.Report,
	}
	if v.Results == nil {
		v.Results = []response.Result{}
	}
	for _, s := range t.Selections {
		sv := SelectionView{
			VoiceID:      s.Voice.ID,
			Signature:    s.Voice.Signature,
			Reason:       string(s.Reason),
			RespondingTo: s.RespondingTo,
			CascadeRule:  s.CascadeRule,
			Check:        s.Check,
		}
		if s.Relevance != nil {
			sv.Relevance = s.Relevance.Value
		}
		v.Selections = append(v.Selections, sv)
	}
	return v
}
