package message

import (
	"time"

	"github.com/sat8bit/chorus/response"
)

// Message は bus を流れる 1 件の出来事です。
type Message struct {
	TurnID string
	Kind   Kind
	Title  string // KindScene のみ
	Text   string
	Result *response.Result // KindVoice のみ
	At     time.Time
}

// Scene は場面受信のメッセージを生成します。
func Scene(turnID, title, text string) *Message {
	return &Message{TurnID: turnID, Kind: KindScene, Title: title, Text: text, At: time.Now()}
}

// Voice は声の発話メッセージを生成します。
func Voice(turnID string, r response.Result) *Message {
	return &Message{TurnID: turnID, Kind: KindVoice, Text: r.Text, Result: &r, At: time.Now()}
}

// TurnEnd はターン終了のメッセージを生成します。
func TurnEnd(turnID string) *Message {
	return &Message{TurnID: turnID, Kind: KindTurnEnd, At: time.Now()}
}
