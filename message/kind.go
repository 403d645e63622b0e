package message

type Kind string

const (
	KindScene   Kind = "scene"    // 新しい場面の受信
	KindVoice   Kind = "voice"    // 声の発話 1 行
	KindTurnEnd Kind = "turn_end" // 1 ターンの配信完了
	KindSystem  Kind = "system"
	KindError   Kind = "error"
	KindLog     Kind = "log"
	KindEnd     Kind = "end"
)
