package turn

// TurnProvider は、現在のターン数と上限を提供します。
// watch モードのように、複数の場面を続けて処理するときに使います。
type TurnProvider interface {
	GetCurrentTurn() int
	GetMaxTurns() int
}
