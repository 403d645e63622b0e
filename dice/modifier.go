package dice

import "github.com/sat8bit/chorus/state"

// StatusTable はステータス効果ごとの補正値を引く表です。
type StatusTable interface {
	Delta(statusID, voiceID string) (int, bool)
}

// StatusModifier は、有効なステータスが voiceID に与える補正の合計を返します。
// 未知のステータスは 0 として扱います。
func StatusModifier(t StatusTable, voiceID string, active []string) int {
	if t == nil {
		return 0
	}
	sum := 0
	for _, id := range active {
		if d, ok := t.Delta(id, voiceID); ok {
			sum += d
		}
	}
	return sum
}

// EffectiveLevel は補正を足したレベルを返します。1 未満にはなりません。
func EffectiveLevel(base int, modifiers ...int) int {
	lv := base
	for _, m := range modifiers {
		lv += m
	}
	return max(lv, 1)
}

// Luck は判定レベルに運の補正を加える任意の機能です。
// エンジンの生成時に一度だけ解決されます。
type Luck interface {
	Modifier(voiceID string, snap state.Snapshot) int
}

// NoLuck は常に 0 を返す既定の Luck です。
type NoLuck struct{}

func (NoLuck) Modifier(string, state.Snapshot) int { return 0 }

// LuckFunc は関数を Luck として使うためのアダプタです。
type LuckFunc func(voiceID string, snap state.Snapshot) int

func (f LuckFunc) Modifier(voiceID string, snap state.Snapshot) int { return f(voiceID, snap) }

var (
	_ Luck = NoLuck{}
	_ Luck = LuckFunc(nil)
)
