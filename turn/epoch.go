package turn

import "sync/atomic"

// Epoch はリクエストの世代を数えます。
// 生成結果は、その世代がまだ最新である場合にだけ反映されます。
type Epoch struct {
	n atomic.Uint64
}

// Next は新しい世代を発行します。
func (e *Epoch) Next() uint64 {
	return e.n.Add(1)
}

// Current は最新の世代を返します。
func (e *Epoch) Current() uint64 {
	return e.n.Load()
}

// IsCurrent は epoch が最新かどうかを返します。
func (e *Epoch) IsCurrent(epoch uint64) bool {
	return e.n.Load() == epoch
}
