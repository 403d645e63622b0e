package turn

import (
	"context"
	"fmt"
)

// MutexManager は turn.Manager の実装です。
// バッファサイズ 1 のチャネルをセマフォとして使い、書き込めたらターン取得、読み出せたら解放です。
type MutexManager struct {
	turnCh chan struct{}
}

// NewMutexManager は新しい MutexManager を生成します。
func NewMutexManager() *MutexManager {
	return &MutexManager{turnCh: make(chan struct{}, 1)}
}

// Acquire はターンを取得します。保持されている場合は解放かキャンセルまでブロックします。
func (m *MutexManager) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("turn.MutexManager.Acquire: %w", ctx.Err())
	case m.turnCh <- struct{}{}:
		return nil
	}
}

// TryAcquire はブロックせずにターンの取得を試みます。
// 同じターンの応答を待っている間に来た呼び出しは、割り込ませずに拒否します。
func (m *MutexManager) TryAcquire() error {
	select {
	case m.turnCh <- struct{}{}:
		return nil
	default:
		return ErrBusy
	}
}

// Release は保持しているターンを解放します。保持していなければ何もしません。
func (m *MutexManager) Release() {
	select {
	case <-m.turnCh:
	default:
	}
}

// InFlight はターンが保持されているかどうかを返します。
func (m *MutexManager) InFlight() bool {
	return len(m.turnCh) > 0
}

var _ Manager = (*MutexManager)(nil)
