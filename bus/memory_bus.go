package bus

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sat8bit/chorus/message"
)

// DefaultBuffer は購読チャネルのバッファサイズです。
const DefaultBuffer = 64

// ErrClosed は閉じたバスへの配信を示します。
var ErrClosed = errors.New("bus is closed")

// MemoryBus は bus.Bus のインメモリ実装です。
// 配信はノンブロッキングで、受信が追いつかない購読者へのメッセージは捨てて数えます。
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers []chan *message.Message
	buffer      int
	closed      bool
	dropped     atomic.Int64
}

// NewMemoryBus は新しい MemoryBus を生成します。buffer が 0 以下なら DefaultBuffer を使います。
func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &MemoryBus{buffer: buffer}
}

func (b *MemoryBus) Broadcast(m *message.Message) error {
	if m == nil {
		return errors.New("bus.MemoryBus.Broadcast: nil message")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- m:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe は購読チャネルを返します。閉じたバスでは閉じたチャネルを返します。
func (b *MemoryBus) Subscribe() <-chan *message.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *message.Message, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Close はバスを閉じ、すべての購読チャネルを閉じます。2 回目以降は何もしません。
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}

// Dropped は、バッファ溢れで捨てたメッセージ数を返します。
func (b *MemoryBus) Dropped() int64 {
	return b.dropped.Load()
}

var _ Bus = (*MemoryBus)(nil)
