package supervisor

import (
	"context"
	"sync"

	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/message"
	"github.com/sat8bit/chorus/turn"
)

// Supervisor は、配信が終わったターンの数を監視し、上限に達したら停止信号を送ります。
type Supervisor struct {
	maxTurns   int
	turnCount  int
	bus        bus.Bus
	cancelFunc context.CancelFunc
	mu         sync.Mutex
	done       chan struct{}
}

// NewSupervisor は、新しい Supervisor を生成します。maxTurns が 0 以下なら停止しません。
func NewSupervisor(maxTurns int, bus bus.Bus, cancelFunc context.CancelFunc) *Supervisor {
	return &Supervisor{
		maxTurns:   maxTurns,
		bus:        bus,
		cancelFunc: cancelFunc,
		done:       make(chan struct{}),
	}
}

// Start は、ターンの監視を開始します。
func (s *Supervisor) Start() {
	ch := s.bus.Subscribe()

	go func() {
		defer close(s.done)
		for msg := range ch {
			if msg.Kind != message.KindTurnEnd {
				continue
			}

			s.mu.Lock()
			s.turnCount++
			reached := s.maxTurns > 0 && s.turnCount >= s.maxTurns
			s.mu.Unlock()
			if reached {
				s.cancelFunc()
				return
			}
		}
	}()
}

// Done は、監視が終わると閉じられるチャネルを返します。
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// GetCurrentTurn は、配信済みのターン数を返します。
func (s *Supervisor) GetCurrentTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnCount
}

// GetMaxTurns は、最大ターン数を返します。
func (s *Supervisor) GetMaxTurns() int {
	return s.maxTurns
}

var _ turn.TurnProvider = (*Supervisor)(nil)
