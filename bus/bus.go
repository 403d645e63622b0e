package bus

import (
	"github.com/sat8bit/chorus/message"
)

// Bus は、ターンの出来事をレンダラーや監視役へ配る責務を持ちます。
type Bus interface {
	Broadcast(m *message.Message) error
	Subscribe() <-chan *message.Message
	Close()
}
