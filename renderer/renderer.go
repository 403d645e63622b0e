package renderer

import (
	"sync"

	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/voice"
)

// Renderer は、bus に流れるターンの出来事を表示するコンポーネントが満たすべきインターフェースです。
type Renderer interface {
	// Render は購読を始めます。バスが閉じられると wg.Done します。
	Render(bus bus.Bus, wg *sync.WaitGroup) error

	// Finalize は、すべてのターンが終了した後の最終処理を行います。
	Finalize(pool *voice.Pool) error
}
