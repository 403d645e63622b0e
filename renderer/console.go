package renderer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/message"
	"github.com/sat8bit/chorus/response"
	"github.com/sat8bit/chorus/voice"
)

// ConsoleRenderer は、声ごとの色で発話を端末に表示します。
type ConsoleRenderer struct {
	w      io.Writer
	delay  time.Duration
	styles *lipgloss.Renderer

	scene  lipgloss.Style
	dim    lipgloss.Style
	errSty lipgloss.Style
}

// NewConsoleRenderer は w (nil なら標準出力) に書き出す ConsoleRenderer を生成します。
// delay が正なら 1 文字ずつ表示します。
func NewConsoleRenderer(w io.Writer, delay time.Duration) *ConsoleRenderer {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	return &ConsoleRenderer{
		w:      w,
		delay:  delay,
		styles: r,
		scene:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("8")),
		errSty: r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (c *ConsoleRenderer) Render(b bus.Bus, wg *sync.WaitGroup) error {
	ch := b.Subscribe()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for m := range ch {
			c.print(m)
		}
	}()
	return nil
}

func (c *ConsoleRenderer) print(m *message.Message) {
	switch m.Kind {
	case message.KindScene:
		title := m.Title
		if title == "" {
			title = "scene"
		}
		fmt.Fprintln(c.w, c.scene.Render("── "+title+" ──"))
	case message.KindVoice:
		if m.Result != nil {
			c.voice(*m.Result)
		}
	case message.KindTurnEnd:
		fmt.Fprintln(c.w)
	case message.KindError:
		fmt.Fprintln(c.w, c.errSty.Render("[error] "+m.Text))
	case message.KindLog, message.KindSystem:
		fmt.Fprintln(c.w, c.dim.Render(m.Text))
	}
}

func (c *ConsoleRenderer) voice(r response.Result) {
	label := c.styles.NewStyle().Bold(true).Foreground(lipgloss.Color(r.Color)).Render(r.Label)
	prefix := label
	if r.Cascade && r.RespondingTo != "" {
		prefix = c.dim.Render("  ↳ ") + label
	}
	if r.Check != nil {
		prefix += " " + c.dim.Render("["+r.Check.String()+"]")
	}
	fmt.Fprint(c.w, prefix+": ")

	if c.delay <= 0 {
		fmt.Fprintln(c.w, r.Text)
		return
	}
	for _, ch := range r.Text {
		fmt.Fprint(c.w, string(ch))
		time.Sleep(c.delay)
	}
	fmt.Fprintln(c.w)
}

// Finalize は Renderer インターフェースを実装するためのメソッドです。
// ConsoleRenderer では特に何も行いません。
func (c *ConsoleRenderer) Finalize(*voice.Pool) error {
	return nil
}

var _ Renderer = (*ConsoleRenderer)(nil)
