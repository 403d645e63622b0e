package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sat8bit/chorus/app"
	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/fetcher"
	"github.com/sat8bit/chorus/message"
	"github.com/sat8bit/chorus/renderer"
	"github.com/sat8bit/chorus/supervisor"
	"github.com/spf13/cobra"
)

func init() {
	watchCmd.Flags().String("feed", "", "RSS feed URL to read scenes from")
	watchCmd.Flags().Int("turns", 5, "stop after this many delivered turns (0 = one pass over the feed)")
	watchCmd.Flags().String("state", "", "host snapshot YAML")
	watchCmd.Flags().String("out", "./pages/content/posts", "directory for the Hugo Markdown transcript (empty = none)")
	watchCmd.Flags().Duration("delay", 20*time.Millisecond, "per-character console delay")
	_ = watchCmd.MarkFlagRequired("feed")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "React to every item of an RSS feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		feed, _ := cmd.Flags().GetString("feed")
		maxTurns, _ := cmd.Flags().GetInt("turns")
		outDir, _ := cmd.Flags().GetString("out")
		delay, _ := cmd.Flags().GetDuration("delay")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		snap, err := snapshot(cmd, cfg.Settings)
		if err != nil {
			return err
		}

		b := bus.NewMemoryBus(0)
		var wg sync.WaitGroup
		renderers := []renderer.Renderer{renderer.NewConsoleRenderer(cmd.OutOrStdout(), delay)}
		var md *renderer.MarkdownRenderer
		if outDir != "" {
			md = renderer.NewMarkdownRenderer(outDir)
			renderers = append(renderers, md)
		}
		for _, r := range renderers {
			if err := r.Render(b, &wg); err != nil {
				return err
			}
		}

		a, err := app.Build(ctx, cfg, app.Options{LogOutput: cmd.ErrOrStderr(), LogLevel: level(), Bus: b})
		if err != nil {
			b.Close()
			return err
		}
		defer a.Close(context.Background())

		sup := supervisor.NewSupervisor(maxTurns, b, cancel)
		sup.Start()
		if md != nil {
			md.SetProgress(sup)
		}

		scenes, err := fetcher.NewRSSFetcher(feed, maxTurns).Fetch(ctx)
		if err != nil {
			b.Close()
			return err
		}
		_ = b.Broadcast(&message.Message{
			Kind: message.KindSystem,
			Text: fmt.Sprintf("%d scenes from %s", len(scenes), feed),
			At:   time.Now(),
		})

		for _, sc := range scenes {
			if _, err := a.Engine.ReactScene(ctx, sc, snap); err != nil {
				if ctx.Err() != nil {
					break
				}
				a.Logger.ErrorContext(ctx, "turn failed", "source", "watch", "title", sc.Title, "error", err)
			}
		}

		b.Close()
		wg.Wait()
		<-sup.Done()
		for _, r := range renderers {
			if err := r.Finalize(a.Engine.Catalog().Pool); err != nil {
				a.Logger.Warn("finalize renderer", "error", err)
			}
		}
		a.Logger.Info("watch finished", "source", "watch", "turns", sup.GetCurrentTurn())
		return nil
	},
}
