package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sat8bit/chorus/app"
	"github.com/sat8bit/chorus/bus"
	"github.com/sat8bit/chorus/chorus"
	"github.com/sat8bit/chorus/renderer"
	"github.com/sat8bit/chorus/state"
	"github.com/spf13/cobra"
)

func init() {
	reactCmd.Flags().String("text", "", "scene text (defaults to --file or stdin)")
	reactCmd.Flags().String("file", "", "read the scene text from a file")
	reactCmd.Flags().String("state", "", "host snapshot YAML (levels, statuses, settings)")
	reactCmd.Flags().Bool("dry-run", false, "select voices and print the instruction without calling the model")
	reactCmd.Flags().Bool("json", false, "print the turn as JSON")
}

var reactCmd = &cobra.Command{
	Use:   "react",
	Short: "Run one turn against a scene",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		text, err := sceneText(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		snap, err := snapshot(cmd, cfg.Settings)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		asJSON, _ := cmd.Flags().GetBool("json")

		b := bus.NewMemoryBus(0)
		var wg sync.WaitGroup
		if !asJSON && !dryRun {
			if err := renderer.NewConsoleRenderer(cmd.OutOrStdout(), 0).Render(b, &wg); err != nil {
				return err
			}
		}

		a, err := app.Build(ctx, cfg, app.Options{
			LogOutput:   cmd.ErrOrStderr(),
			LogLevel:    level(),
			Bus:         b,
			NoGenerator: dryRun,
		})
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		var tr *chorus.Turn
		if dryRun {
			tr, err = a.Engine.Plan(ctx, text, snap)
		} else {
			tr, err = a.Engine.React(ctx, text, snap)
		}
		b.Close()
		wg.Wait()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case asJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(tr.View())
		case dryRun:
			printPlan(out, tr)
		case tr.Empty():
			fmt.Fprintln(out, "(the chorus is silent)")
		}
		return nil
	},
}

func sceneText(cmd *cobra.Command) (string, error) {
	if text, _ := cmd.Flags().GetString("text"); text != "" {
		return text, nil
	}
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read scene: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read scene from stdin: %w", err)
	}
	return string(data), nil
}

// snapshot は --state のスナップショットを読み込み、指定のない設定を defaults で埋めます。
func snapshot(cmd *cobra.Command, defaults state.Settings) (state.Snapshot, error) {
	path, _ := cmd.Flags().GetString("state")
	snap, err := state.LoadFile(path)
	if err != nil {
		return state.Snapshot{}, err
	}
	snap.Settings = snap.Settings.WithDefaults(defaults)
	return snap, nil
}

func printPlan(w io.Writer, tr *chorus.Turn) {
	if tr.Empty() {
		fmt.Fprintln(w, "(no voices selected)")
		return
	}
	fmt.Fprintln(w, "# selected")
	for _, s := range tr.Selections {
		line := fmt.Sprintf("- %-24s %-8s", s.Voice.Signature, s.Reason)
		if s.RespondingTo != "" {
			line += " -> " + s.RespondingTo
		}
		if s.Check != nil {
			line += "  " + s.Check.String()
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintln(w, "\n# system")
	fmt.Fprintln(w, tr.Instruction.System)
	fmt.Fprintln(w, "\n# user")
	fmt.Fprintln(w, tr.Instruction.User)
}
