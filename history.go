package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/sat8bit/chorus/journal"
	"github.com/spf13/cobra"
)

func init() {
	historyCmd.Flags().Int("limit", 20, "number of turns to list")
	historyCmd.Flags().String("turn", "", "show the voices of one turn")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded turns from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.JournalEnabled() {
			return fmt.Errorf("the journal is disabled")
		}

		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer j.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		if id, _ := cmd.Flags().GetString("turn"); id != "" {
			voices, err := j.Voices(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "VOICE\tREASON\tCHECK\tTEXT")
			for _, v := range voices {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.VoiceID, v.Reason, v.Check, v.Text)
			}
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		turns, err := j.Recent(ctx, limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "TURN\tAT\tVOICES\tDROPPED\tFALLBACK\tSCENE")
		for _, t := range turns {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%t\t%s\n",
				t.TurnID, t.At.Local().Format("2006-01-02 15:04:05"), t.Voices, t.Dropped, t.Fallback, preview(t.Scene, 48))
		}
		return nil
	},
}

func preview(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' {
			r[i] = ' '
		}
	}
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return string(r)
}
