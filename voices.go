package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/sat8bit/chorus/chorus"
	"github.com/sat8bit/chorus/relation"
	"github.com/spf13/cobra"
)

func init() {
	voicesCmd.Flags().String("state", "", "host snapshot YAML; shows effective levels")
	relationsCmd.Flags().String("out", "", "directory to write relations.yaml into (required)")
	_ = relationsCmd.MarkFlagRequired("out")
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voice table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		snap, err := snapshot(cmd, cfg.Settings)
		if err != nil {
			return err
		}
		cat, err := chorus.LoadCatalog(cmd.Context(), cfg.RelationsDir, nil)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "ID\tSIGNATURE\tATTRIBUTE\tLEVEL\tRIVALS")
		for _, v := range cat.Pool.All() {
			rivals := 0
			if e := cat.Graph.Entry(v.ID); e != nil {
				rivals = len(e.Rivals)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", v.ID, v.Signature, v.Attribute, snap.Level(v.ID, v.BaseLevel), rivals)
		}
		return nil
	},
}

var relationsCmd = &cobra.Command{
	Use:   "relations",
	Short: "Write the merged relationship table as an editable override file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		cat, err := chorus.LoadCatalog(cmd.Context(), cfg.RelationsDir, nil)
		if err != nil {
			return err
		}
		if err := relation.NewStore(out).Save(cat.Graph); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(out, relation.OverrideFile))
		return nil
	},
}
