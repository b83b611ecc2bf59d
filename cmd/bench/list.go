package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-bench/internal/store"
)

func newModelsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "models",
		Short:   "List registered models",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(st.cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			models, err := db.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODENAME\tBACKEND\tIDENTIFIER\tSIZE(MB)\tLICENSE")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", m.Codename, m.Backend, m.Identifier, m.FilesizeMB, m.License)
			}
			return tw.Flush()
		},
	}
}

func newBenchmarksCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "benchmarks",
		Short:   "List registered benchmarks",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(st.cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			benchmarks, err := db.ListBenchmarks(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODENAME\tNAME\tMULTIPLIER\tDESCRIPTION")
			for _, b := range benchmarks {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.Codename, b.DisplayName, b.ScoreMultiplier, b.Description)
			}
			return tw.Flush()
		},
	}
}
