package main

import (
	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-bench/api"
	"github.com/stellarlinkco/model-bench/internal/store"
)

func newServeCmd(st *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the dashboard API",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(st.cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			server, err := api.NewServer(st.cfg, db)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = st.cfg.API.Addr
			}
			return server.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config api.addr or :8080)")
	return cmd
}
