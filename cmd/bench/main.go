package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-bench/internal/config"
)

type cliState struct {
	configPath string
	cfg        *config.Config
}

func (st *cliState) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	st.cfg = cfg
	return nil
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{configPath: config.DefaultPath}

	root := &cobra.Command{
		Use:           "bench",
		Short:         "Run model benchmarks and browse results",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(newRunCmd(st))
	root.AddCommand(newModelsCmd(st))
	root.AddCommand(newBenchmarksCmd(st))
	root.AddCommand(newSeedCmd(st))
	root.AddCommand(newServeCmd(st))
	return root
}
