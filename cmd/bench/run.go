package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/model-bench/internal/llm"
	"github.com/stellarlinkco/model-bench/internal/runner"
	"github.com/stellarlinkco/model-bench/internal/store"
)

// storeResolver adapts the store's model registry to the router.
type storeResolver struct {
	st *store.Store
}

func (r storeResolver) GetModelByCodename(ctx context.Context, codename string) (*llm.ModelDescriptor, error) {
	m, err := r.st.GetModelByCodename(ctx, codename)
	if err != nil {
		return nil, err
	}
	return &llm.ModelDescriptor{
		Codename:   m.Codename,
		Backend:    llm.BackendKind(m.Backend),
		Identifier: m.Identifier,
	}, nil
}

func newRunCmd(st *cliState) *cobra.Command {
	var model string
	var benchmark string
	var allBenchmarks bool

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run one or all benchmarks against a model",
		Args:    cobra.NoArgs,
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				return errors.New("bench: --model is required")
			}
			if benchmark == "" && !allBenchmarks {
				return errors.New("bench: set --benchmark or --all-benchmarks")
			}

			db, err := store.Open(st.cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			router, err := llm.NewRouterFromConfig(st.cfg, storeResolver{st: db})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var benchmarks []store.Benchmark
			if allBenchmarks {
				benchmarks, err = db.ListBenchmarks(ctx)
				if err != nil {
					return err
				}
				if len(benchmarks) == 0 {
					return errors.New("bench: no benchmarks registered")
				}
			} else {
				b, err := db.GetBenchmark(ctx, benchmark)
				if err != nil {
					return err
				}
				benchmarks = []store.Benchmark{*b}
			}

			var failures int
			for _, b := range benchmarks {
				r := &runner.Runner{
					Client: router,
					Source: db,
					Writer: db,
					Model:  model,
					Config: runner.Config{
						Code:            b.Codename,
						ScoreMultiplier: b.ScoreMultiplier,
					},
				}

				runID, err := r.Run(ctx)
				if err != nil {
					failures++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: FAILED: %v\n", b.Codename, err)
					continue
				}

				run, _, err := db.GetRun(ctx, runID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: score %d (run %d)\n", b.Codename, run.Score, runID)
			}

			if failures > 0 {
				return fmt.Errorf("bench: %d of %d benchmarks failed", failures, len(benchmarks))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model codename to benchmark")
	cmd.Flags().StringVar(&benchmark, "benchmark", "", "benchmark codename to run")
	cmd.Flags().BoolVar(&allBenchmarks, "all-benchmarks", false, "run every registered benchmark")
	return cmd
}
