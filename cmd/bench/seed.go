package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stellarlinkco/model-bench/internal/store"
)

// seedFile is the YAML shape accepted by the seed command: models,
// benchmarks, and questions, all optional.
type seedFile struct {
	Models []struct {
		Codename    string `yaml:"codename"`
		DisplayName string `yaml:"displayname"`
		Backend     string `yaml:"backend"`
		Identifier  string `yaml:"identifier"`
		FilesizeMB  int64  `yaml:"filesize_mb"`
		License     string `yaml:"license_name"`
	} `yaml:"models"`
	Benchmarks []struct {
		Codename        string `yaml:"codename"`
		DisplayName     string `yaml:"displayname"`
		Description     string `yaml:"description"`
		ScoreMultiplier int    `yaml:"score_multiplier"`
	} `yaml:"benchmarks"`
	Questions []struct {
		QuestionID string         `yaml:"question_id"`
		Benchmark  string         `yaml:"benchmark"`
		Info       map[string]any `yaml:"info"`
	} `yaml:"questions"`
}

func newSeedCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "seed <file>",
		Short:   "Register models, benchmarks, and questions from a YAML file",
		Args:    cobra.ExactArgs(1),
		PreRunE: st.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("bench: read seed file: %w", err)
			}

			var seed seedFile
			if err := yaml.Unmarshal(b, &seed); err != nil {
				return fmt.Errorf("bench: parse seed file: %w", err)
			}

			db, err := store.Open(st.cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			for _, m := range seed.Models {
				err := db.InsertModel(ctx, &store.Model{
					Codename:    m.Codename,
					DisplayName: m.DisplayName,
					Backend:     m.Backend,
					Identifier:  m.Identifier,
					FilesizeMB:  m.FilesizeMB,
					License:     m.License,
				})
				if err != nil {
					return err
				}
			}
			for _, bm := range seed.Benchmarks {
				err := db.InsertBenchmark(ctx, &store.Benchmark{
					Codename:        bm.Codename,
					DisplayName:     bm.DisplayName,
					Description:     bm.Description,
					ScoreMultiplier: bm.ScoreMultiplier,
				})
				if err != nil {
					return err
				}
			}
			for _, q := range seed.Questions {
				info, err := json.Marshal(q.Info)
				if err != nil {
					return fmt.Errorf("bench: encode question %q: %w", q.QuestionID, err)
				}
				err = db.InsertQuestion(ctx, &store.Question{
					QuestionID: q.QuestionID,
					Benchmark:  q.Benchmark,
					InfoJSON:   string(info),
				})
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d models, %d benchmarks, %d questions\n",
				len(seed.Models), len(seed.Benchmarks), len(seed.Questions))
			return nil
		},
	}
}
