package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"murmur/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transcription runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						formatTimestamp(run.StartedAt),
						run.Status,
						strconv.Itoa(run.FileCount),
						filepath.Base(run.Model),
						run.Language,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Status", "Files", "Model", "Language"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultRunLimit, "Maximum number of runs to show")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-file results for one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				files, err := store.Files(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(files) == 0 {
					fmt.Fprintf(out, "No files recorded for run %s\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(files))
				for _, f := range files {
					detail := f.Output
					if f.Error != "" {
						detail = f.Error
					}
					rows = append(rows, []string{
						strconv.Itoa(f.Position + 1),
						filepath.Base(f.Input),
						f.State,
						strconv.Itoa(f.Segments),
						formatElapsed(f.Elapsed),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Input", "State", "Cues", "Recognition", "Output / Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled (history.enabled = false)")
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
