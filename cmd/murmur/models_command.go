package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"murmur/internal/models"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List and download recognition models",
	}
	modelsCmd.AddCommand(newModelsListCommand(ctx))
	modelsCmd.AddCommand(newModelsDownloadCommand(ctx))
	return modelsCmd
}

func newModelsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the model catalog and which models are downloaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := ctx.catalog()
			if err != nil {
				return err
			}
			entries := catalog.Models()
			rows := make([][]string, 0, len(entries))
			for _, desc := range entries {
				rows = append(rows, []string{desc.ID, desc.SizeLabel, yesNo(desc.Exists), desc.Description})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Model", "Size", "Downloaded", "Description"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "Models directory: %s\n", catalog.Dir())
			return nil
		},
	}
}

func newModelsDownloadCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "download <model>",
		Short: "Download a catalog model into the models directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			catalog, err := ctx.catalog()
			if err != nil {
				return err
			}
			desc, ok := catalog.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown model %q (see murmur models list)", args[0])
			}
			out := cmd.OutOrStdout()
			if desc.Exists && !force {
				fmt.Fprintf(out, "%s already downloaded at %s\n", desc.ID, desc.LocalPath)
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			locator := models.NewLocator(catalog, models.NewHTTPDownloader(cfg.DownloadTimeout()), logger)
			progress := newDownloadProgress(cmd.ErrOrStderr())
			if isTerminal(cmd.ErrOrStderr()) {
				locator.OnProgress = progress.update
			}
			path, err := locator.Fetch(runCtx, desc)
			progress.finish()
			if err != nil {
				if ctxErr := runCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				return err
			}
			fmt.Fprintf(out, "Downloaded %s to %s\n", desc.ID, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Download again even if the file exists")
	return cmd
}
