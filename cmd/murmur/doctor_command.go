package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"murmur/internal/deps"
	"murmur/internal/notifications"
	"murmur/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var testNotification bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories, and the default model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			}
			fmt.Fprintf(out, "Backend: %s\n\n", cfg.Engine.Backend)

			statuses := preflight.CheckSystemDeps(cfg)
			depRows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Path
				if !status.Available {
					detail = status.Detail
				}
				depRows = append(depRows, []string{
					status.Name,
					status.Command,
					dependencyState(status),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Status", "Detail"}, depRows, nil))

			results := preflight.RunAll(cmd.Context(), cfg)
			if !cfg.UsesRemoteEngine() {
				catalog, err := ctx.catalog()
				if err != nil {
					return err
				}
				results = append(results, preflight.CheckModel(catalog, cfg.Models.Default))
			}
			if testNotification {
				result := preflight.Result{Name: "Notifications", Passed: true, Detail: "test message sent"}
				if cfg.Notifications.NtfyTopic == "" {
					result = preflight.Result{Name: "Notifications", Detail: "notifications.ntfy_topic is not set"}
				} else if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					result.Passed = false
					result.Detail = err.Error()
				}
				results = append(results, result)
			}
			checkRows := make([][]string, 0, len(results))
			for _, r := range results {
				checkRows = append(checkRows, []string{r.Name, passFail(r.Passed), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			missing := deps.MissingRequired(statuses)
			failed := preflight.Failed(results)
			if len(missing) > 0 || len(failed) > 0 {
				return fmt.Errorf("%s failed", countLabel(len(missing)+len(failed), "check", "checks"))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&testNotification, "test-notification", false, "Send a test message to notifications.ntfy_topic")
	return cmd
}

func dependencyState(status deps.Status) string {
	switch {
	case status.Available:
		return "ok"
	case status.Optional:
		return "missing (optional)"
	default:
		return "MISSING"
	}
}
