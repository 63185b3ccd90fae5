package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vectro/internal/domain"
)

func (c *cli) newTelemetryCmd() *cobra.Command {
	var (
		last   int
		filter string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Print archived task runs",
		Long: `Print archived task runs from the telemetry log, oldest first.

Examples:
  vectro telemetry --last 5
  vectro telemetry --task emit_results --json`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if last < 0 {
				return fmt.Errorf("--last must be non-negative, got %d", last)
			}
			a, err := c.load()
			if err != nil {
				return err
			}
			entries, err := a.telemetry.Entries()
			if err != nil {
				return err
			}
			if filter != "" {
				kind, err := domain.ParseTaskKind(filter)
				if err != nil {
					return err
				}
				entries = filterTask(entries, kind.String())
			}
			if last > 0 && last < len(entries) {
				entries = entries[len(entries)-last:]
			}
			return c.printTelemetry(entries, asJSON)
		},
	}

	cmd.Flags().IntVar(&last, "last", 0, "show only the most recent N entries (0 shows all)")
	cmd.Flags().StringVar(&filter, "task", "", "show only runs of this task")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as a JSON array")
	return cmd
}

func filterTask(entries []domain.TaskResult, task string) []domain.TaskResult {
	out := make([]domain.TaskResult, 0, len(entries))
	for _, e := range entries {
		if e.Task == task {
			out = append(out, e)
		}
	}
	return out
}

func (c *cli) printTelemetry(entries []domain.TaskResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		fmt.Fprintf(c.stdout, "%s  %s\n", e.Timestamp, e.Task)
		for _, line := range strings.Split(e.Summary, "\n") {
			if line != "" {
				fmt.Fprintf(c.stdout, "    %s\n", line)
			}
		}
	}
	return nil
}
