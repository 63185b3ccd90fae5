package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vectro/internal/domain"
)

func (c *cli) newTaskCmd() *cobra.Command {
	names := make([]string, 0, len(domain.AllTasks()))
	for _, k := range domain.AllTasks() {
		names = append(names, k.String())
	}

	return &cobra.Command{
		Use:       "task <name>",
		Short:     "Run a single task",
		Long:      "Run one task and archive its output.\n\nTasks: " + strings.Join(names, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject unknown names before touching config.
			if _, err := domain.ParseTaskKind(args[0]); err != nil {
				return err
			}
			a, err := c.load()
			if err != nil {
				return err
			}
			defer a.flushMetrics()
			return a.registry().Dispatch(cmd.Context(), args[0])
		},
	}
}
