package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	healthuc "github.com/kailas-cloud/vectro/internal/usecase/health"
)

func (c *cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the vector store and embedding provider",
		Long: `Probe the vector store, check the embedding provider and report the
pipeline phase. Exits non-zero unless every check passes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}

			report := a.health().Check(cmd.Context())
			fmt.Fprintf(c.stdout, "driver: %s\n", a.driver.Name())
			fmt.Fprintf(c.stdout, "collection: %s\n", a.cfg.Collection.Name)

			components := make([]string, 0, len(report.Checks))
			for name := range report.Checks {
				components = append(components, name)
			}
			sort.Strings(components)
			for _, name := range components {
				line := fmt.Sprintf("%s: %s", name, report.Checks[name])
				if msg, ok := report.Errors[name]; ok {
					line += " (" + msg + ")"
				}
				fmt.Fprintln(c.stdout, line)
			}

			if phase, err := a.state.Phase(); err == nil {
				fmt.Fprintf(c.stdout, "phase: %s\n", phase)
			}

			if report.Status != healthuc.Healthy {
				return fmt.Errorf("status %s", report.Status)
			}
			return nil
		},
	}
}
