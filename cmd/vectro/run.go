package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/pipeline"
)

const runLongDesc = `Run every task of the step list in order, stopping at the first failure.

The step list defaults to codex/vectro-index.yaml. Lines before the first
"trigger:" or "steps:" line are ignored. The exit status is that of the
failing task.

With --isolate each task runs in its own vectro process.

Examples:
  vectro run
  vectro run --pipeline ci/index.yaml --isolate`

func (c *cli) newRunCmd() *cobra.Command {
	var (
		path    string
		isolate bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the step list",
		Long:  runLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			defer a.flushMetrics()

			if path == "" {
				path = a.cfg.Pipeline.Path
			}
			spec, err := pipeline.LoadSpec(path)
			if err != nil {
				return err
			}

			var exec pipeline.Executor = pipeline.NewInProcess(a.registry())
			if isolate || a.cfg.Pipeline.Isolate {
				sub, err := pipeline.NewSubprocess(c.stdout, c.stderr, c.childArgs()...)
				if err != nil {
					return fmt.Errorf("locate vectro binary: %w", err)
				}
				exec = sub
			}

			a.logger.Debug("Running pipeline",
				zap.String("path", path),
				zap.Int("steps", len(spec.Steps)),
				zap.Bool("isolate", isolate || a.cfg.Pipeline.Isolate),
			)
			return pipeline.NewRunner(exec, c.stdout, a.logger).Run(cmd.Context(), spec)
		},
	}

	cmd.Flags().StringVar(&path, "pipeline", "", "step list path (default from pipeline.path)")
	cmd.Flags().BoolVar(&isolate, "isolate", false, "run each task in a child process")
	return cmd
}
