// Package main implements the vectro CLI: it runs the note indexing pipeline
// and inspects its state.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vectro/internal/config"
	"github.com/kailas-cloud/vectro/internal/pipeline"
	"github.com/kailas-cloud/vectro/internal/version"
)

const rootLongDesc = `vectro indexes short text notes into a vector store and answers
similarity queries against them.

Tasks run in the order declared by the step list:
  define_schema     create the notes collection if absent
  insert_vectors    embed and insert the sample notes
  embed_query       embed INPUT_QUERY into state/query.json
  query_similarity  search with the stored query into state/results.json
  emit_results      print the stored results

Examples:
  vectro run
  INPUT_QUERY="How can Cortex assist with code?" vectro task embed_query
  vectro state show`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and maps the outcome to a process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	c.close()
	if err == nil {
		return 0
	}

	fmt.Fprintf(stderr, "error: %v\n", err)
	var exitErr *pipeline.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

// cli carries global flags and the lazily built application.
type cli struct {
	stdout   io.Writer
	stderr   io.Writer
	env      string
	logLevel string
	app      *app
}

func (c *cli) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vectro",
		Short:         "File-driven vector note pipeline",
		Long:          rootLongDesc,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&c.env, "env", config.GetEnv(), "config environment (reads config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log level: debug, info, warn, error")

	cmd.AddCommand(
		c.newRunCmd(),
		c.newTaskCmd(),
		c.newStateCmd(),
		c.newTelemetryCmd(),
		c.newStatusCmd(),
		c.newServeCmd(),
		c.newVersionCmd(),
	)
	return cmd
}

// load builds the application on first use.
func (c *cli) load() (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := config.Load(c.env)
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	a, err := newApp(c.env, cfg, c.stdout)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
}

// childArgs are the global flags forwarded to a re-invoked vectro process.
func (c *cli) childArgs() []string {
	args := []string{"--env", c.env}
	if c.logLevel != "" {
		args = append(args, "--log-level", c.logLevel)
	}
	return args
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(c.stdout, version.String())
		},
	}
}
