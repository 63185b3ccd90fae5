package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vectro/internal/domain"
	"github.com/kailas-cloud/vectro/internal/state"
)

func (c *cli) newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the query and result slots",
	}
	cmd.AddCommand(c.newStateShowCmd(), c.newStateClearCmd())
	return cmd
}

func (c *cli) newStateShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the pipeline phase and stored artifacts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			return c.showState(a.state, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the artifacts as JSON")
	return cmd
}

func (c *cli) showState(st *state.Store, asJSON bool) error {
	phase, err := st.Phase()
	if err != nil {
		return err
	}

	type view struct {
		Phase      string                `json:"phase"`
		Query      string                `json:"query,omitempty"`
		Dimensions int                   `json:"dimensions,omitempty"`
		Results    domain.ResultArtifact `json:"results,omitempty"`
	}
	v := view{Phase: phase.String()}

	if phase >= state.PhaseQueryReady {
		q, err := st.ReadQuery()
		if err != nil {
			return err
		}
		v.Query, v.Dimensions = q.Query, len(q.Vector)
	}
	if phase == state.PhaseResultsReady {
		hits, err := st.ReadResults()
		if err != nil {
			return err
		}
		v.Results = hits
	}

	if asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	fmt.Fprintf(c.stdout, "phase: %s\n", v.Phase)
	if v.Query != "" {
		fmt.Fprintf(c.stdout, "query: %q (%d dimensions)\n", v.Query, v.Dimensions)
	}
	if phase == state.PhaseResultsReady {
		fmt.Fprintf(c.stdout, "results: %d\n", len(v.Results))
	}
	return nil
}

func (c *cli) newStateClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove both artifact slots",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			if err := a.state.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, "state cleared")
			return nil
		},
	}
}
