package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/sink"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Run history from the SQLite store",
	}
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := sink.OpenStore(cfg.Run.StorePath)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			counts, err := store.CountVerdicts(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Run", run.ID},
				{"Domain", run.Domain},
				{"Source", run.Source},
				{"Started", run.Started.Format("2006-01-02 15:04:05 MST")},
				{"Input", strconv.Itoa(run.Input)},
			}
			verdicts := make([]string, 0, len(counts))
			for v := range counts {
				verdicts = append(verdicts, v)
			}
			sort.Strings(verdicts)
			for _, v := range verdicts {
				rows = append(rows, []string{"Verdict " + v, strconv.Itoa(counts[v])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}
