package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/amice/infra/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List stored runs, or the matches of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  listRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Path == "" {
		return errors.New("store.path is not configured")
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if len(args) == 1 {
		res, err := st.Results(ctx, args[0])
		if err != nil {
			return err
		}
		for _, r := range res {
			_, _ = fmt.Fprintf(out, "%s\tt=%g\terr=%g\t%d features\n", r.Appliance, r.AbsoluteAnchor, r.Score(), r.Consumed())
		}
		return nil
	}
	runs, err := st.Runs(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		_, _ = fmt.Fprintf(out, "%s\t%s\t%d matches\t%d residual\n", r.ID, r.Created.Format(time.RFC3339), r.Matches, r.Residual)
	}
	return nil
}
