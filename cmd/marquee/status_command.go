package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"marquee/internal/preflight"
	"marquee/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks and database counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()

			checkRows := make([][]string, 0, 8)
			for _, check := range preflight.RunAll(cmd.Context(), cfg) {
				checkRows = append(checkRows, []string{check.Name, passFail(check.Passed), check.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Detail"},
				checkRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if _, err := os.Stat(cfg.DatabasePath()); err != nil {
				fmt.Fprintln(out, "\nNo database yet; run 'marquee run' to load it")
				return nil
			}

			st, err := store.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			counts, err := st.TableCounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("table counts: %w", err)
			}
			countRows := make([][]string, 0, len(counts))
			for _, table := range []string{"movies", "genres", "movie_genres", "ratings", "movie_details"} {
				countRows = append(countRows, []string{table, strconv.FormatInt(counts[table], 10)})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(
				[]string{"Table", "Rows"},
				countRows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func passFail(passed bool) string {
	if passed {
		return "ok"
	}
	return "FAIL"
}
