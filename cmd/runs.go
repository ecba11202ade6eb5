/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/tabtran/internal/pipeline"
	"github.com/valpere/tabtran/internal/store"
)

var (
	runsDBPath string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run history",
	Long:  `List past translation runs, show the per-row report of one run, and clear history.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		runs, err := db.ListRuns(runsLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tFILE\tLANG\tTRANSLATED\tSKIPPED\tREJECTED\tSTATUS")
		for _, r := range runs {
			status := "ok"
			if r.Aborted {
				status = "aborted"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s>%s\t%d/%d\t%d\t%d\t%s\n",
				r.ID[:8], r.CreatedAt.Format("2006-01-02 15:04"),
				r.InputFile, r.SourceLang, r.TargetLang,
				r.Translated, r.Eligible, r.Skipped, r.QAFailed, status)
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the per-row report of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		run, err := db.GetRun(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:        %s\n", run.ID)
		fmt.Printf("When:       %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Input:      %s\n", run.InputFile)
		fmt.Printf("Output:     %s\n", run.OutputFile)
		fmt.Printf("Provider:   %s (%s > %s)\n", run.Provider, run.SourceLang, run.TargetLang)
		fmt.Printf("Rows:       %d total, %d eligible\n", run.TotalRows, run.Eligible)
		fmt.Printf("Result:     %d translated, %d skipped, %d rejected, %d errors in %dms\n",
			run.Translated, run.Skipped, run.QAFailed, run.Errors, run.ElapsedMs)
		if run.Aborted {
			fmt.Printf("Aborted:    %s\n", run.AbortReason)
		}

		rows, err := db.RowOutcomes(run.ID)
		if err != nil {
			return fmt.Errorf("failed to list row outcomes: %w", err)
		}

		var problems []store.RowRecord
		for _, row := range rows {
			if row.Outcome == string(pipeline.OutcomeQAFailed) || row.Outcome == string(pipeline.OutcomeError) {
				problems = append(problems, row)
			}
		}
		if len(problems) == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROW\tOUTCOME\tSOURCE\tDETAIL")
		for _, row := range problems {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", row.RowNum, row.Outcome, truncate(row.Source, 40), row.Detail)
		}
		return w.Flush()
	},
}

// truncate shortens s to at most max runes, never splitting a multibyte
// character.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		n, err := db.ClearRuns()
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Printf("Cleared %d runs from history.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.PersistentFlags().StringVar(&runsDBPath, "db", "./data/tabtran.db", "Database path")
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum runs to list")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsClearCmd)
}
