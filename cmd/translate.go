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

	"github.com/spf13/cobra"

	"github.com/valpere/tabtran/internal/config"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string
	provider   string

	batchSize     int
	maxBatchChars int
	maxRetries    int
	overwrite     bool

	placeholderPattern string
	strictPassthrough  bool

	dbPath  string
	noStore bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate the untranslated rows of one string table",
	Long: `Translate the untranslated rows of a tab-separated string table.

The table must have a "source" column and a "translation" (or
"translated") column. Rows whose translation column is already filled
are skipped; use --overwrite to retranslate them. All other columns and
the row order are preserved exactly.

Format placeholders (%ITEM_NAME, {0}, <color=red>, \n, %d, ...) are
protected during translation, and any result that loses one is rejected
and left empty for a later run.

Providers:
  azure   Azure Translator (AZURE_TRANSLATOR_KEY / AZURE_TRANSLATOR_REGION)
  google  Google Cloud Translation (GOOGLE_APPLICATION_CREDENTIALS)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		out := outputFile
		if out == "" {
			out = defaultOutputPath(inputFile, cfg.TargetLang)
		}
		if inputFile == out {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		svc, err := buildService(cfg)
		if err != nil {
			return err
		}
		if err := svc.IsAvailable(cmd.Context()); err != nil {
			return err
		}
		p, err := buildPipeline(cfg, svc)
		if err != nil {
			return err
		}

		sum, err := p.RunFile(cmd.Context(), inputFile, out)
		if err != nil {
			return err
		}

		printSummary(inputFile, sum)
		if !noStore {
			saveHistory(cfg, svc.Name(), inputFile, out, sum)
		}

		// An abort still fails the run, even though completed batches
		// were written: rerunning picks up the remaining rows.
		if sum.Aborted && sum.Translated > 0 {
			fmt.Fprintf(os.Stderr, "Completed rows were written; rerun to finish the rest\n")
		}
		return abortError(sum)
	},
}

// resolveConfig loads layered configuration and applies the flags the user
// actually set on top of it.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("target") {
		cfg.TargetLang = targetLang
	}
	if flags.Changed("source") {
		cfg.SourceLang = sourceLang
	}
	if flags.Changed("provider") {
		cfg.Provider = provider
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = batchSize
	}
	if flags.Changed("max-batch-chars") {
		cfg.MaxBatchChars = maxBatchChars
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = maxRetries
	}
	if flags.Changed("overwrite") {
		cfg.Overwrite = overwrite
	}
	if flags.Changed("pattern") {
		cfg.PlaceholderPattern = placeholderPattern
	}
	if flags.Changed("strict") {
		cfg.StrictPassthrough = strictPassthrough
	}
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input .tsv file (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default <input>.<lang>.tsv)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code")
	translateCmd.Flags().StringVar(&provider, "provider", "azure", "Translation provider (azure, google)")

	translateCmd.Flags().IntVar(&batchSize, "batch-size", 50, "Rows per request")
	translateCmd.Flags().IntVar(&maxBatchChars, "max-batch-chars", 9000, "Character budget per request")
	translateCmd.Flags().IntVar(&maxRetries, "max-retries", 12, "Attempts per batch when throttled")
	translateCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Retranslate rows that already have a translation")

	translateCmd.Flags().StringVar(&placeholderPattern, "pattern", "", "Override the protected-token regexp")
	translateCmd.Flags().BoolVar(&strictPassthrough, "strict", false, "Reject translations returned verbatim in a foreign language")

	translateCmd.Flags().StringVar(&dbPath, "db", "", "Run-history database path (default from config)")
	translateCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record this run in history")

	translateCmd.MarkFlagRequired("input")
}
