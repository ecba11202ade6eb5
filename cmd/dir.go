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
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/tabtran/internal/pipeline"
)

var dirCmd = &cobra.Command{
	Use:   "dir [directory]",
	Short: "Translate every string table in a directory",
	Long: `Translate every .tsv file in a directory (default: the configured
input_dir, ./loc). Files that look like earlier outputs, named
*.<target>.tsv, are skipped. Each input produces <name>.<target>.tsv
next to it.

A quota abort stops the whole batch: the remaining files would hit the
same limit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		dir := cfg.InputDir
		if len(args) == 1 {
			dir = args[0]
		}

		inputs, err := findTables(dir, cfg.TargetLang)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			fmt.Printf("No .tsv files found in %s\n", dir)
			return nil
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

		var totalTranslated int
		var abortedSum *pipeline.Summary

		for _, in := range inputs {
			out := defaultOutputPath(in, cfg.TargetLang)
			sum, err := p.RunFile(cmd.Context(), in, out)
			if err != nil {
				// A malformed file should not stop the rest of the batch.
				fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", in, err)
				continue
			}
			printSummary(in, sum)
			if !noStore {
				saveHistory(cfg, svc.Name(), in, out, sum)
			}
			totalTranslated += sum.Translated
			if sum.Aborted {
				abortedSum = sum
				break
			}
		}

		if abortedSum != nil {
			if totalTranslated > 0 {
				fmt.Fprintf(os.Stderr, "Completed work was written; rerun to finish the remaining files\n")
			}
			return abortError(abortedSum)
		}
		return nil
	},
}

// findTables lists the translatable .tsv files in dir, in name order,
// excluding files carrying the output suffix for targetLang.
func findTables(dir, targetLang string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	outputSuffix := fmt.Sprintf(".%s.tsv", strings.ToLower(targetLang))

	var inputs []string
	for _, m := range matches {
		if strings.HasSuffix(strings.ToLower(m), outputSuffix) {
			continue
		}
		inputs = append(inputs, m)
	}
	return inputs, nil
}

func init() {
	rootCmd.AddCommand(dirCmd)

	dirCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	dirCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code")
	dirCmd.Flags().StringVar(&provider, "provider", "azure", "Translation provider (azure, google)")
	dirCmd.Flags().IntVar(&batchSize, "batch-size", 50, "Rows per request")
	dirCmd.Flags().IntVar(&maxBatchChars, "max-batch-chars", 9000, "Character budget per request")
	dirCmd.Flags().IntVar(&maxRetries, "max-retries", 12, "Attempts per batch when throttled")
	dirCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Retranslate rows that already have a translation")
	dirCmd.Flags().StringVar(&placeholderPattern, "pattern", "", "Override the protected-token regexp")
	dirCmd.Flags().BoolVar(&strictPassthrough, "strict", false, "Reject translations returned verbatim in a foreign language")
	dirCmd.Flags().StringVar(&dbPath, "db", "", "Run-history database path (default from config)")
	dirCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record runs in history")
}
