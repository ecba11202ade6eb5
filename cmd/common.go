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
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/valpere/tabtran/internal/config"
	"github.com/valpere/tabtran/internal/detector"
	"github.com/valpere/tabtran/internal/pipeline"
	"github.com/valpere/tabtran/internal/placeholder"
	"github.com/valpere/tabtran/internal/qa"
	"github.com/valpere/tabtran/internal/store"
	"github.com/valpere/tabtran/internal/translator"
)

// buildService constructs the translation backend named by cfg.Provider.
func buildService(cfg *config.Config) (translator.Service, error) {
	retry := translator.RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  cfg.BackoffMax,
	}

	switch cfg.Provider {
	case "azure":
		return translator.NewAzureService(translator.AzureConfig{
			Endpoint: cfg.Azure.Endpoint,
			Key:      cfg.Azure.Key,
			Region:   cfg.Azure.Region,
			Retry:    retry,
		}), nil
	case "google":
		return translator.NewGoogleService(translator.GoogleConfig{
			Credentials: cfg.Google.Credentials,
			Retry:       retry,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// buildPipeline wires the masker, QA gate, and service into a pipeline.
func buildPipeline(cfg *config.Config, svc translator.Service) (*pipeline.Pipeline, error) {
	masker, err := placeholder.New(cfg.PlaceholderPattern)
	if err != nil {
		return nil, err
	}

	var opts []qa.Option
	if cfg.StrictPassthrough {
		opts = append(opts, qa.WithPassthroughCheck(detector.New(), cfg.TargetLang))
	}

	return pipeline.New(svc, masker, qa.New(masker, opts...), pipeline.Config{
		BatchSize:       cfg.BatchSize,
		MaxBatchChars:   cfg.MaxBatchChars,
		RequestInterval: cfg.RequestInterval,
		SourceLang:      cfg.SourceLang,
		TargetLang:      cfg.TargetLang,
		Overwrite:       cfg.Overwrite,
	}), nil
}

// defaultOutputPath derives "strings.uk.tsv" from "strings.tsv" and "uk".
func defaultOutputPath(inputPath, targetLang string) string {
	base := strings.TrimSuffix(inputPath, ".tsv")
	return fmt.Sprintf("%s.%s.tsv", base, strings.ToLower(targetLang))
}

// printSummary writes the human-readable run report to stdout.
func printSummary(inputPath string, sum *pipeline.Summary) {
	fmt.Printf("%s: %d rows, %d eligible\n", inputPath, sum.TotalRows, sum.Eligible)
	fmt.Printf("  translated: %d  skipped: %d  qa-rejected: %d  errors: %d  (%s)\n",
		sum.Translated, sum.Skipped, sum.QAFailed, sum.Errors, sum.Elapsed.Round(time.Millisecond))
	if sum.Aborted {
		fmt.Printf("  aborted at batch %d: %s\n", sum.AbortBatch, sum.AbortReason)
	}
	for _, row := range sum.Rows {
		if row.Outcome == pipeline.OutcomeQAFailed {
			fmt.Printf("  row %d rejected: %s\n", row.Row, row.Detail)
		}
	}
}

// abortError converts an aborted run into the command's error, naming the
// batch and reason. Completed batches were already written to the output;
// the non-zero exit tells callers the run did not finish.
func abortError(sum *pipeline.Summary) error {
	if !sum.Aborted {
		return nil
	}
	return fmt.Errorf("run aborted at batch %d: %s", sum.AbortBatch, sum.AbortReason)
}

// saveHistory records the run in the local history database. History is
// best-effort: a storage failure is logged, never fatal.
func saveHistory(cfg *config.Config, provider, inputPath, outputPath string, sum *pipeline.Summary) {
	if cfg.DBPath == "" {
		return
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		slog.Warn("run history unavailable", "db", cfg.DBPath, "error", err)
		return
	}
	defer db.Close()

	rows := make([]store.RowRecord, 0, len(sum.Rows))
	for _, row := range sum.Rows {
		rows = append(rows, store.RowRecord{
			RowNum:  row.Row,
			Source:  row.Source,
			Outcome: string(row.Outcome),
			Detail:  row.Detail,
		})
	}

	id, err := db.SaveRun(store.RunRecord{
		InputFile:   inputPath,
		OutputFile:  outputPath,
		Provider:    provider,
		SourceLang:  cfg.SourceLang,
		TargetLang:  cfg.TargetLang,
		TotalRows:   sum.TotalRows,
		Eligible:    sum.Eligible,
		Translated:  sum.Translated,
		Skipped:     sum.Skipped,
		QAFailed:    sum.QAFailed,
		Errors:      sum.Errors,
		Aborted:     sum.Aborted,
		AbortReason: sum.AbortReason,
		ElapsedMs:   sum.Elapsed.Milliseconds(),
	}, rows)
	if err != nil {
		slog.Warn("failed to record run", "error", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Run recorded: %s\n", id[:8])
}
