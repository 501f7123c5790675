package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Veraticus/spice-insight/internal/cli"
	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/Veraticus/spice-insight/internal/ofx"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func init() {
	importOFXCmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX (Quicken) files exported from your bank.
Imported transactions are categorized as they are saved. Importing the
same file twice does not create duplicates.

Examples:
  # Import single file
  spice import-ofx ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory
  spice import-ofx ~/Downloads/*.qfx

  # Preview without saving
  spice import-ofx --dry-run ~/Downloads/Chase/*.qfx ~/Downloads/Ally/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	importOFXCmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	importOFXCmd.Flags().BoolP("verbose", "v", false, "Show every imported transaction")

	rootCmd.AddCommand(importOFXCmd)
}

// fileResult records what happened to one imported file.
type fileResult struct {
	File     string
	Parsed   int
	Inserted int
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	out := cmd.OutOrStdout()

	files, err := expandPatterns(args)
	if err != nil {
		return err
	}

	slog.Info("🌶️  Importing OFX files...",
		"file_count", len(files),
		"dry_run", dryRun)

	interruptHandler := cli.NewInterruptHandler(out, "Import")
	interruptHandler.SetResumeHint("spice import-ofx (already imported transactions are skipped)")
	ctx := interruptHandler.HandleInterrupts(cmd.Context(), !dryRun)
	defer interruptHandler.Stop()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	predictor, err := initCategorizer(ctx, store)
	if err != nil {
		return err
	}

	parser := ofx.NewParser(settings.UserID, slog.Default())
	results, err := importFiles(ctx, out, files, parser, predictor, store, dryRun, verbose)
	if interruptHandler.WasInterrupted() {
		return nil
	}
	if err != nil {
		return err
	}

	printImportSummary(out, results, dryRun)
	return nil
}

// transactionSaver persists imported transactions.
type transactionSaver interface {
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
}

// importFiles parses, categorizes and (unless dryRun) saves each file in
// turn. Unreadable files are logged and skipped. When ctx ends, the results
// so far are returned with the context's error.
func importFiles(ctx context.Context, out io.Writer, files []string, parser *ofx.Parser, predictor categoryPredictor, saver transactionSaver, dryRun, verbose bool) ([]fileResult, error) {
	var results []fileResult

	for _, filePath := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		txns, err := parseOFXFile(ctx, parser, filePath)
		if err != nil {
			common.LogError(err, "Failed to import file", common.Fields{"file": filePath})
			continue
		}
		if len(txns) == 0 {
			slog.Warn("No transactions found in file", "file", filepath.Base(filePath))
			continue
		}

		bar := cli.NewProgressBar(out, len(txns), "Categorizing "+filepath.Base(filePath))
		categorized, err := categorizeTransactions(ctx, txns, predictor, bar)
		if err != nil {
			return results, fmt.Errorf("failed to categorize %s: %w", filepath.Base(filePath), err)
		}

		result := fileResult{File: filepath.Base(filePath), Parsed: len(categorized)}
		if !dryRun {
			inserted, err := saver.SaveTransactions(ctx, categorized)
			if err != nil {
				return results, fmt.Errorf("failed to save transactions from %s: %w", filePath, err)
			}
			result.Inserted = inserted
		}
		results = append(results, result)

		if verbose {
			fmt.Fprintln(out, cli.RenderTransactions(categorized))
		}
	}
	return results, nil
}

// expandPatterns resolves globs and plain paths into a sorted, de-duplicated
// file list.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, err := os.Stat(pattern); err == nil {
				matches = []string{pattern}
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	sort.Strings(files)
	return files, nil
}

func parseOFXFile(ctx context.Context, parser *ofx.Parser, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	txns, err := parser.ParseFile(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return txns, nil
}

// categorizeTransactions fills in missing categories. It stops with the
// context error when ctx is canceled part way through.
func categorizeTransactions(ctx context.Context, txns []model.Transaction, predictor categoryPredictor, bar *progressbar.ProgressBar) ([]model.Transaction, error) {
	categorized := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if txn.Category == "" {
			txn.Category = predictor.PredictCategory(txn.Description, txn.Amount, txn.Type)
			txn.CategorySource = model.SourcePredicted
		}
		categorized = append(categorized, txn)
		cli.Advance(bar)
	}
	return categorized, nil
}

func printImportSummary(w io.Writer, results []fileResult, dryRun bool) {
	if len(results) == 0 {
		fmt.Fprintln(w, cli.FormatWarning("No transactions found in any file."))
		return
	}

	rows := make([][]string, 0, len(results))
	parsed, inserted := 0, 0
	for _, r := range results {
		saved := fmt.Sprintf("%d", r.Inserted)
		if dryRun {
			saved = "-"
		}
		rows = append(rows, []string{r.File, fmt.Sprintf("%d", r.Parsed), saved})
		parsed += r.Parsed
		inserted += r.Inserted
	}

	fmt.Fprintln(w, "\n📁 File import summary:")
	fmt.Fprintln(w, cli.RenderTable([]string{"File", "Parsed", "Saved"}, rows))

	if dryRun {
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Dry run complete: %d transactions parsed, nothing saved.", parsed)))
		return
	}
	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Imported %d new transactions (%d already present).", inserted, parsed-inserted)))
}
