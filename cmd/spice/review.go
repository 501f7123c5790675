package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-insight/internal/categorizer"
	"github.com/Veraticus/spice-insight/internal/cli"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/spf13/cobra"
)

// categoryUpdater persists a reviewed category.
type categoryUpdater interface {
	UpdateTransactionCategory(ctx context.Context, userID, id string, category model.Category) error
}

// categoryConfirmer asks the user about one suggestion.
type categoryConfirmer interface {
	ConfirmCategory(ctx context.Context, txn model.Transaction, suggested model.Category) (model.Category, bool, error)
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review suggested categories interactively",
		Long: `Walk through transactions and accept, change or skip the category
the categorizer suggests. Accepted and changed categories are saved
immediately, so an interrupted review keeps its progress.

Examples:
  # Review suggested categories you have not confirmed yet
  spice review

  # Review everything, newest first, then retrain on the answers
  spice review --all --retrain`,
		RunE: runReview,
	}

	cmd.Flags().Bool("all", false, "Review confirmed transactions too")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of transactions to review (0 for all)")
	cmd.Flags().Bool("retrain", false, "Retrain on your confirmed categories when done")

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	all, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")
	retrain, _ := cmd.Flags().GetBool("retrain")

	interruptHandler := cli.NewInterruptHandler(cmd.OutOrStdout(), "Review")
	interruptHandler.SetResumeHint("spice review")
	ctx := interruptHandler.HandleInterrupts(cmd.Context(), true)
	defer interruptHandler.Stop()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	c, err := initCategorizer(ctx, store)
	if err != nil {
		return err
	}

	txns, err := store.GetTransactions(ctx, settings.UserID)
	if err != nil {
		return fmt.Errorf("failed to get transactions: %w", err)
	}
	keep := needsReview
	if all {
		keep = allTransactions
	}
	txns = filterTransactions(txns, keep, limit)
	if len(txns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Nothing to review."))
		return nil
	}

	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	err = reviewTransactions(ctx, txns, c, prompter, store, settings.UserID)
	prompter.ShowCompletion()
	if interruptHandler.WasInterrupted() {
		return nil
	}
	if err != nil && !errors.Is(err, cli.ErrInputTerminated) {
		return err
	}

	if retrain {
		return retrainWithHistory(ctx, c, store, settings.UserID)
	}
	return nil
}

// reviewTransactions asks about each transaction in turn and saves every
// answer that is not a skip. Accepting a suggestion confirms it, so the row
// leaves the review queue and joins the training history.
func reviewTransactions(ctx context.Context, txns []model.Transaction, predictor categoryPredictor, confirmer categoryConfirmer, updater categoryUpdater, userID string) error {
	for _, txn := range txns {
		suggested := predictor.PredictCategory(txn.Description, txn.Amount, txn.Type)

		category, skipped, err := confirmer.ConfirmCategory(ctx, txn, suggested)
		if err != nil {
			return err
		}
		if skipped || (category == txn.Category && txn.Confirmed()) {
			continue
		}

		if err := updater.UpdateTransactionCategory(ctx, userID, txn.ID, category); err != nil {
			return fmt.Errorf("failed to save category for %s: %w", txn.ID, err)
		}
		slog.Debug("Saved reviewed category", "id", txn.ID, "category", category)
	}
	return nil
}

// historySource supplies the user-confirmed transactions used for
// retraining.
type historySource interface {
	GetCategorizedTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
}

func retrainWithHistory(ctx context.Context, c *categorizer.Categorizer, source historySource, userID string) error {
	history, err := source.GetCategorizedTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get categorized transactions: %w", err)
	}

	examples := historyExamples(history)
	slog.Info("Retraining with history", "examples", len(examples))
	if err := c.TrainWith(ctx, examples); err != nil {
		return fmt.Errorf("retrain failed: %w", err)
	}
	return nil
}

func historyExamples(history []model.Transaction) []categorizer.Example {
	examples := make([]categorizer.Example, 0, len(history))
	for _, t := range history {
		if !t.Confirmed() {
			continue
		}
		if ex, ok := categorizer.ExampleFromTransaction(t); ok {
			examples = append(examples, ex)
		}
	}
	return examples
}
