package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-insight/internal/cli"
	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/Veraticus/spice-insight/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// categoryPredictor is the slice of the categorizer the commands need.
type categoryPredictor interface {
	PredictCategory(description string, amount decimal.Decimal, txType model.TransactionType) model.Category
}

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Record a transaction",
		Long: `Record a single transaction. When no category is given, the
categorizer suggests one.

Examples:
  # Record a coffee purchase today
  spice add "Corner Cafe latte" 4.50

  # Record a paycheck
  spice add "Acme payroll" 2500 --type income --date 2024-03-01

  # Override the category
  spice add "Bookstore" 32.99 --category Education`,
		Args: cobra.ExactArgs(2),
		RunE: runAdd,
	}

	cmd.Flags().StringP("type", "t", string(model.TypeExpense), "Transaction type (expense, income)")
	cmd.Flags().String("date", "", "Transaction date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringP("category", "c", "", "Category (default: predicted)")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	txType, _ := cmd.Flags().GetString("type")
	date, _ := cmd.Flags().GetString("date")
	category, _ := cmd.Flags().GetString("category")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var predictor categoryPredictor
	if category == "" {
		c, err := initCategorizer(ctx, store)
		if err != nil {
			return err
		}
		predictor = c
	}

	txn, err := newTransaction(settings.UserID, args[0], args[1], txType, date, category, timeNow(), predictor)
	if err != nil {
		return err
	}

	inserted, err := store.SaveTransactions(ctx, []model.Transaction{txn})
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	if inserted == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("An identical transaction is already recorded."))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s %s as %s (%s)",
		txn.Description, cli.FormatAmount(txn.Amount), txn.Category, txn.ID)))
	return nil
}

// newTransaction validates raw command input and builds a transaction. When
// category is empty the predictor fills it in.
func newTransaction(userID, description, rawAmount, rawType, rawDate, rawCategory string, now time.Time, predictor categoryPredictor) (model.Transaction, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return model.Transaction{}, fmt.Errorf("%w: description is required", common.ErrInvalidInput)
	}

	amount, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(rawAmount), "$"))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: amount %q is not a number", common.ErrInvalidInput, rawAmount)
	}
	if amount.IsNegative() {
		return model.Transaction{}, fmt.Errorf("%w: amount must not be negative", common.ErrInvalidInput)
	}

	txType, err := model.ParseTransactionType(strings.ToLower(rawType))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}

	date := now
	if rawDate != "" {
		date, err = time.Parse("2006-01-02", rawDate)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", common.ErrInvalidInput, rawDate)
		}
	}

	txn := model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        date,
		Description: description,
		Amount:      amount,
		Type:        txType,
	}

	switch {
	case rawCategory != "":
		category, err := model.ParseCategory(rawCategory)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
		}
		txn.Category = category
		txn.CategorySource = model.SourceUser
	case predictor != nil:
		txn.Category = predictor.PredictCategory(description, amount, txType)
		txn.CategorySource = model.SourcePredicted
	default:
		txn.Category = model.DefaultCategory(txType)
		txn.CategorySource = model.SourceRule
	}

	txn.Hash = txn.GenerateHash()
	return txn, nil
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded transactions",
		Long:  `Show your transactions, newest first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")
			uncategorized, _ := cmd.Flags().GetBool("uncategorized")
			unconfirmed, _ := cmd.Flags().GetBool("unconfirmed")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txns, err := store.GetTransactions(ctx, settings.UserID)
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}
			keep := allTransactions
			switch {
			case uncategorized:
				keep = uncategorizedOnly
			case unconfirmed:
				keep = needsReview
			}
			txns = filterTransactions(txns, keep, limit)

			if wantJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), txns)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTransactions(txns))
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of transactions to show (0 for all)")
	cmd.Flags().Bool("uncategorized", false, "Only show transactions without a category")
	cmd.Flags().Bool("unconfirmed", false, "Only show transactions whose category you have not confirmed")
	addJSONFlag(cmd)

	return cmd
}

func allTransactions(model.Transaction) bool { return true }

func uncategorizedOnly(t model.Transaction) bool { return t.Category == "" }

// needsReview selects rows whose category the user has not confirmed.
func needsReview(t model.Transaction) bool { return !t.Confirmed() }

// filterTransactions keeps up to limit transactions (0 for all) that
// satisfy keep, preserving order.
func filterTransactions(txns []model.Transaction, keep func(model.Transaction) bool, limit int) []model.Transaction {
	filtered := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if !keep(t) {
			continue
		}
		filtered = append(filtered, t)
		if limit > 0 && len(filtered) == limit {
			break
		}
	}
	return filtered
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := deleteTransaction(ctx, store, settings.UserID, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted transaction "+args[0]))
			return nil
		},
	}
}

func deleteTransaction(ctx context.Context, store service.Storage, userID, id string) error {
	err := store.DeleteTransaction(ctx, userID, id)
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("transaction %s not found", id), err)
	}
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	slog.Debug("Deleted transaction", "id", id, "user_id", userID)
	return nil
}
