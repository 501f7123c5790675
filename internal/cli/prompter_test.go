package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/Veraticus/spice-insight/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_ConfirmCategory(t *testing.T) {
	tests := []struct {
		name             string
		input            string
		suggested        model.Category
		expectedCategory model.Category
		expectedStats    ReviewStats
		expectSkipped    bool
		expectError      error
		contextCancelled bool
	}{
		{
			name:             "accept suggestion",
			input:            "a\n",
			suggested:        model.CategoryFood,
			expectedCategory: model.CategoryFood,
			expectedStats:    ReviewStats{Accepted: 1},
		},
		{
			name:             "choose by number",
			input:            "c\n2\n",
			suggested:        model.CategoryFood,
			expectedCategory: model.CategoryTransportation,
			expectedStats:    ReviewStats{Changed: 1},
		},
		{
			name:             "choose by name ignoring case",
			input:            "C\nhealthcare\n",
			suggested:        model.CategoryShopping,
			expectedCategory: model.CategoryHealthcare,
			expectedStats:    ReviewStats{Changed: 1},
		},
		{
			name:             "choosing the suggestion counts as accepted",
			input:            "c\nFood\n",
			suggested:        model.CategoryFood,
			expectedCategory: model.CategoryFood,
			expectedStats:    ReviewStats{Accepted: 1},
		},
		{
			name:          "skip transaction",
			input:         "s\n",
			suggested:     model.CategoryOther,
			expectSkipped: true,
			expectedStats: ReviewStats{Skipped: 1},
		},
		{
			name:             "invalid choice then valid",
			input:            "x\na\n",
			suggested:        model.CategoryBills,
			expectedCategory: model.CategoryBills,
			expectedStats:    ReviewStats{Accepted: 1},
		},
		{
			name:             "empty and unknown category then valid",
			input:            "c\n\nGroceries\n42\nEducation\n",
			suggested:        model.CategoryFood,
			expectedCategory: model.CategoryEducation,
			expectedStats:    ReviewStats{Changed: 1},
		},
		{
			name:        "input ends before a choice",
			input:       "",
			suggested:   model.CategoryFood,
			expectError: ErrInputTerminated,
		},
		{
			name:        "input ends while choosing category",
			input:       "c\n",
			suggested:   model.CategoryFood,
			expectError: ErrInputTerminated,
		},
		{
			name:             "context canceled",
			suggested:        model.CategoryFood,
			contextCancelled: true,
			expectError:      context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			prompter := NewPrompter(strings.NewReader(tt.input), &output)

			ctx := context.Background()
			if tt.contextCancelled {
				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(ctx)
				cancel()
			}

			txn := testutil.Expense("Corner Cafe", 12.5, "", "2024-03-05")
			category, skipped, err := prompter.ConfirmCategory(ctx, txn, tt.suggested)

			if tt.expectError != nil {
				require.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCategory, category)
			assert.Equal(t, tt.expectSkipped, skipped)
			assert.Equal(t, tt.expectedStats, prompter.Stats())

			out := output.String()
			assert.Contains(t, out, "Corner Cafe")
			assert.Contains(t, out, "$12.50")
			assert.Contains(t, out, string(tt.suggested))
		})
	}
}

func TestPrompter_InvalidInputShowsError(t *testing.T) {
	var output bytes.Buffer
	prompter := NewPrompter(strings.NewReader("nope\nc\nNotACategory\n1\n"), &output)

	category, _, err := prompter.ConfirmCategory(context.Background(),
		testutil.Expense("Bus Pass", 45, "", "2024-03-01"), model.CategoryTransportation)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryFood, category)

	out := output.String()
	assert.Contains(t, out, "Invalid choice")
	assert.Contains(t, out, "Unknown category")
	for _, c := range model.Categories {
		assert.Contains(t, out, string(c))
	}
}

func TestPrompter_ShowCompletion(t *testing.T) {
	var output bytes.Buffer
	prompter := NewPrompter(strings.NewReader("a\ns\nc\n3\n"), &output)
	ctx := context.Background()
	txn := testutil.Expense("Cinema", 18, "", "2024-03-02")

	for i := 0; i < 3; i++ {
		_, _, err := prompter.ConfirmCategory(ctx, txn, model.CategoryShopping)
		require.NoError(t, err)
	}

	stats := prompter.Stats()
	assert.Equal(t, ReviewStats{Accepted: 1, Changed: 1, Skipped: 1}, stats)
	assert.Equal(t, 3, stats.Total())

	output.Reset()
	prompter.ShowCompletion()
	out := output.String()
	assert.Contains(t, out, "Review Complete")
	assert.Contains(t, out, "Reviewed: 3")
	assert.Contains(t, out, "Changed:  1")
}

func TestParseCategoryInput(t *testing.T) {
	tests := []struct {
		input    string
		expected model.Category
		ok       bool
	}{
		{"1", model.CategoryFood, true},
		{"9", model.CategoryIncome, true},
		{"0", "", false},
		{"10", "", false},
		{"bills", model.CategoryBills, true},
		{"OTHER", model.CategoryOther, true},
		{"Groceries", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			category, ok := parseCategoryInput(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, category)
		})
	}
}
