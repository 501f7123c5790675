package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/spice-insight/internal/model"
)

// ErrInputTerminated is returned when the input stream ends mid-prompt.
var ErrInputTerminated = errors.New("input terminated")

// ReviewStats counts the outcomes of a category review session.
type ReviewStats struct {
	Accepted int
	Changed  int
	Skipped  int
}

// Total is the number of transactions reviewed.
func (s ReviewStats) Total() int {
	return s.Accepted + s.Changed + s.Skipped
}

// Prompter asks the user to confirm predicted transaction categories.
type Prompter struct {
	startTime time.Time
	writer    io.Writer
	reader    *LineReader
	stats     ReviewStats
	mu        sync.Mutex
}

// NewPrompter creates a prompter reading from reader and writing to writer.
// Nil values default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader:    NewLineReader(reader),
		writer:    writer,
		startTime: time.Now(),
	}
}

// ConfirmCategory shows txn with its suggested category and returns the
// category the user settles on. skipped is true when the user chose to leave
// the transaction unchanged.
func (p *Prompter) ConfirmCategory(ctx context.Context, txn model.Transaction, suggested model.Category) (category model.Category, skipped bool, err error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	if _, err := fmt.Fprintln(p.writer, RenderBox("Transaction Details", formatTransaction(txn))); err != nil {
		return "", false, fmt.Errorf("failed to write transaction box: %w", err)
	}

	options := fmt.Sprintf("  [A] Accept suggestion: %s\n  [C] Choose another category\n  [S] Skip this transaction\n",
		SuccessStyle.Render(string(suggested)))
	if _, err := fmt.Fprint(p.writer, FormatPrompt("Category options:")+"\n"+options+"\n"); err != nil {
		return "", false, fmt.Errorf("failed to write category options: %w", err)
	}

	choice, err := p.promptChoice(ctx, "Choice", []string{"a", "c", "s"})
	if err != nil {
		return "", false, err
	}

	switch choice {
	case "a":
		p.record(func(s *ReviewStats) { s.Accepted++ })
		return suggested, false, nil
	case "c":
		chosen, err := p.promptCategory(ctx)
		if err != nil {
			return "", false, err
		}
		if chosen == suggested {
			p.record(func(s *ReviewStats) { s.Accepted++ })
		} else {
			p.record(func(s *ReviewStats) { s.Changed++ })
		}
		return chosen, false, nil
	default:
		p.record(func(s *ReviewStats) { s.Skipped++ })
		return "", true, nil
	}
}

// Stats returns the outcomes so far.
func (p *Prompter) Stats() ReviewStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// ShowCompletion prints a summary of the session.
func (p *Prompter) ShowCompletion() {
	stats := p.Stats()
	content := fmt.Sprintf("Reviewed: %d\nAccepted: %d\nChanged:  %d\nSkipped:  %d\nDuration: %s",
		stats.Total(), stats.Accepted, stats.Changed, stats.Skipped,
		time.Since(p.startTime).Round(time.Second))
	if _, err := fmt.Fprintln(p.writer, RenderBox(CheckIcon+" Review Complete", content)); err != nil {
		slog.Warn("Failed to write completion summary", "error", err)
	}
}

func (p *Prompter) record(update func(*ReviewStats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	update(&p.stats)
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		input, err := p.readLine(ctx, prompt)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

// promptCategory accepts a category name or its number in model.Categories.
func (p *Prompter) promptCategory(ctx context.Context) (model.Category, error) {
	var list strings.Builder
	for i, c := range model.Categories {
		fmt.Fprintf(&list, "  %d. %s\n", i+1, c)
	}
	if _, err := fmt.Fprint(p.writer, "\n"+list.String()+"\n"); err != nil {
		return "", fmt.Errorf("failed to write categories: %w", err)
	}

	for {
		input, err := p.readLine(ctx, "Category")
		if err != nil {
			return "", err
		}

		if category, ok := parseCategoryInput(input); ok {
			return category, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Unknown category. Enter a name or number from the list.")); err != nil {
			slog.Warn("Failed to write unknown category error", "error", err)
		}
	}
}

func (p *Prompter) readLine(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", ErrInputTerminated
	}
	return line, err
}

func parseCategoryInput(input string) (model.Category, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(model.Categories) {
			return model.Categories[n-1], true
		}
		return "", false
	}
	for _, c := range model.Categories {
		if strings.EqualFold(string(c), input) {
			return c, true
		}
	}
	return "", false
}

func formatTransaction(txn model.Transaction) string {
	category := string(txn.Category)
	if category == "" {
		category = SubtleStyle.Render("uncategorized")
	}
	return fmt.Sprintf("%s %s\n%s %s\n%s %s (%s)\n%s %s",
		BoldStyle.Render("Date:"), txn.Date.Format("2006-01-02"),
		BoldStyle.Render("Description:"), txn.Description,
		BoldStyle.Render("Amount:"), FormatAmount(txn.Amount), txn.Type,
		BoldStyle.Render("Current:"), category)
}
