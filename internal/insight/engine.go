// Package insight combines categorization, anomaly detection and spending
// forecasts into per-user reports.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-insight/internal/anomaly"
	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/Veraticus/spice-insight/internal/predictor"
	"github.com/Veraticus/spice-insight/internal/service"
	"github.com/shopspring/decimal"
)

// RecentCount is how many transactions a dashboard lists.
const RecentCount = 5

// Classifier predicts categories and rebuilds its model on demand.
type Classifier interface {
	PredictCategory(description string, amount decimal.Decimal, txType model.TransactionType) model.Category
	Retrain(ctx context.Context) error
}

// Report is the combined analysis of one user's transactions.
type Report struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Health      model.HealthReport    `json:"health"`
	Forecast    model.Forecast        `json:"forecast"`
	Anomalies   []model.AnomalyRecord `json:"anomalies"`
	Trends      model.TrendSummary    `json:"trends"`
}

// Dashboard is the at-a-glance summary of a user's finances.
type Dashboard struct {
	TotalIncome   decimal.Decimal     `json:"total_income"`
	TotalExpenses decimal.Decimal     `json:"total_expenses"`
	Balance       decimal.Decimal     `json:"balance"`
	Recent        []model.Transaction `json:"recent"`
	HealthScore   int                 `json:"health_score"`
}

// CategoryTotal is the summed expense amount of one category.
type CategoryTotal struct {
	Category model.Category  `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithContamination sets the expected anomaly fraction for detection.
func WithContamination(contamination float64) Option {
	return func(e *Engine) {
		e.contamination = contamination
	}
}

// WithMonthsAhead sets the forecast horizon.
func WithMonthsAhead(months int) Option {
	return func(e *Engine) {
		e.monthsAhead = months
	}
}

// WithClock overrides the time source used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine answers insight requests. Each request fetches the user's
// transactions once and runs every analyzer on that snapshot.
type Engine struct {
	source        service.TransactionSource
	classifier    Classifier
	logger        *slog.Logger
	now           func() time.Time
	contamination float64
	monthsAhead   int
}

// New creates an engine.
func New(source service.TransactionSource, classifier Classifier, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		source:        source,
		classifier:    classifier,
		logger:        common.LoggerOrDefault(logger).With("component", "insight"),
		now:           time.Now,
		contamination: anomaly.DefaultContamination,
		monthsAhead:   1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze builds the full report for a user. Only a failure to fetch the
// transactions is returned; analyzers degrade to empty results instead.
func (e *Engine) Analyze(ctx context.Context, userID string) (*Report, error) {
	txns, err := e.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := e.AnalyzeTransactions(txns)
	e.logger.Info("Analysis complete",
		"user", userID,
		"transactions", len(txns),
		"anomalies", len(report.Anomalies),
		"forecast_available", report.Forecast.Available)
	return &report, nil
}

// AnalyzeTransactions runs every analyzer on txns.
func (e *Engine) AnalyzeTransactions(txns []model.Transaction) Report {
	detector := anomaly.NewDetector(
		anomaly.WithContamination(e.contamination),
		anomaly.WithLogger(e.logger),
	)

	return Report{
		GeneratedAt: e.now(),
		Trends:      predictor.AnalyzeSpendingTrends(txns),
		Anomalies:   detector.DetectAnomalies(txns),
		Forecast:    predictor.PredictFutureSpending(txns, e.monthsAhead),
		Health:      FinancialHealth(txns),
	}
}

// Health fetches a user's transactions and scores them.
func (e *Engine) Health(ctx context.Context, userID string) (model.HealthReport, error) {
	txns, err := e.fetch(ctx, userID)
	if err != nil {
		return model.HealthReport{}, err
	}
	return FinancialHealth(txns), nil
}

// Dashboard fetches a user's transactions and summarises them.
func (e *Engine) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	txns, err := e.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := Summarize(txns)
	return &d, nil
}

// Forecast fetches a user's transactions and extrapolates spending
// monthsAhead months out. Values below 1 use the engine default.
func (e *Engine) Forecast(ctx context.Context, userID string, monthsAhead int) (model.Forecast, error) {
	txns, err := e.fetch(ctx, userID)
	if err != nil {
		return model.Forecast{}, err
	}
	if monthsAhead < 1 {
		monthsAhead = e.monthsAhead
	}
	return predictor.PredictFutureSpending(txns, monthsAhead), nil
}

// Categories fetches a user's transactions and totals expenses per category.
func (e *Engine) Categories(ctx context.Context, userID string) ([]CategoryTotal, error) {
	txns, err := e.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	return CategoryTotals(txns), nil
}

// PredictCategory delegates to the classifier. It always returns a valid
// category.
func (e *Engine) PredictCategory(description string, amount decimal.Decimal, txType model.TransactionType) model.Category {
	return e.classifier.PredictCategory(description, amount, txType)
}

// Retrain rebuilds the classifier's model.
func (e *Engine) Retrain(ctx context.Context) error {
	if err := e.classifier.Retrain(ctx); err != nil {
		return fmt.Errorf("retrain failed: %w", err)
	}
	return nil
}

func (e *Engine) fetch(ctx context.Context, userID string) ([]model.Transaction, error) {
	txns, err := e.source.GetTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for %s: %w", userID, err)
	}
	return txns, nil
}
