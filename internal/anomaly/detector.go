// Package anomaly flags unusual expenses in a user's transaction history
// with an isolation forest fitted on that history alone.
package anomaly

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/ml"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/shopspring/decimal"
)

// Detection thresholds.
const (
	MinTransactions      = 10
	MinExpenses          = 5
	MinDescriptionLength = 3
	DefaultContamination = 0.1
)

// HighAmountThreshold is the amount above which an anomaly is explained as
// unusually high.
var HighAmountThreshold = decimal.NewFromInt(500)

// Anomaly reasons.
const (
	ReasonHighAmount       = "Unusually high amount"
	ReasonShortDescription = "Very short description"
	ReasonUncategorized    = "Uncategorized transaction"
	ReasonUnusualPattern   = "Unusual spending pattern"
)

// ErrNotFitted is returned when scoring before any DetectAnomalies call has
// fitted a model.
var ErrNotFitted = errors.New("anomaly model not fitted")

// ordinalOffset is the proleptic Gregorian ordinal of 1970-01-01, with
// 0001-01-01 as day 1.
const ordinalOffset = 719163

// Option configures a Detector.
type Option func(*Detector)

// WithContamination sets the expected fraction of anomalies, in (0, 0.5].
func WithContamination(contamination float64) Option {
	return func(d *Detector) {
		d.cfg.Contamination = contamination
	}
}

// WithSeed sets the random seed of the isolation forest.
func WithSeed(seed int64) Option {
	return func(d *Detector) {
		d.cfg.Seed = seed
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// Detector fits a fresh model on every DetectAnomalies call. It keeps the
// most recent model only so CalculateAnomalyScore can score against it; a
// Detector should not be shared between unrelated requests.
type Detector struct {
	forest *ml.IsolationForest
	logger *slog.Logger
	cfg    ml.IsolationConfig
	mu     sync.Mutex
}

// NewDetector creates a detector with 10% contamination and seed 42.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{cfg: ml.DefaultIsolationConfig()}
	d.cfg.Contamination = DefaultContamination
	for _, opt := range opts {
		opt(d)
	}
	d.logger = common.LoggerOrDefault(d.logger).With("component", "anomaly")
	return d
}

// DetectAnomalies returns the expenses the model marks as outliers, in input
// order. It returns an empty list when there are fewer than MinTransactions
// transactions or MinExpenses expenses.
func (d *Detector) DetectAnomalies(transactions []model.Transaction) []model.AnomalyRecord {
	if len(transactions) < MinTransactions {
		return []model.AnomalyRecord{}
	}

	var expenses []model.Transaction
	for _, t := range transactions {
		if t.IsExpense() {
			expenses = append(expenses, t)
		}
	}
	if len(expenses) < MinExpenses {
		return []model.AnomalyRecord{}
	}

	x := make([][]float64, len(expenses))
	for i, t := range expenses {
		x[i] = FeatureVector(t)
	}

	forest, err := ml.FitIsolationForest(x, d.cfg)
	if err != nil {
		d.logger.Error("Failed to fit anomaly model", "error", err, "expenses", len(expenses))
		return []model.AnomalyRecord{}
	}

	d.mu.Lock()
	d.forest = forest
	d.mu.Unlock()

	anomalies := []model.AnomalyRecord{}
	for i, t := range expenses {
		score, err := forest.DecisionFunction(x[i])
		if err != nil || score >= 0 {
			continue
		}
		anomalies = append(anomalies, model.AnomalyRecord{
			Description: t.Description,
			Amount:      t.Amount,
			Category:    t.Category,
			Date:        t.Date,
			Reason:      Reason(t),
			Score:       score,
		})
	}

	d.logger.Debug("Anomaly detection complete",
		"expenses", len(expenses),
		"anomalies", len(anomalies))
	return anomalies
}

// CalculateAnomalyScore returns the decision value of t under the model
// fitted by the most recent DetectAnomalies call; lower is more anomalous.
// The score is only meaningful right after detecting on a comparable batch.
func (d *Detector) CalculateAnomalyScore(t model.Transaction) (float64, error) {
	d.mu.Lock()
	forest := d.forest
	d.mu.Unlock()

	if forest == nil {
		return 0, ErrNotFitted
	}
	score, err := forest.DecisionFunction(FeatureVector(t))
	if err != nil {
		return 0, fmt.Errorf("failed to score transaction: %w", err)
	}
	return score, nil
}

// FeatureVector encodes a transaction as [amount, description length,
// category code, date ordinal].
func FeatureVector(t model.Transaction) []float64 {
	return []float64{
		t.AmountFloat(),
		float64(utf8.RuneCountInString(t.Description)),
		float64(t.Category.Code()),
		DateOrdinal(t.Date),
	}
}

// DateOrdinal returns the proleptic Gregorian day number of date's calendar
// day, counting 0001-01-01 as 1.
func DateOrdinal(date time.Time) float64 {
	y, m, day := date.Date()
	midnight := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return float64(midnight.Unix()/86400 + ordinalOffset)
}

// Reason explains why a flagged transaction may be anomalous. All matching
// reasons are joined in a fixed order.
func Reason(t model.Transaction) string {
	var reasons []string
	if t.Amount.GreaterThan(HighAmountThreshold) {
		reasons = append(reasons, ReasonHighAmount)
	}
	if utf8.RuneCountInString(t.Description) < MinDescriptionLength {
		reasons = append(reasons, ReasonShortDescription)
	}
	if t.Category == model.CategoryOther {
		reasons = append(reasons, ReasonUncategorized)
	}
	if len(reasons) == 0 {
		return ReasonUnusualPattern
	}
	return strings.Join(reasons, ", ")
}
