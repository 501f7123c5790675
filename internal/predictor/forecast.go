package predictor

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Forecast thresholds and bounds.
const (
	MinTransactions = 5
	MinExpenseDays  = 5
	DaysPerMonth    = 30
	MinConfidence   = 50
	MaxConfidence   = 95
)

// MessageInsufficientPrediction explains an unavailable forecast.
const MessageInsufficientPrediction = "Insufficient data for prediction"

// PredictFutureSpending fits a linear trend to daily expense totals and
// extrapolates it monthsAhead months past the last observed day. The
// estimate is never negative and confidence stays within
// [MinConfidence, MaxConfidence]. With too little data the forecast is
// returned with Available unset and zero estimate and confidence.
func PredictFutureSpending(transactions []model.Transaction, monthsAhead int) model.Forecast {
	if monthsAhead < 1 {
		monthsAhead = 1
	}
	forecast := model.Forecast{
		PredictionPeriod: fmt.Sprintf("Next %d month(s)", monthsAhead),
	}

	if len(transactions) < MinTransactions {
		forecast.Message = MessageInsufficientPrediction
		return forecast
	}

	series, expenseDays := dailySeries(transactions)
	forecast.DataPoints = len(series)
	if expenseDays < MinExpenseDays {
		forecast.Message = MessageInsufficientPrediction
		return forecast
	}

	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, series, nil, false)

	target := float64(len(series) + DaysPerMonth*monthsAhead)
	predicted := math.Max(0, alpha+beta*target)

	r2 := 1.0
	if !constant(series) {
		r2 = stat.RSquared(xs, series, nil, alpha, beta)
	}
	confidence := math.Min(MaxConfidence, math.Max(MinConfidence, r2*100))

	forecast.EstimatedSpending = decimal.NewFromFloat(predicted).Round(2).InexactFloat64()
	forecast.Confidence = int(math.Round(confidence))
	forecast.Available = true
	return forecast
}

// dailySeries returns expense totals for every day with a transaction, in
// date order, plus the number of days that had any expense. Income days
// contribute zero.
func dailySeries(transactions []model.Transaction) ([]float64, int) {
	totals := make(map[time.Time]decimal.Decimal)
	expenseDays := make(map[time.Time]struct{})
	for _, t := range transactions {
		day := t.Day()
		total := totals[day]
		if t.IsExpense() {
			total = total.Add(t.Amount)
			expenseDays[day] = struct{}{}
		}
		totals[day] = total
	}

	days := make([]time.Time, 0, len(totals))
	for d := range totals {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := make([]float64, len(days))
	for i, d := range days {
		series[i] = totals[d].InexactFloat64()
	}
	return series, len(expenseDays)
}

// constant reports whether every value equals the first. R² is undefined
// for such a series and the fitted line passes through every point.
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
