package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnomalyRecord describes one flagged transaction. Records are derived per
// detection call and never persisted.
type AnomalyRecord struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Reason      string          `json:"reason"`
	Score       float64         `json:"score"`
}

// CategoryCount is a category with its expense transaction count.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// TrendSummary holds the aggregate spending statistics of a transaction set.
type TrendSummary struct {
	AnalysisPeriod         string          `json:"analysis_period"`
	Message                string          `json:"message,omitempty"`
	TopCategories          []CategoryCount `json:"top_categories"`
	AverageMonthlySpending float64         `json:"average_monthly_spending"`
	SpendingVolatility     float64         `json:"spending_volatility"`
	TotalTransactions      int             `json:"total_transactions"`
	MonthsObserved         int             `json:"months_observed"`
}

// Forecast is a linear extrapolation of daily spending.
type Forecast struct {
	PredictionPeriod  string  `json:"prediction_period"`
	Message           string  `json:"message,omitempty"`
	EstimatedSpending float64 `json:"estimated_spending"`
	Confidence        int     `json:"confidence"`
	DataPoints        int     `json:"data_points"`
	Available         bool    `json:"available"`
}

// HealthLevel is the band a financial health score falls into.
type HealthLevel string

// Health levels.
const (
	HealthExcellent HealthLevel = "Excellent"
	HealthGood      HealthLevel = "Good"
	HealthFair      HealthLevel = "Fair"
	HealthPoor      HealthLevel = "Poor"
)

// HealthReport summarises the savings rate of a transaction set.
type HealthReport struct {
	Level         HealthLevel     `json:"level"`
	Advice        string          `json:"advice"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Savings       decimal.Decimal `json:"savings"`
	Score         int             `json:"score"`
}
