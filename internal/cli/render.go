package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spice-insight/internal/insight"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// FormatAmount renders a money amount with two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

func formatFloat(amount float64) string {
	return FormatAmount(decimal.NewFromFloat(amount))
}

// RenderTable lays out rows under a header row with aligned columns.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	lines := []string{renderRow(headers, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderTransactions renders transactions as a table.
func RenderTransactions(txns []model.Transaction) string {
	if len(txns) == 0 {
		return SubtleStyle.Render("No transactions.")
	}
	rows := make([][]string, len(txns))
	for i, t := range txns {
		amount := FormatAmount(t.Amount)
		if t.IsIncome() {
			amount = SuccessStyle.Render("+" + amount)
		}
		category := string(t.Category)
		if category == "" {
			category = SubtleStyle.Render("-")
		}
		id := t.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows[i] = []string{id, t.Date.Format("2006-01-02"), t.Description, amount, category}
	}
	return RenderTable([]string{"ID", "Date", "Description", "Amount", "Category"}, rows)
}

// RenderHealth renders a financial health report.
func RenderHealth(h model.HealthReport) string {
	content := strings.Join([]string{
		fmt.Sprintf("%s %s", BoldStyle.Render("Score:"), HealthStyle(h.Level).Render(fmt.Sprintf("%d/100 (%s)", h.Score, h.Level))),
		fmt.Sprintf("%s %s", BoldStyle.Render("Income:"), FormatAmount(h.TotalIncome)),
		fmt.Sprintf("%s %s", BoldStyle.Render("Expenses:"), FormatAmount(h.TotalExpenses)),
		fmt.Sprintf("%s %s", BoldStyle.Render("Savings:"), FormatAmount(h.Savings)),
		"",
		InfoStyle.Render(h.Advice),
	}, "\n")
	return RenderBox(MoneyIcon+" Financial Health", content)
}

// RenderTrends renders a spending trend summary.
func RenderTrends(s model.TrendSummary) string {
	lines := []string{}
	if s.Message != "" {
		lines = append(lines, WarningStyle.Render(s.Message))
	}
	lines = append(lines,
		fmt.Sprintf("%s %s", BoldStyle.Render("Period:"), s.AnalysisPeriod),
		fmt.Sprintf("%s %d", BoldStyle.Render("Transactions:"), s.TotalTransactions),
		fmt.Sprintf("%s %s", BoldStyle.Render("Average monthly spending:"), formatFloat(s.AverageMonthlySpending)),
		fmt.Sprintf("%s %s", BoldStyle.Render("Volatility:"), formatFloat(s.SpendingVolatility)),
	)
	if len(s.TopCategories) > 0 {
		lines = append(lines, "", BoldStyle.Render("Top categories:"))
		for i, c := range s.TopCategories {
			lines = append(lines, fmt.Sprintf("  %d. %s (%d)", i+1, c.Category, c.Count))
		}
	}
	return RenderBox(ChartIcon+" Spending Trends", strings.Join(lines, "\n"))
}

// RenderForecast renders a spending forecast.
func RenderForecast(f model.Forecast) string {
	var content string
	if !f.Available {
		content = WarningStyle.Render(f.Message) + "\n" +
			SubtleStyle.Render(fmt.Sprintf("Need at least 5 transactions on 5 different days (have %d days).", f.DataPoints))
	} else {
		content = strings.Join([]string{
			fmt.Sprintf("%s %s", BoldStyle.Render("Period:"), f.PredictionPeriod),
			fmt.Sprintf("%s %s", BoldStyle.Render("Estimated daily spending:"), formatFloat(f.EstimatedSpending)),
			fmt.Sprintf("%s %d%%", BoldStyle.Render("Confidence:"), f.Confidence),
			fmt.Sprintf("%s %d days", BoldStyle.Render("Based on:"), f.DataPoints),
		}, "\n")
	}
	return RenderBox(ChartIcon+" Forecast", content)
}

// RenderAnomalies renders flagged transactions.
func RenderAnomalies(anomalies []model.AnomalyRecord) string {
	if len(anomalies) == 0 {
		return RenderBox(AlertIcon+" Anomalies", SuccessStyle.Render("No unusual transactions found."))
	}
	rows := make([][]string, len(anomalies))
	for i, a := range anomalies {
		rows[i] = []string{
			a.Date.Format("2006-01-02"),
			a.Description,
			FormatAmount(a.Amount),
			string(a.Category),
			WarningStyle.Render(a.Reason),
		}
	}
	return RenderBox(AlertIcon+" Anomalies",
		RenderTable([]string{"Date", "Description", "Amount", "Category", "Reason"}, rows))
}

// RenderReport renders every section of a full analysis.
func RenderReport(r *insight.Report) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		RenderTrends(r.Trends),
		RenderAnomalies(r.Anomalies),
		RenderForecast(r.Forecast),
		RenderHealth(r.Health),
	)
}

// RenderCategoryTotals renders expense totals per category.
func RenderCategoryTotals(totals []insight.CategoryTotal) string {
	if len(totals) == 0 {
		return SubtleStyle.Render("No expenses.")
	}
	rows := make([][]string, len(totals))
	for i, t := range totals {
		rows[i] = []string{string(t.Category), FormatAmount(t.Total)}
	}
	return RenderTable([]string{"Category", "Total"}, rows)
}

// RenderDashboard renders the dashboard summary.
func RenderDashboard(d *insight.Dashboard) string {
	summary := strings.Join([]string{
		fmt.Sprintf("%s %s", BoldStyle.Render("Income:"), FormatAmount(d.TotalIncome)),
		fmt.Sprintf("%s %s", BoldStyle.Render("Expenses:"), FormatAmount(d.TotalExpenses)),
		fmt.Sprintf("%s %s", BoldStyle.Render("Balance:"), FormatAmount(d.Balance)),
		fmt.Sprintf("%s %d/100", BoldStyle.Render("Health score:"), d.HealthScore),
	}, "\n")
	return lipgloss.JoinVertical(lipgloss.Left,
		RenderBox(MoneyIcon+" Dashboard", summary),
		SubtitleStyle.Render("Recent transactions"),
		RenderTransactions(d.Recent),
	)
}
