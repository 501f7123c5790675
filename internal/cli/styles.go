// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	chili   = lipgloss.Color("#E4572E")
	mint    = lipgloss.Color("#3BB273")
	saffron = lipgloss.Color("#F3A712")
	sky     = lipgloss.Color("#4D9DE0")
	ash     = lipgloss.Color("#7A7A7A")
	border  = lipgloss.Color("#3A3A3A")
)

// Text styles.
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(chili).MarginBottom(1)
	SubtitleStyle = lipgloss.NewStyle().Foreground(ash).MarginBottom(1)
	SuccessStyle  = lipgloss.NewStyle().Foreground(mint)
	WarningStyle  = lipgloss.NewStyle().Foreground(saffron)
	ErrorStyle    = lipgloss.NewStyle().Foreground(chili)
	InfoStyle     = lipgloss.NewStyle().Foreground(sky)
	SubtleStyle   = lipgloss.NewStyle().Foreground(ash)
	BoldStyle     = lipgloss.NewStyle().Bold(true)
	PromptStyle   = lipgloss.NewStyle().Bold(true).Foreground(chili)
)

// Layout styles for boxes and tables.
var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 2)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(border)

	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	SpiceIcon   = "🌶️"
	ChartIcon   = "📊"
	AlertIcon   = "🚨"
	MoneyIcon   = "💰"
	CheckIcon   = "✅"
)

func withIcon(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

// FormatSuccess renders a message with the success icon.
func FormatSuccess(message string) string { return withIcon(SuccessStyle, SuccessIcon, message) }

// FormatError renders a message with the error icon.
func FormatError(message string) string { return withIcon(ErrorStyle, ErrorIcon, message) }

// FormatWarning renders a message with the warning icon.
func FormatWarning(message string) string { return withIcon(WarningStyle, WarningIcon, message) }

// FormatInfo renders a message with the info icon.
func FormatInfo(message string) string { return withIcon(InfoStyle, InfoIcon, message) }

// FormatTitle renders a section title.
func FormatTitle(title string) string { return withIcon(TitleStyle, SpiceIcon, title) }

// FormatPrompt renders an input prompt followed by an arrow.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content under a title inside a rounded border.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}

// HealthStyle picks the style for a financial health level.
func HealthStyle(level model.HealthLevel) lipgloss.Style {
	switch level {
	case model.HealthExcellent, model.HealthGood:
		return SuccessStyle
	case model.HealthFair:
		return WarningStyle
	default:
		return ErrorStyle
	}
}
