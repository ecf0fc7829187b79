package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// Base styles
	Title    = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).MarginBottom(1)
	Subtitle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor).
		MarginBottom(1).
		PaddingBottom(1)

	// Form fields
	FieldLabel       = lipgloss.NewStyle().Foreground(MutedColor)
	FieldLabelActive = lipgloss.NewStyle().Bold(true).Foreground(TextColor)
	FieldCursor      = lipgloss.NewStyle().Foreground(SecondaryColor)
	FieldRequired    = lipgloss.NewStyle().Foreground(WarningColor)

	// Summary and edit boxes
	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)

	// Help bar
	HelpBar = lipgloss.NewStyle().Foreground(MutedColor).MarginTop(1)
	HelpKey = lipgloss.NewStyle().Bold(true).Foreground(SecondaryColor)

	// Messages
	ErrorMsg   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	SuccessMsg = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	WarningMsg = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)

	// Selection lists
	DropdownItem         = lipgloss.NewStyle().Foreground(TextColor).Padding(0, 1)
	DropdownItemSelected = lipgloss.NewStyle().Foreground(TextColor).Background(PrimaryColor).Bold(true).Padding(0, 1)
)

// StatusColor returns the color for a conversion status
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "ok":
		return SecondaryColor
	case "failed":
		return ErrorColor
	case "canceled":
		return WarningColor
	default:
		return MutedColor
	}
}

// StatusIcon returns an icon for a conversion status
func StatusIcon(status string) string {
	switch status {
	case "ok":
		return "✓"
	case "failed":
		return "✗"
	case "canceled":
		return "○"
	default:
		return "●"
	}
}

// Status renders the icon and name of a status in its color
func Status(status string) string {
	return lipgloss.NewStyle().Foreground(StatusColor(status)).Render(StatusIcon(status) + " " + status)
}
