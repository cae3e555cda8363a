package viz

import "github.com/charmbracelet/lipgloss"

var (
	panelStyle       = lipgloss.NewStyle().Padding(1, 2)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	statusRunStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	statusPauseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	statusFailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)
