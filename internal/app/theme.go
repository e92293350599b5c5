package app

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	elementStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	typeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	keyStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Faint(true)
	lockedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	roleUserStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
	roleAgentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true)
	draftStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	dividerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	stateDoneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true)
	stateWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	stateLiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	focusBorder     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63"))
	unfocusedBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
)
