package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("24")).Padding(0, 1)
	groupStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")).MarginTop(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	messageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	toastStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

var priorityColors = map[notification.Priority]lipgloss.Color{
	notification.PriorityLow:    lipgloss.Color("246"),
	notification.PriorityMedium: lipgloss.Color("39"),
	notification.PriorityHigh:   lipgloss.Color("214"),
	notification.PriorityUrgent: lipgloss.Color("196"),
}

func titleStyle(p notification.Priority, unread, expired bool) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(priorityColors[p])
	if unread {
		s = s.Bold(true)
	}
	if expired {
		s = s.Foreground(lipgloss.Color("240")).Strikethrough(true)
	}
	return s
}

func toastBorder(p notification.Priority) lipgloss.Style {
	return toastStyle.BorderForeground(priorityColors[p])
}
