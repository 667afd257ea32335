package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vocalens/vocalens/pkg/studio"
)

var (
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	agentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	toolStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Italic(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func renderHistory(h *studio.History) string {
	items := h.Items()
	if len(items) == 0 {
		return dimStyle.Render("history is empty")
	}
	var b strings.Builder
	current := h.Index()
	for i, item := range items {
		marker := "  "
		if i == current {
			marker = "* "
		}
		line := fmt.Sprintf("%s%2d  %s  %s", marker, i, item.CreatedAt.Format("15:04:05"), item.Instruction)
		if i == current {
			b.WriteString(userStyle.Render(line))
		} else {
			b.WriteString(dimStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
