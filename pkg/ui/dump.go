package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// maxSettleRounds bounds the render/measure loop of Settle. A row whose
// height keeps changing would otherwise never settle.
const maxSettleRounds = 16

// Settle renders m at width x height and runs measurement passes until every
// mounted row has a committed height. It is the headless equivalent of
// letting the program run until nothing is pending.
func Settle(m Model, width, height int) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	m = next.(Model)
	for range maxSettleRounds {
		m.View()
		if m.tree.sched.Pending() == 0 {
			break
		}
		next, _ = m.Update(measureMsg{view: m.tree.id})
		m = next.(Model)
	}
	return m
}

// Dump returns the settled screen as plain lines with trailing blanks
// trimmed.
func Dump(m Model, width, height int) string {
	m = Settle(m, width, height)
	lines := strings.Split(m.View(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}
