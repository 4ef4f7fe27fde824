package tui

import (
	"fmt"
	"strings"
	"time"
)

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if !m.ready {
		return fmt.Sprintf("%s Initializing...\n", m.spinner.View())
	}

	var b strings.Builder

	title := titleStyle.Render("MeshCore Monitor")
	b.WriteString(title)
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	b.WriteString(m.renderStats())
	b.WriteString("\n")

	messagesBox := boxStyle.Width(m.width - 4).Render(m.viewport.View())
	b.WriteString(messagesBox)
	b.WriteString("\n")

	if m.errorMessage != "" {
		b.WriteString(errorStyle.Render("Error: " + m.errorMessage))
		b.WriteString("\n")
	}

	help := helpStyle.Render("q: quit • c: clear messages • ↑/↓: scroll")
	b.WriteString(help)

	return b.String()
}

func (m Model) renderStatusBar() string {
	status := StatusIndicator(m.connected)
	connInfo := statLabelStyle.Render(" | ") + statValueStyle.Render(m.connName)
	uptime := time.Since(m.startTime).Round(time.Second)
	uptimeInfo := statLabelStyle.Render(" | Uptime: ") + statValueStyle.Render(uptime.String())

	return status + connInfo + uptimeInfo
}

func (m Model) renderStats() string {
	received := statLabelStyle.Render("Events: ") + statValueStyle.Render(fmt.Sprintf("%d", m.messageCount))
	errors := statLabelStyle.Render(" | Errors: ")
	if m.errorCount > 0 {
		errors += errorStyle.Render(fmt.Sprintf("%d", m.errorCount))
	} else {
		errors += statValueStyle.Render("0")
	}

	return received + errors
}

func (m Model) renderMessages() string {
	if len(m.messages) == 0 {
		return statLabelStyle.Render("No events yet. Waiting for device push data...")
	}

	var b strings.Builder
	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderMessage(msg MessageDisplay) string {
	timeStr := messageTimeStyle.Render(msg.Time.Format("15:04:05"))
	from := messageFromStyle.Render(msg.From)
	msgType := messageTypeStyle.Render(fmt.Sprintf("[%s]", msg.Type))

	header := timeStr + " " + from + " " + msgType
	content := messageContentStyle.Render("  " + msg.Content)

	return header + "\n" + content
}
