// Package tui provides the terminal user interface for monitoring a
// connected MeshCore device.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iamruinous/meshcore-go/pkg/meshcore"
	"github.com/iamruinous/meshcore-go/pkg/meshcore/client"
	"github.com/iamruinous/meshcore-go/pkg/meshcore/transport"
)

// MaxMessages is the maximum number of messages to display
const MaxMessages = 100

// Model represents the TUI state
type Model struct {
	// Client reference
	client *client.Client
	sub    *transport.Subscription

	// UI state
	width    int
	height   int
	ready    bool
	quitting bool

	// Components
	spinner  spinner.Model
	viewport viewport.Model

	// Data
	messages     []MessageDisplay
	connected    bool
	connName     string
	messageCount int
	errorCount   int
	startTime    time.Time
	lastUpdate   time.Time
	errorMessage string
}

// MessageDisplay holds one decoded push event for display
type MessageDisplay struct {
	Time    time.Time
	From    string
	Type    string
	Content string
}

// New creates a new TUI model for the given connected client.
func New(c *client.Client) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		client:    c,
		spinner:   s,
		messages:  make([]MessageDisplay, 0),
		startTime: time.Now(),
		connected: c.Transport().IsConnected(),
		connName:  c.Transport().Name(),
	}
}

// Init initializes the model
//
//nolint:gocritic // hugeParam: Model must be value receiver to implement tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		waitForEvent(m.client.Transport().Subscribe()),
	)
}

// tickMsg is sent periodically to update the UI
type tickMsg time.Time

// frameMsg is sent when a push frame arrives
type frameMsg struct {
	event transport.Event
	sub   *transport.Subscription
}

// tickCmd returns a command that sends a tick every second
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent waits for the next push event on sub.
func waitForEvent(sub *transport.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		if !ok {
			return nil
		}
		return frameMsg{event: ev, sub: sub}
	}
}

// describeFrame renders a push frame as a MessageDisplay, or reports
// ok=false for frames the monitor does not render (e.g. RESP_CODE_SENT
// acks observed via Republish).
func describeFrame(f meshcore.Frame) (MessageDisplay, bool) {
	switch f.Code() {
	case meshcore.RespCodeContactMsgRecv:
		if m, ok := meshcore.DecodeContactMessage(f.Payload[1:]); ok {
			return MessageDisplay{Time: time.Now(), From: "contact", Type: "msg", Content: m.Content}, true
		}
	case meshcore.RespCodeContactMsgRecvV3:
		if m, ok := meshcore.DecodeContactMessageV3(f.Payload[1:]); ok {
			return MessageDisplay{Time: time.Now(), From: "contact", Type: "msg", Content: m.Content}, true
		}
	case meshcore.RespCodeChannelMsgRecv, meshcore.RespCodeChannelMsgRecvV3:
		return MessageDisplay{Time: time.Now(), From: "channel", Type: "msg", Content: "(channel message)"}, true
	case meshcore.PushCodeStatusResponse:
		return MessageDisplay{Time: time.Now(), From: "device", Type: "status", Content: "status push received"}, true
	case meshcore.PushCodeTraceData:
		return MessageDisplay{Time: time.Now(), From: "device", Type: "trace", Content: "trace data received"}, true
	case meshcore.PushCodeBinaryResponse:
		return MessageDisplay{Time: time.Now(), From: "device", Type: "binary", Content: "binary response received"}, true
	}
	return MessageDisplay{}, false
}
