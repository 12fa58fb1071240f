package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"owlsync/internal/adapters/tui/views"
	"owlsync/internal/ports"
)

// channelListener forwards sync progress to the UI loop through a channel.
// Sends give up once ctx is done so a cancelled run never blocks on a UI
// that stopped reading.
type channelListener struct {
	ctx context.Context
	ch  chan<- views.SyncProgressMsg
}

var _ ports.SyncListener = (*channelListener)(nil)

func (l *channelListener) OnProgress(percent float64, message string) {
	select {
	case l.ch <- views.SyncProgressMsg{Percent: percent, Status: message}:
	case <-l.ctx.Done():
	}
}

// waitForProgress delivers the next progress update. It yields nil once the
// channel is closed at the end of the run.
func waitForProgress(ch <-chan views.SyncProgressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
