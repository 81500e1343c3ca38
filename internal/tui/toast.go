package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// toastTTL is how long a transient notification stays visible. Persistent
// errors (index status error, file preview error) live in their panes
// instead and have no TTL.
const toastTTL = 4 * time.Second

type toastLevel int

const (
	toastSuccess toastLevel = iota
	toastError
)

type toast struct {
	level   toastLevel
	message string
	seq     int
}

type toastExpireMsg struct {
	seq int
}

// showToast replaces the current notification and schedules its expiry.
// The sequence number keeps an old expiry tick from dismissing a newer
// toast.
func (m *Model) showToast(level toastLevel, message string) tea.Cmd {
	m.toastSeq++
	m.toast = &toast{level: level, message: message, seq: m.toastSeq}
	seq := m.toastSeq
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpireMsg{seq: seq} })
}

func (m *Model) expireToast(msg toastExpireMsg) {
	if m.toast != nil && m.toast.seq == msg.seq {
		m.toast = nil
	}
}
