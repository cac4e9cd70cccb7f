package desktop

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// TerminalSender writes notices to a terminal, ringing the bell unless the
// notice is silent.
type TerminalSender struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminalSender(w io.Writer) *TerminalSender {
	return &TerminalSender{w: w}
}

func (t *TerminalSender) Send(_ context.Context, n Notice) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bell := "\a"
	if n.Silent {
		bell = ""
	}
	line := fmt.Sprintf("%s[%s] %s: %s", bell, n.Priority, n.Title, n.Body)
	if n.URL != "" {
		line += " (" + n.URL + ")"
	}
	_, err := fmt.Fprintln(t.w, line)
	return err
}
