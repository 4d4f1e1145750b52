package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/assetflow/internal/client/session"
)

// Notifier prints session notifications as "[level] message" lines.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

func (n *Notifier) Notify(level session.Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "[%s] %s\n", level, message)
}
