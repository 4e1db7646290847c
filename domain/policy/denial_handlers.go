// Package policy holds the default reactions to refused calls.
package policy

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/reglet-dev/ankibridge/domain/ports"
)

// Ensure implementations satisfy the interface.
var (
	_ ports.DenialHandler = (*SlogDenialHandler)(nil)
	_ ports.DenialHandler = (*WriterDenialHandler)(nil)
	_ ports.DenialHandler = (*NopDenialHandler)(nil)
	_ ports.DenialHandler = (*RecordingDenialHandler)(nil)
)

// SlogDenialHandler logs denials at warn level.
type SlogDenialHandler struct {
	Logger *slog.Logger
}

func (h *SlogDenialHandler) OnDenial(method, permission string) {
	l := h.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Warn("call refused: permission not granted", "method", method, "permission", permission)
}

// WriterDenialHandler writes one line per denial, to stderr when W is nil.
type WriterDenialHandler struct {
	W io.Writer
}

func (h *WriterDenialHandler) OnDenial(method, permission string) {
	w := h.W
	if w == nil {
		w = os.Stderr
	}
	_, _ = fmt.Fprintf(w, "Permission Denied [%s]: %s not granted\n", method, permission)
}

// NopDenialHandler does nothing.
type NopDenialHandler struct{}

func (h *NopDenialHandler) OnDenial(method, permission string) {}

// RecordingDenialHandler remembers refused methods in order.
type RecordingDenialHandler struct {
	mu      sync.Mutex
	methods []string
}

func (h *RecordingDenialHandler) OnDenial(method, permission string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.methods = append(h.methods, method)
}

// Methods returns a copy of the refused methods.
func (h *RecordingDenialHandler) Methods() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.methods...)
}
