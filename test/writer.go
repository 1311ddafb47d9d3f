package test

import (
	"strings"
	"sync"
)

// CaptureWriter collects everything written to it. It is safe to write from
// more than one goroutine.
type CaptureWriter struct {
	mu     sync.Mutex
	buffer []byte
}

func (w *CaptureWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffer = append(w.buffer, p...)
	return len(p), nil
}

// Contains reports whether s has been written.
func (w *CaptureWriter) Contains(s string) bool {
	return strings.Contains(w.String(), s)
}

func (w *CaptureWriter) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffer = w.buffer[:0]
}

func (w *CaptureWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.buffer)
}
