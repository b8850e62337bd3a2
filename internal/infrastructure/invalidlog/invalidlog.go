// Package invalidlog writes the names of files a run could not migrate, one
// per line, for later inspection.
package invalidlog

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// Writer is a line-oriented log of invalid entries. It is truncated when
// opened, so it only ever describes the latest run.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	n    int
}

func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open invalid entries log: %w", err)
	}
	return &Writer{file: f, buf: bufio.NewWriter(f)}, nil
}

// Record appends name as one line.
func (w *Writer) Record(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.buf.WriteString(name + "\n"); err != nil {
		return fmt.Errorf("failed to record invalid entry: %w", err)
	}
	w.n++
	return nil
}

// Count returns the number of recorded entries.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush invalid entries log: %w", err)
	}
	return w.file.Close()
}
