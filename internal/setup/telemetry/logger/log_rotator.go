package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogRotator is an io.Writer that keeps a log file bounded to roughly
// maxLines. Once twice the limit has been written the file is rewritten with
// only the most recent maxLines lines.
type LogRotator struct {
	mu       sync.Mutex
	writer   io.Writer
	buffer   *RingBuffer
	filePath string
}

// NewLogRotator creates a new LogRotator.
func NewLogRotator(writer io.Writer, maxLines int, filePath string) *LogRotator {
	return &LogRotator{
		writer:   writer,
		buffer:   NewRingBuffer(maxLines),
		filePath: filePath,
	}
}

// Write implements io.Writer.
func (w *LogRotator) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.writer.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		w.buffer.Add(line)

		if w.buffer.seen >= w.buffer.Cap()*2 {
			if err := w.rotate(); err != nil {
				return n, fmt.Errorf("failed to rotate log file: %w", err)
			}

			w.buffer.seen = w.buffer.Len()
		}
	}

	return n, nil
}

// Sync flushes the underlying writer when it supports it.
func (w *LogRotator) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if syncer, ok := w.writer.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}

	return nil
}

// rotate replaces the file with the buffered lines.
func (w *LogRotator) rotate() error {
	lines := w.buffer.Lines()
	if len(lines) == 0 {
		return nil
	}

	temp, err := os.CreateTemp(filepath.Dir(w.filePath), "rotate-*.log")
	if err != nil {
		return err
	}

	tempPath := temp.Name()

	if _, err := temp.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return err
	}

	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	if closer, ok := w.writer.(io.Closer); ok {
		closer.Close()
	}

	if err := os.Rename(tempPath, w.filePath); err != nil {
		return err
	}

	file, err := os.OpenFile(w.filePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.writer = file

	return nil
}
