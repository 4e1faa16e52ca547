package staging

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"ytplayer/internal/catalog"
)

// FileName is the staging file created inside each playlist directory.
const FileName = "staging.jsonl"

// Writer appends catalog items to a staging file, one JSON object per line.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	path string
	n    int
}

// Create opens path for appending, creating it if needed.
func Create(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open staging file: %w", err)
	}
	return &Writer{file: file, path: path}, nil
}

// Append encodes item as a single line and syncs it before returning.
func (w *Writer) Append(item catalog.Item) error {
	line, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode staged item: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return fmt.Errorf("staging writer for %s is closed", w.path)
	}
	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("write staging line: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync staging file: %w", err)
	}
	w.n++
	return nil
}

// Count returns the number of lines appended through this writer.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Path returns the staging file location.
func (w *Writer) Path() string {
	return w.path
}

// Close releases the file handle. Further appends fail.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
