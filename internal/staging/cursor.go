package staging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"ytplayer/internal/catalog"
)

// ErrReadInFlight is returned when ReadNext is called while another call on
// the same cursor has not returned yet.
var ErrReadInFlight = errors.New("staging read already in flight")

// maxLineBytes bounds a single staged record.
const maxLineBytes = 1 << 20

// Cursor walks a staging file from a byte offset.
type Cursor struct {
	path string

	mu       sync.Mutex
	inFlight bool
	offset   int64
}

// NewCursor positions a cursor at the start of path.
func NewCursor(path string) *Cursor {
	return &Cursor{path: path}
}

// Offset is the byte position of the next unread line.
func (c *Cursor) Offset() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// ReadNext returns the next staged item, or nil at end of file. When
// matchURL is non-empty, lines whose sourceUrl differs are consumed and
// skipped. A final line without a trailing newline is treated as still being
// written and is left unconsumed.
func (c *Cursor) ReadNext(ctx context.Context, matchURL string) (*catalog.Item, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrReadInFlight
	}
	c.inFlight = true
	offset := c.offset
	c.mu.Unlock()

	item, next, err := c.read(ctx, offset, matchURL)

	c.mu.Lock()
	c.offset = next
	c.inFlight = false
	c.mu.Unlock()
	return item, err
}

func (c *Cursor) read(ctx context.Context, offset int64, matchURL string) (*catalog.Item, int64, error) {
	file, err := os.Open(c.path)
	if err != nil {
		return nil, offset, fmt.Errorf("open staging file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek staging file: %w", err)
	}
	reader := bufio.NewReader(file)

	for {
		if err := ctx.Err(); err != nil {
			return nil, offset, err
		}
		line, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			return nil, offset, nil
		}
		if err != nil {
			return nil, offset, fmt.Errorf("read staging line at offset %d: %w", offset, err)
		}
		lineStart := offset
		offset += int64(len(line))

		payload := bytes.TrimSpace(line)
		if len(payload) == 0 {
			continue
		}
		var item catalog.Item
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, offset, fmt.Errorf("decode staging line at offset %d: %w", lineStart, err)
		}
		if matchURL != "" && item.SourceURL != matchURL {
			continue
		}
		return &item, offset, nil
	}
}

// readLine returns one complete line including its newline. A trailing
// fragment without a newline yields io.EOF so it is not consumed.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return nil, fmt.Errorf("line exceeds %d bytes", maxLineBytes)
		}
		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, err
		}
	}
}
