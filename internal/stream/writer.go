package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/kmf-ai/server/internal/model"
)

// ErrClosed is returned by Emit once a terminal event has been written or
// the writer was closed.
var ErrClosed = errors.New("stream: closed")

// Writer frames events as server-sent events, one "data:" line per event.
type Writer struct {
	ctx    context.Context
	w      io.Writer
	flush  func()
	mu     sync.Mutex
	closed bool
}

// New prepares w for streaming and returns a Writer bound to the request
// context. Headers are sent with the first event.
func New(ctx context.Context, w http.ResponseWriter) *Writer {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")

	s := &Writer{ctx: ctx, w: w}
	if f, ok := w.(http.Flusher); ok {
		s.flush = f.Flush
	}
	return s
}

// Emit writes one event and flushes it to the client.
func (s *Writer) Emit(event model.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.ctx.Err(); err != nil {
		s.closed = true
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("stream: marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", body); err != nil {
		s.closed = true
		return fmt.Errorf("stream: write event: %w", err)
	}
	if s.flush != nil {
		s.flush()
	}

	if event.IsTerminal() {
		s.closed = true
	}
	return nil
}

// Close stops the writer; later emits return ErrClosed.
func (s *Writer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
