// SPDX-License-Identifier: MPL-2.0

package secrets

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// Mask replaces tracked secret values in output.
const Mask = "***"

// Redactor rewrites tracked secret values to the mask in any text passed
// through it. Safe for concurrent use.
type Redactor struct {
	mu     sync.RWMutex
	values []string
}

// NewRedactor creates an empty redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// Track registers a value for redaction. Empty and very short values are
// ignored; masking one- or two-character strings would mangle ordinary output.
func (r *Redactor) Track(value string) {
	if len(value) < 3 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, value)
}

// Redact returns s with every tracked value replaced by the mask.
func (r *Redactor) Redact(s string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.values {
		s = strings.ReplaceAll(s, v, Mask)
	}
	return s
}

// Writer wraps w so that complete lines written through it are redacted.
// Call Flush after the producer finishes to drain a trailing partial line.
func (r *Redactor) Writer(w io.Writer) *RedactingWriter {
	return &RedactingWriter{redactor: r, dst: w}
}

// RedactingWriter is a line-buffered writer that masks tracked secrets.
// Buffering whole lines keeps secrets that span two Write calls from
// slipping through unmasked.
type RedactingWriter struct {
	redactor *Redactor
	dst      io.Writer

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (w *RedactingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)

	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line: keep it buffered until more data or Flush.
			w.buf.WriteString(line)
			break
		}
		if _, err := io.WriteString(w.dst, w.redactor.Redact(line)); err != nil {
			return len(p), err
		}
	}

	return len(p), nil
}

// Flush writes any buffered partial line, redacted.
func (w *RedactingWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return nil
	}
	rest := w.buf.String()
	w.buf.Reset()
	_, err := io.WriteString(w.dst, w.redactor.Redact(rest))
	return err
}
