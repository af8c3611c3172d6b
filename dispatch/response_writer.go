package dispatch

import (
	"bufio"
	"net"
	"net/http"
)

// ResponseWriter extends http.ResponseWriter with response state tracking.
// The dispatcher uses Written to decide whether a failed response can still
// be replaced by an error page.
type ResponseWriter interface {
	http.ResponseWriter
	// Status returns the status code written so far, or 200 before any write.
	Status() int
	// Size returns the number of body bytes written.
	Size() int64
	// Written reports whether the header has been written.
	Written() bool
}

type responseWriter struct {
	http.ResponseWriter
	status  int
	size    int64
	written bool
}

// NewResponseWriter wraps w with response state tracking.
func NewResponseWriter(w http.ResponseWriter) ResponseWriter {
	return &responseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

func (w *responseWriter) Status() int {
	return w.status
}

func (w *responseWriter) Size() int64 {
	return w.size
}

func (w *responseWriter) Written() bool {
	return w.written
}

func (w *responseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
