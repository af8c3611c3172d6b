package response

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	rserrors "github.com/stijnvanbael/redstone/errors"
)

// MIMELookup resolves a file name to a content type. It is the writer's only
// knowledge of MIME types.
type MIMELookup func(filename string) string

// DefaultMIMELookup resolves content types from the file extension using the
// platform MIME tables.
func DefaultMIMELookup(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Writer converts a final response value into a wire-level response. All
// serialization failures are returned as *errors.SerializationError so the
// caller can route them instead of leaking a broken response.
type Writer struct {
	MIME   MIMELookup
	Logger *zap.Logger
}

// NewWriter creates a writer with the default MIME lookup.
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{MIME: DefaultMIMELookup, Logger: logger}
}

// Write serializes v to w. status is the provisional status code used when
// the value does not carry its own; contentType, when non-empty, overrides
// the inferred content type. Marshaling happens before any byte reaches the
// wire so a serialization failure leaves the response unwritten.
func (wr *Writer) Write(w http.ResponseWriter, v Value, status int, contentType string) error {
	if status == 0 {
		status = http.StatusOK
	}

	switch val := v.(type) {
	case nil:
		w.WriteHeader(status)
		return nil

	case Raw:
		for k, vv := range val.Header {
			w.Header()[k] = vv
		}
		code := val.Code
		if code == 0 {
			code = status
		}
		w.WriteHeader(code)
		_, err := w.Write(val.Body)
		return err

	case Status:
		wr.setContentType(w, contentType, "text/plain; charset=utf-8")
		w.WriteHeader(val.Code)
		_, err := io.WriteString(w, val.Message)
		return err

	case Mapping, Sequence:
		body, err := json.Marshal(val)
		if err != nil {
			return wr.fail(err)
		}
		wr.setContentType(w, contentType, "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, err = w.Write(body)
		return err

	case File:
		f, err := os.Open(val.Path)
		if err != nil {
			return wr.fail(err)
		}
		defer f.Close()
		lookup := wr.MIME
		if lookup == nil {
			lookup = DefaultMIMELookup
		}
		wr.setContentType(w, contentType, lookup(val.Path))
		w.WriteHeader(status)
		_, err = io.Copy(w, f)
		return err

	case Text:
		wr.setContentType(w, contentType, "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, err := io.WriteString(w, string(val))
		return err

	default:
		// Unreachable while Value stays sealed.
		return wr.fail(fmt.Errorf("unknown response value %T", v))
	}
}

// fail wraps a serialization failure, logging it before the caller routes it.
func (wr *Writer) fail(err error) error {
	if wr.Logger != nil {
		wr.Logger.Error("cannot serialize response value", zap.Error(err))
	}
	return &rserrors.SerializationError{Cause: err}
}

func (wr *Writer) setContentType(w http.ResponseWriter, explicit, inferred string) {
	if explicit != "" {
		w.Header().Set("Content-Type", explicit)
		return
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", inferred)
	}
}
