// Package response defines the closed set of response values a handler can
// produce, the processor pipeline applied to them, and the writer that
// serializes the final value to the wire.
package response

import "net/http"

// Value is the closed set of response value variants. A nil Value means the
// handler produced no body. The set is sealed: only the types in this package
// implement it, so the writer can enumerate every case.
type Value interface {
	responseValue()
}

// Text is a plain-text response body.
type Text string

// Mapping is a string-keyed object serialized as JSON.
type Mapping map[string]any

// Sequence is an ordered list serialized as JSON.
type Sequence []any

// Raw is an explicit low-level response used verbatim: the writer applies its
// status, headers and body without further processing.
type Raw struct {
	Code   int
	Header http.Header
	Body   []byte
}

// File is a file-backed response body. The content type is inferred from the
// file name extension unless overridden upstream.
type File struct {
	Path string
}

// Status is an error-with-status value that reached the writer without being
// intercepted. The writer uses its code and renders the message as plain text.
type Status struct {
	Code    int
	Message string
}

func (Text) responseValue()     {}
func (Mapping) responseValue()  {}
func (Sequence) responseValue() {}
func (Raw) responseValue()      {}
func (File) responseValue()     {}
func (Status) responseValue()   {}
