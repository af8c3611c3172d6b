package response

import "net/http"

// Common response value constructors.

// NoContent returns an empty 204 response.
func NoContent() Value {
	return Raw{Code: http.StatusNoContent}
}

// Created returns an empty 201 response pointing at the new resource.
func Created(location string) Value {
	header := http.Header{}
	if location != "" {
		header.Set("Location", location)
	}
	return Raw{Code: http.StatusCreated, Header: header}
}

// Redirect returns a 302 redirect to url.
func Redirect(url string) Value {
	header := http.Header{}
	header.Set("Location", url)
	return Raw{Code: http.StatusFound, Header: header}
}

// Bytes returns a binary response body with an explicit content type.
func Bytes(contentType string, body []byte) Value {
	header := http.Header{}
	header.Set("Content-Type", contentType)
	return Raw{Code: http.StatusOK, Header: header, Body: body}
}

// Error returns an error-with-status value rendered as plain text.
func Error(code int, message string) Value {
	if message == "" {
		message = http.StatusText(code)
	}
	return Status{Code: code, Message: message}
}
