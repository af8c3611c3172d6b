package assert

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

// JSONResponse asserts that the recorded response carries the expected
// status code, a JSON content type, and a body equal to expected after
// JSON normalization.
func JSONResponse(t *testing.T, rec *httptest.ResponseRecorder, expectedStatus int, expected any) {
	t.Helper()

	if rec.Code != expectedStatus {
		t.Errorf("Expected status code %d, got %d", expectedStatus, rec.Code)
		return
	}

	contentType := rec.Header().Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		t.Errorf("Expected JSON content type, got %s", contentType)
		return
	}

	var actual any
	if err := json.Unmarshal(rec.Body.Bytes(), &actual); err != nil {
		t.Errorf("Failed to parse JSON response: %v", err)
		return
	}

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Errorf("Failed to marshal expected value: %v", err)
		return
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Errorf("Failed to marshal actual value: %v", err)
		return
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON response mismatch\nExpected: %s\nActual: %s", expectedJSON, actualJSON)
	}
}

// StatusCode asserts that the recorded response has the expected status code.
func StatusCode(t *testing.T, rec *httptest.ResponseRecorder, expected int) {
	t.Helper()

	if rec.Code != expected {
		t.Errorf("Expected status code %d, got %d", expected, rec.Code)
	}
}

// Header asserts that the recorded response contains the expected header.
func Header(t *testing.T, rec *httptest.ResponseRecorder, name, expected string) {
	t.Helper()

	actual := rec.Header().Get(name)
	if actual != expected {
		t.Errorf("Expected header %s=%s, got %s", name, expected, actual)
	}
}

// BodyContains asserts that the recorded response body contains the
// expected substring.
func BodyContains(t *testing.T, rec *httptest.ResponseRecorder, expected string) {
	t.Helper()

	if !strings.Contains(rec.Body.String(), expected) {
		t.Errorf("Expected body to contain %q, got %q", expected, rec.Body.String())
	}
}
