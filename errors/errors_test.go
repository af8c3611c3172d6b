package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbortDefaultsToStatusText(t *testing.T) {
	a := NewAbort(http.StatusNotFound)
	assert.Equal(t, "Not Found", a.Message)
	assert.Equal(t, http.StatusNotFound, a.StatusCode())
}

func TestAbortHelpers(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, BadRequest().StatusCode())
	assert.Equal(t, http.StatusUnauthorized, Unauthorized().StatusCode())
	assert.Equal(t, http.StatusForbidden, Forbidden().StatusCode())
	assert.Equal(t, http.StatusNotFound, NotFound().StatusCode())
	assert.Equal(t, http.StatusConflict, Conflict().StatusCode())
	assert.Equal(t, http.StatusTooManyRequests, TooManyRequests().StatusCode())
	assert.Equal(t, http.StatusInternalServerError, Internal().StatusCode())

	assert.Equal(t, "gone fishing", NotFound("gone fishing").Message)
}

func TestResolutionErrorDefaultsTo400(t *testing.T) {
	cause := errors.New("missing")
	err := &ResolutionError{Handler: "getUser", Param: "id", Cause: cause}

	assert.Equal(t, http.StatusBadRequest, err.StatusCode())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "getUser")
	assert.Contains(t, err.Error(), "id")
}

func TestResolutionErrorStatusOverride(t *testing.T) {
	err := &ResolutionError{Handler: "h", Param: "p", Status: http.StatusUnprocessableEntity}
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode())
}

func TestStallErrorNamesElement(t *testing.T) {
	err := &StallError{Element: "cache"}
	assert.Contains(t, err.Error(), "cache")
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode())
}

func TestConfigError(t *testing.T) {
	err := Configf("duplicate route %q", "getUser")
	assert.Contains(t, err.Error(), "getUser")
}
