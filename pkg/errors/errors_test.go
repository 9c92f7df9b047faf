package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataCoversEveryCode(t *testing.T) {
	wantStatus := map[Code]int{
		CodeValidation:    http.StatusBadRequest,
		CodeUnauthorized:  http.StatusUnauthorized,
		CodeForbidden:     http.StatusForbidden,
		CodeNotFound:      http.StatusNotFound,
		CodeConflict:      http.StatusConflict,
		CodeStateConflict: http.StatusUnprocessableEntity,
		CodeInternal:      http.StatusInternalServerError,
		CodeDependency:    http.StatusServiceUnavailable,
	}
	for code, status := range wantStatus {
		meta := MetadataFor(code)
		assert.Equal(t, status, meta.HTTPStatus, "code %s", code)
		assert.NotEmpty(t, meta.PublicMessage, "code %s", code)
	}
}

func TestDetailsNeverLeakForOpaqueCodes(t *testing.T) {
	for _, code := range []Code{CodeUnauthorized, CodeForbidden, CodeNotFound, CodeInternal} {
		assert.False(t, MetadataFor(code).DetailsAllowed, "code %s", code)
	}
	for _, code := range []Code{CodeValidation, CodeConflict, CodeStateConflict} {
		assert.True(t, MetadataFor(code).DetailsAllowed, "code %s", code)
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestNewAndWithDetails(t *testing.T) {
	err := New(CodeValidation, "missing serial")
	require.Equal(t, CodeValidation, err.Code())
	require.Equal(t, "missing serial", err.Message())
	require.Nil(t, err.Details())

	err.WithDetails(map[string]string{"serial": "is required"})
	require.NotNil(t, err.Details())
	assert.Equal(t, "VALIDATION_ERROR: missing serial", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "claim failed")
	require.Equal(t, CodeConflict, wrapped.Code())
	assert.True(t, stdErrors.Is(wrapped, cause))
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeForbidden, "no entry")
	outer := fmt.Errorf("handler: %w", inner)

	got := As(outer)
	require.NotNil(t, got)
	assert.Equal(t, CodeForbidden, got.Code())

	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("untyped")))
}
