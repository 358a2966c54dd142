package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

func TestFromSelectorError_MapsEachSentinel(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"syntax", fmt.Errorf("%w: leading operator", selector.ErrSyntax), CodeSyntaxError},
		{"malformed", fmt.Errorf("%w: bad regex", selector.ErrMalformedExpression), CodeMalformedExpression},
		{"macro", fmt.Errorf("%w: foo", selector.ErrUnknownMacro), CodeUnknownMacro},
		{"usage", fmt.Errorf("%w: duplicate prefix", selector.ErrUsage), CodeUsageError},
		{"external", fmt.Errorf("%w: timeout", selector.ErrExternal), CodeExternalProvider},
		{"unrelated", errors.New("boom"), CodeInternalError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromSelectorError(tc.err)
			require.NotNil(t, got)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.err.Error(), got.Message)
		})
	}
}

func TestFromSelectorError_NilIsNil(t *testing.T) {
	assert.Nil(t, FromSelectorError(nil))
}

func TestStatusCode_MapsEachCode(t *testing.T) {
	cases := map[ErrorCode]int{
		CodeSyntaxError:         http.StatusBadRequest,
		CodeMalformedExpression: http.StatusBadRequest,
		CodeUnknownMacro:        http.StatusBadRequest,
		CodeValidationError:     http.StatusBadRequest,
		CodeUsageError:          http.StatusUnprocessableEntity,
		CodeNotFound:            http.StatusNotFound,
		CodeRateLimitExceeded:   http.StatusTooManyRequests,
		CodeExternalProvider:    http.StatusBadGateway,
		CodeInternalError:       http.StatusInternalServerError,
	}

	for code, status := range cases {
		assert.Equal(t, status, NewAPIError(code, "x").StatusCode(), "code=%s", code)
	}
}

func TestWriteError_WritesJSONEnvelopeWithStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	err := NewAPIError(CodeValidationError, "expr is required").WithRequestID("req-1").WithDetails(map[string]string{"field": "expr"})

	WriteError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeValidationError, resp.Error.Code)
	assert.Equal(t, "expr is required", resp.Error.Message)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.NotEmpty(t, resp.Error.Timestamp)
}

func TestWithDetails_SetsField(t *testing.T) {
	err := NewAPIError(CodeInternalError, "x").WithDetails("extra")
	assert.Equal(t, "extra", err.Details)
}

func TestError_FormatsCodeAndMessage(t *testing.T) {
	err := NewAPIError(CodeNotFound, "subject not found")
	assert.Equal(t, "[NOT_FOUND] subject not found", err.Error())
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("subject")
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, "subject not found", err.Message)
}

func TestRateLimitError(t *testing.T) {
	assert.Equal(t, CodeRateLimitExceeded, RateLimitError().Code)
}
