package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		CodeUpgradeRequired:   http.StatusForbidden,
		CodeGenerationFailed:  http.StatusBadGateway,
		CodeStoreFailed:       http.StatusInternalServerError,
		CodeWorksheetNotFound: http.StatusNotFound,
		CodeInvalidParam:      http.StatusBadRequest,
		CodeTokenMissing:      http.StatusUnauthorized,
	}
	for code, want := range cases {
		assert.Equal(t, want, New(code, "x").HTTPStatus, "code %s", code)
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	inner := UpgradeRequired("monthly limit reached").WithMeta("remaining_count", 0)
	err := fmt.Errorf("generate: %w", inner)

	assert.True(t, IsAppError(err))
	assert.True(t, IsCode(err, CodeUpgradeRequired))

	appErr := AsAppError(err)
	assert.Equal(t, "upgrade_required", appErr.Reason())
	assert.Equal(t, 0, appErr.Meta["remaining_count"])
}

func TestAsAppError_Plain(t *testing.T) {
	appErr := AsAppError(stderrors.New("boom"))
	assert.Equal(t, CodeUnknown, appErr.Code)
	assert.Equal(t, "internal_error", appErr.Reason())
}

func TestStoreFailed_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := StoreFailed(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store_failed", err.Reason())
}
