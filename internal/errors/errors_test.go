package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NotFound("workbook")
	wrapped := Wrap(fmt.Errorf("lookup: %w", base), "failed to open workbook")

	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, base))
	assert.Equal(t, "failed to open workbook: lookup: workbook not found", wrapped.Error())
}

func TestWrapPlainError(t *testing.T) {
	err := Wrapf(stderrors.New("disk full"), "failed to save %s", "Nord")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("x")))
}

func TestDistributionFailedMessage(t *testing.T) {
	err := DistributionFailed(stderrors.New("Nicht genügend Spalten!"))
	assert.Equal(t, "Nicht genügend Spalten!", err.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(err.Code))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeUnsupportedFile))
	assert.Equal(t, http.StatusRequestEntityTooLarge, HTTPStatus(CodeFileTooLarge))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("UNKNOWN"))
}
