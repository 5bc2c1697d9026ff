package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := fmt.Errorf("saving run: %w", WrapInternalError("Failed to save comparison", cause))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, "Failed to save comparison", appErr.Message)
	assert.ErrorIs(t, wrapped, cause)
}

func TestAsAppErrorPlainError(t *testing.T) {
	_, ok := AsAppError(errors.New("boom"))
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "WARN", ParseLevel("WARN").String())
	assert.Equal(t, "INFO", ParseLevel("bogus").String())
}

func TestGenerateIDUnique(t *testing.T) {
	assert.NotEqual(t, GenerateID(), GenerateID())
	assert.Len(t, GenerateID(), 36)
}
