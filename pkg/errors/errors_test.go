package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrScopeLocked, "semester sem-1 locked")
	assert.True(t, errors.Is(err, ErrScopeLocked))
	assert.False(t, errors.Is(err, ErrConfigurationAbsent))
	assert.Equal(t, http.StatusLocked, err.Status)
	assert.Equal(t, "semester sem-1 locked", err.Error())
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("outer: %w", Clone(ErrInconsistentMapping, "bad value"))
	assert.Equal(t, ErrInconsistentMapping.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}
