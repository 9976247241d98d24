package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAndOf(t *testing.T) {
	base := errors.New("invalid oauth_client.json")
	err := fmt.Errorf("setup: %w", Wrap(AuthError, base))

	assert.Equal(t, AuthError, Of(err, BackendError))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "setup: invalid oauth_client.json", err.Error())

	assert.Equal(t, BackendError, Of(base, BackendError))
	assert.NoError(t, Wrap(UserError, nil))
}
