//go:build !devauth

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "podium/pkg/domain-errors"
)

// Production builds must refuse the placeholder even when the runtime flag is on.
func TestDevelopmentPlaceholderCompiledOut(t *testing.T) {
	_, err := NewDevelopmentPlaceholder(true)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
