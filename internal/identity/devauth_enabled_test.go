//go:build devauth

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevelopmentPlaceholderRequiresFlag(t *testing.T) {
	_, err := NewDevelopmentPlaceholder(false)
	require.Error(t, err)
}

func TestDevelopmentPlaceholderZeroIdentity(t *testing.T) {
	p, err := NewDevelopmentPlaceholder(true)
	require.NoError(t, err)
	assert.True(t, p.ID.IsZero())
	assert.Equal(t, KindDevelopmentPlaceholder, p.Kind)
}
