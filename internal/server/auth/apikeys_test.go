package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRegistry(t *testing.T) {
	r := NewAPIKeyRegistry(map[string]string{"static-key": "reporting"})
	assert.Equal(t, 1, r.Len())

	id, ok := r.Lookup("static-key")
	require.True(t, ok)
	assert.Equal(t, "reporting", id.Name)

	_, ok = r.Lookup("")
	assert.False(t, ok)
	_, ok = r.Lookup("unknown")
	assert.False(t, ok)

	key, err := r.Generate("billing")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "billing_"))
	assert.Greater(t, len(key), len("billing_")+32)

	id, ok = r.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, "billing", id.Name)

	assert.True(t, r.Revoke(key))
	assert.False(t, r.Revoke(key))
	_, ok = r.Lookup(key)
	assert.False(t, ok)

	_, err = r.Generate("  ")
	require.Error(t, err)
}

func TestAPIKeyRegistry_StoresDigestsOnly(t *testing.T) {
	r := NewAPIKeyRegistry(map[string]string{"plain-secret": "svc"})
	for stored := range r.keys {
		assert.NotContains(t, stored, "plain-secret")
		assert.Len(t, stored, 64)
	}
}
