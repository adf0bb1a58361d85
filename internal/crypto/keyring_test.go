package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKeyring(t *testing.T) {
	env := map[string]string{}
	k := &EnvKeyring{Var: EnvVar, lookup: func(name string) string { return env[name] }}

	assert.False(t, k.IsAvailable())
	_, err := k.GetKey()
	assert.ErrorIs(t, err, ErrKeyNotFound)

	env[EnvVar] = "s3cret"
	assert.True(t, k.IsAvailable())
	key, err := k.GetKey()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", key)

	assert.ErrorIs(t, k.SetKey(""), ErrEmptyKey)
	err = k.SetKey("pw")
	require.Error(t, err)
	assert.Error(t, k.DeleteKey())
}
