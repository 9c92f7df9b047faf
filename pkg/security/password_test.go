package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfcarvalho/radiostock-backend/pkg/config"
	"github.com/dfcarvalho/radiostock-backend/pkg/security"
)

var testParams = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	encoded, err := security.HashPassword("senha-do-estoque", testParams)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := security.VerifyPassword("senha-do-estoque", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("senha-errada", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	first, err := security.HashPassword("mesma-senha", testParams)
	require.NoError(t, err)
	second, err := security.HashPassword("mesma-senha", testParams)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	_, err := security.VerifyPassword("irrelevante", "not-a-hash")
	require.Error(t, err)
}
