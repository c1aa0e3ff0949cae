package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
)

func init() { Cost = bcrypt.MinCost }

func TestHashVerify(t *testing.T) {
	for _, pw := range []string{"Abcdefgh", "Secret123", "密碼Password"} {
		h, err := Hash(pw)
		require.NoError(t, err)
		assert.True(t, Verify(pw, h), pw)
		assert.False(t, Verify(pw+"x", h), pw)
	}
}

func TestHash_FreshSalt(t *testing.T) {
	a, err := Hash("Abcdefgh")
	require.NoError(t, err)
	b, err := Hash("Abcdefgh")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_MalformedHash(t *testing.T) {
	assert.False(t, Verify("Abcdefgh", ""))
	assert.False(t, Verify("Abcdefgh", "not-a-bcrypt-hash"))
	assert.False(t, Verify("Abcdefgh", "$2a$10$short"))
}

func TestHash_TooLong(t *testing.T) {
	_, err := Hash("Abcdefgh" + strings.Repeat("密", 30))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = Hash(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}
