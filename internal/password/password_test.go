package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndVerify(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
	}{
		{"ascii", "longenough"},
		{"unicode", "contraseña-segura"},
		{"max length", strings.Repeat("a", 72)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.NotContains(t, hash, tt.password)

			assert.True(t, h.Verify(tt.password, hash))
			assert.False(t, h.Verify(tt.password+"x", hash))
			assert.False(t, h.Verify(strings.ToUpper(tt.password), hash))
		})
	}
}

func TestBcrypt_Salted(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	a, err := h.Hash("longenough")
	require.NoError(t, err)
	b, err := h.Hash("longenough")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcrypt_TooLong(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestBcrypt_MalformedHash(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	assert.False(t, h.Verify("longenough", ""))
	assert.False(t, h.Verify("longenough", "not-a-bcrypt-hash"))
}

func TestNewBcrypt_CostFallback(t *testing.T) {
	h := NewBcrypt(100).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}
