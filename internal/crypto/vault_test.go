package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	v, err := NewVault(key, bcrypt.MinCost)
	require.NoError(t, err)
	return v
}

func TestVaultEncryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t)

	for _, plaintext := range []string{"", "Alice", "contact: +1 555 0100", "日本語のテキスト"} {
		ct, err := v.Encrypt(plaintext)
		require.NoError(t, err)

		got, err := v.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestVaultEncryptIsNonDeterministic(t *testing.T) {
	v := newTestVault(t)

	a, err := v.Encrypt("same input")
	require.NoError(t, err)
	b, err := v.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two encryptions of the same plaintext must not repeat ciphertext")
}

func TestVaultDecryptRejectsTamperedCiphertext(t *testing.T) {
	v := newTestVault(t)

	ct, err := v.Encrypt("sensitive")
	require.NoError(t, err)

	ct[len(ct)-1] ^= 0xFF
	_, err = v.Decrypt(ct)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestVaultDecryptRejectsWrongKey(t *testing.T) {
	v := newTestVault(t)
	other, err := NewVault(bytes.Repeat([]byte{0x99}, 32), bcrypt.MinCost)
	require.NoError(t, err)

	ct, err := v.Encrypt("sensitive")
	require.NoError(t, err)

	_, err = other.Decrypt(ct)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestVaultDecryptRejectsShortInput(t *testing.T) {
	v := newTestVault(t)

	_, err := v.Decrypt([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestVaultRejectsBadKeyLength(t *testing.T) {
	_, err := NewVault([]byte("too short"), bcrypt.MinCost)
	assert.Error(t, err)
}

func TestPasswordHashAndVerify(t *testing.T) {
	v := newTestVault(t)

	hash, err := v.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	ok, err := v.VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordCorruptHash(t *testing.T) {
	v := newTestVault(t)

	_, err := v.VerifyPassword("anything", "not-a-bcrypt-hash")
	assert.ErrorIs(t, err, ErrCorruptHash)
}
