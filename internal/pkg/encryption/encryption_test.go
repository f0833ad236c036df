package encryption_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenmind/agent-service/internal/pkg/encryption"
)

func TestAESEncryptor_RoundTrip(t *testing.T) {
	key, err := encryption.GenerateKey()
	require.NoError(t, err)

	encryptor, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	plaintext := "I've been feeling anxious about work lately"
	ciphertext, err := encryptor.EncryptString(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := encryptor.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAESEncryptor_RawKey(t *testing.T) {
	encryptor, err := encryption.NewAESEncryptor("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	ciphertext, err := encryptor.EncryptString("hello")
	require.NoError(t, err)

	decrypted, err := encryptor.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "hello", decrypted)
}

func TestAESEncryptor_InvalidKeyLength(t *testing.T) {
	_, err := encryption.NewAESEncryptor("too-short")
	assert.Error(t, err)
}

func TestAESEncryptor_NonDeterministicCiphertext(t *testing.T) {
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	encryptor, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	first, err := encryptor.EncryptString("same input")
	require.NoError(t, err)
	second, err := encryptor.EncryptString("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestAESEncryptor_TamperedCiphertextFails(t *testing.T) {
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	encryptor, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)

	_, err = encryptor.DecryptString("bm90IGEgcmVhbCBjaXBoZXJ0ZXh0IGF0IGFsbCE=")
	assert.Error(t, err)
}

func TestNoOpEncryptor_PassThrough(t *testing.T) {
	encryptor := encryption.NewNoOpEncryptor()

	ciphertext, err := encryptor.EncryptString("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", ciphertext)

	decrypted, err := encryptor.DecryptString("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", decrypted)
}
