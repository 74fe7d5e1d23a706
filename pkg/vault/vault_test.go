package vault

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_EncryptDecryptRoundTrip(t *testing.T) {
	v := New()

	testCases := []struct {
		name       string
		token      string
		passphrase string
	}{
		{
			name:       "typical bearer token",
			token:      "1081~x8Fn2kQv9ZpL3mW7yTfR4cJs6bNd0aGhUeVi5oMr",
			passphrase: "correct horse battery staple",
		},
		{
			name:       "empty token",
			token:      "",
			passphrase: "p",
		},
		{
			name:       "unicode token and passphrase",
			token:      "令牌-ключ-🔑",
			passphrase: "口令-пароль",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cred, err := v.Encrypt(tc.token, tc.passphrase)
			require.NoError(t, err)
			assert.Len(t, cred.Salt, 16)
			assert.Len(t, cred.Nonce, 12)

			plaintext, err := v.Decrypt(cred, tc.passphrase)
			require.NoError(t, err)
			assert.Equal(t, tc.token, plaintext)
		})
	}
}

func TestVault_EncryptRejectsEmptyPassphrase(t *testing.T) {
	v := New()

	_, err := v.Encrypt("token", "")

	assert.Error(t, err)
}

func TestVault_EncryptUsesFreshSaltAndNonce(t *testing.T) {
	v := New()

	first, err := v.Encrypt("token", "passphrase")
	require.NoError(t, err)
	second, err := v.Encrypt("token", "passphrase")
	require.NoError(t, err)

	assert.NotEqual(t, first.Salt, second.Salt)
	assert.NotEqual(t, first.Nonce, second.Nonce)
	assert.NotEqual(t, first.Ciphertext, second.Ciphertext)
}

func TestVault_DecryptWithWrongPassphrase(t *testing.T) {
	v := New()

	cred, err := v.Encrypt("secret-token", "right passphrase")
	require.NoError(t, err)

	_, err = v.Decrypt(cred, "wrong passphrase")

	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestVault_DecryptTamperedCiphertext(t *testing.T) {
	v := New()

	cred, err := v.Encrypt("secret-token", "passphrase")
	require.NoError(t, err)

	// Flip one byte in every position to make sure no bit of the
	// ciphertext or tag goes unauthenticated.
	for i := range cred.Ciphertext {
		tampered := cred
		tampered.Ciphertext = make([]byte, len(cred.Ciphertext))
		copy(tampered.Ciphertext, cred.Ciphertext)
		tampered.Ciphertext[i] ^= 0x01

		_, err := v.Decrypt(tampered, "passphrase")
		assert.ErrorIs(t, err, ErrAuthentication)
	}
}

func TestVault_DecryptMalformedCredential(t *testing.T) {
	v := New()

	_, err := v.Decrypt(Credential{Salt: []byte("short"), Nonce: []byte("also short")}, "passphrase")

	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestCredential_SurvivesJSONStorage(t *testing.T) {
	v := New()

	cred, err := v.Encrypt("secret-token", "passphrase")
	require.NoError(t, err)

	blob, err := json.Marshal(cred)
	require.NoError(t, err)

	var restored Credential
	require.NoError(t, json.Unmarshal(blob, &restored))

	plaintext, err := v.Decrypt(restored, "passphrase")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", plaintext)
}
