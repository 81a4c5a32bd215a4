package crypto_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrouter/pkg/crypto"
	"payrouter/pkg/masking"
)

func TestRoundTrip(t *testing.T) {
	key := []byte("merchant-key")
	blob, err := crypto.Encrypt([]byte("Ana Perez"), key)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), blob[0])
	assert.NotContains(t, string(blob), "Ana Perez")

	plain, err := crypto.Decrypt(blob, key)
	require.NoError(t, err)
	assert.Equal(t, "Ana Perez", string(plain))

	again, err := crypto.Encrypt([]byte("Ana Perez"), key)
	require.NoError(t, err)
	assert.NotEqual(t, blob, again, "nonces differ")
}

func TestDecryptFailures(t *testing.T) {
	key := []byte("merchant-key")
	blob, err := crypto.Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	_, err = crypto.Decrypt(blob, []byte("other-key"))
	assert.ErrorIs(t, err, crypto.ErrAuthFailed)

	tampered := append([]byte(nil), blob...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = crypto.Decrypt(tampered, key)
	assert.ErrorIs(t, err, crypto.ErrAuthFailed)

	wrongVersion := append([]byte{0x02}, blob[1:]...)
	_, err = crypto.Decrypt(wrongVersion, key)
	assert.ErrorIs(t, err, crypto.ErrUnsupportedVersion)

	_, err = crypto.Decrypt(blob[:5], key)
	assert.ErrorIs(t, err, crypto.ErrMalformed)

	_, err = crypto.Encrypt([]byte("x"), nil)
	assert.ErrorIs(t, err, crypto.ErrEmptyKey)
}

func TestJSON(t *testing.T) {
	type creds struct {
		APIKey string `json:"api_key"`
	}
	blob, err := crypto.EncryptJSON(creds{APIKey: "k-1"}, []byte("key"))
	require.NoError(t, err)
	var out creds
	require.NoError(t, crypto.DecryptJSON(blob, []byte("key"), &out))
	assert.Equal(t, "k-1", out.APIKey)
}

type sealedCreds struct {
	key masking.Secret[string]
}

func (c sealedCreds) EncodeJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"api_key": c.key.Expose()})
}

func TestJSONSealsPlainEncoding(t *testing.T) {
	type creds struct {
		APIKey string `json:"api_key"`
	}
	blob, err := crypto.EncryptJSON(sealedCreds{key: masking.New("k-2")}, []byte("key"))
	require.NoError(t, err)
	var out creds
	require.NoError(t, crypto.DecryptJSON(blob, []byte("key"), &out))
	assert.Equal(t, "k-2", out.APIKey)
}
