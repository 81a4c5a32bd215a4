package merchants

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"payrouter/pkg/connectors"
	"payrouter/pkg/crypto"
	"payrouter/pkg/masking"
)

const keySize = 32

func newMerchantKey() (masking.Secret[[]byte], error) {
	k := make([]byte, keySize)
	if _, err := rand.Read(k); err != nil {
		return masking.Secret[[]byte]{}, fmt.Errorf("generate merchant key: %w", err)
	}
	return masking.New(k), nil
}

// sealKey encrypts a merchant key with the master key.
func sealKey(key masking.Secret[[]byte], master []byte) ([]byte, error) {
	return crypto.Encrypt(key.Expose(), master)
}

func openKey(blob, master []byte) (masking.Secret[[]byte], error) {
	k, err := crypto.Decrypt(blob, master)
	if err != nil {
		return masking.Secret[[]byte]{}, fmt.Errorf("open merchant key: %w", err)
	}
	return masking.New(k), nil
}

type sealedAccount struct {
	Auth     []byte
	Metadata json.RawMessage
	Disabled bool
}

func sealAccount(acct ConnectorAccount, key masking.Secret[[]byte]) (sealedAccount, error) {
	auth, err := crypto.EncryptJSON(acct.Auth, key.Expose())
	if err != nil {
		return sealedAccount{}, fmt.Errorf("seal %s credentials: %w", acct.Connector, err)
	}
	return sealedAccount{Auth: auth, Metadata: acct.Metadata, Disabled: acct.Disabled}, nil
}

func openAuth(blob []byte, key masking.Secret[[]byte]) (connectors.ConnectorAuthType, error) {
	var auth connectors.ConnectorAuthType
	if err := crypto.DecryptJSON(blob, key.Expose(), &auth); err != nil {
		return connectors.ConnectorAuthType{}, fmt.Errorf("open credentials: %w", err)
	}
	return auth, nil
}
