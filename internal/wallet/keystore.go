package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// KeystoreParams are the scrypt cost parameters used when encrypting a key.
type KeystoreParams struct {
	ScryptN int
	ScryptP int
}

var (
	// StandardKeystoreParams matches the cost used by common wallets
	// (N=2^18, P=1).
	StandardKeystoreParams = KeystoreParams{ScryptN: keystore.StandardScryptN, ScryptP: keystore.StandardScryptP}

	// LightKeystoreParams is cheap to decrypt and meant for tests and
	// constrained devices.
	LightKeystoreParams = KeystoreParams{ScryptN: keystore.LightScryptN, ScryptP: keystore.LightScryptP}
)

// encryptKeystore seals key into a version 3 keystore JSON document.
func encryptKeystore(key *btcec.PrivateKey, password string, params KeystoreParams) ([]byte, error) {
	if params.ScryptN <= 0 || params.ScryptP <= 0 {
		params = StandardKeystoreParams
	}

	raw := key.Serialize()
	defer clear(raw)

	ecKey, err := ethcrypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("keystore id: %w", err)
	}

	k := &keystore.Key{
		Id:         id,
		Address:    ethcrypto.PubkeyToAddress(ecKey.PublicKey),
		PrivateKey: ecKey,
	}
	out, err := keystore.EncryptKey(k, password, params.ScryptN, params.ScryptP)
	if err != nil {
		return nil, fmt.Errorf("encrypt keystore: %w", err)
	}
	return out, nil
}

// decryptKeystore opens a keystore JSON document with password and returns
// the stored private key.
func decryptKeystore(keystoreJSON []byte, password string) (*btcec.PrivateKey, error) {
	k, err := keystore.DecryptKey(keystoreJSON, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeystoreDecrypt, err)
	}

	raw := ethcrypto.FromECDSA(k.PrivateKey)
	defer clear(raw)
	k.PrivateKey.D.SetInt64(0)

	return parsePrivateKeyBytes(raw)
}
