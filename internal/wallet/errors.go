package wallet

import "errors"

// Error kinds returned by wallet construction, accessors and signing.
// Callers match them with errors.Is; wrapped causes never carry key material.
var (
	ErrDerivation          = errors.New("hd derivation failed")
	ErrInvalidKey          = errors.New("invalid key")
	ErrKeystoreDecrypt     = errors.New("keystore decrypt failed")
	ErrUninitializedWallet = errors.New("wallet is not initialized")
	ErrSigning             = errors.New("signing failed")
)
