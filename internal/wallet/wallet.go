package wallet

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/btcsuite/btcd/btcec/v2"
	"go.uber.org/zap"

	"github.com/olehkaliuzhnyi/bnb-wallet/pkg/models"
)

// Wallet holds one working key, the network it addresses and the address
// computed from both at construction. A Wallet is immutable until Zero is
// called and is safe for concurrent use.
type Wallet struct {
	key      atomic.Pointer[btcec.PrivateKey]
	network  models.Network
	address  string
	imported bool
}

// New builds a Wallet from src. Construction either fully succeeds or
// returns an error; no partially initialised Wallet is ever returned.
func New(src KeySource, testnet bool) (*Wallet, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no key source", ErrInvalidKey)
	}
	logger := zap.S().Named("wallet")

	if ps, ok := src.(PasswordSource); ok && ps.Password == "" {
		logger.Warnw("deriving wallet from empty password; the key is publicly reproducible")
	}

	key, imported, err := src.workingKey()
	if err != nil {
		return nil, err
	}
	w, err := fromKey(key, imported, models.NetworkFor(testnet))
	if err != nil {
		key.Zero()
		return nil, err
	}

	logger.Infow("wallet created",
		"source", src.kind(),
		"network", w.network,
		"address", w.address,
	)
	return w, nil
}

func fromKey(key *btcec.PrivateKey, imported bool, network models.Network) (*Wallet, error) {
	addr, err := EncodeAddress(key.PubKey(), network.Prefix())
	if err != nil {
		return nil, err
	}
	w := &Wallet{
		network:  network,
		address:  addr,
		imported: imported,
	}
	w.key.Store(key)
	return w, nil
}

// CreateWithPrivateKey imports privateKey (hex or WIF) as the working key.
func CreateWithPrivateKey(privateKey string, testnet bool) (*Wallet, error) {
	return New(PrivateKeySource{Key: privateKey}, testnet)
}

// RecoverFromPrivateKey is CreateWithPrivateKey under its recovery name.
func RecoverFromPrivateKey(privateKey string, testnet bool) (*Wallet, error) {
	return New(PrivateKeySource{Key: privateKey}, testnet)
}

// Create derives a wallet from a passphrase-seeded root at HDPath. Equal
// passwords give equal wallets. An empty password is accepted but the
// resulting key is known to everyone.
func Create(password string, testnet bool) (*Wallet, error) {
	return New(PasswordSource{Password: password}, testnet)
}

// CreateWithMnemonic generates a fresh 24-word mnemonic in lang, derives the
// wallet from it and password, and returns both. The mnemonic is not kept
// by the Wallet; it is the caller's only recovery material.
func CreateWithMnemonic(lang Language, password string, testnet bool) (*Wallet, string, error) {
	words, err := NewMnemonic(lang)
	if err != nil {
		return nil, "", err
	}
	w, err := New(MnemonicSource{Words: words, Password: password, Language: lang}, testnet)
	if err != nil {
		return nil, "", err
	}
	return w, words, nil
}

// RecoverFromMnemonic rebuilds the wallet for words and password. The word
// list is detected, so mnemonics from CreateWithMnemonic in any supported
// language recover.
func RecoverFromMnemonic(words, password string, testnet bool) (*Wallet, error) {
	return New(MnemonicSource{Words: words, Password: password}, testnet)
}

// RecoverFromKeystore decrypts keystoreJSON with password and imports the
// stored key.
func RecoverFromKeystore(keystoreJSON []byte, password string, testnet bool) (*Wallet, error) {
	return New(KeystoreSource{JSON: keystoreJSON, Password: password}, testnet)
}

// CreateKeystore generates a fresh mnemonic, derives the key at HDPath using
// password as the mnemonic password, and returns that key encrypted with
// password. The mnemonic is discarded.
func CreateKeystore(password string, params KeystoreParams) ([]byte, error) {
	words, err := NewMnemonic(LanguageEnglish)
	if err != nil {
		return nil, err
	}
	key, _, err := MnemonicSource{Words: words, Password: password}.workingKey()
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	return encryptKeystore(key, password, params)
}

// Address returns the bech32 address of the wallet.
func (w *Wallet) Address() (string, error) {
	if w == nil || w.address == "" || w.key.Load() == nil {
		return "", ErrUninitializedWallet
	}
	return w.address, nil
}

// PrivateKey returns the 32-byte private key as lowercase hex. The result
// is secret material; do not log it.
func (w *Wallet) PrivateKey() (string, error) {
	key, err := w.privateKey()
	if err != nil {
		return "", err
	}
	raw := key.Serialize()
	defer clear(raw)
	return hex.EncodeToString(raw), nil
}

// PublicKey returns the compressed public key as hex.
func (w *Wallet) PublicKey() (string, error) {
	key, err := w.privateKey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key.PubKey().SerializeCompressed()), nil
}

// Info returns the public description of the wallet.
func (w *Wallet) Info() (*models.DerivedAddress, error) {
	addr, err := w.Address()
	if err != nil {
		return nil, err
	}
	pub, err := w.PublicKey()
	if err != nil {
		return nil, err
	}
	info := &models.DerivedAddress{
		Network:   w.network,
		Address:   addr,
		PublicKey: pub,
	}
	if !w.imported {
		info.DerivationPath = "m/" + HDPath
	}
	return info, nil
}

// Network returns the network the wallet addresses.
func (w *Wallet) Network() models.Network {
	return w.network
}

// Imported reports whether the key was imported verbatim rather than
// derived along HDPath.
func (w *Wallet) Imported() bool {
	return w.imported
}

// Sign signs payload with the wallet key. See Sign.
func (w *Wallet) Sign(payload any) (*models.Signature, error) {
	key, err := w.privateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return Sign(key, payload)
}

// SignTransaction is Sign under the name used by transaction tooling.
func (w *Wallet) SignTransaction(payload any) (*models.Signature, error) {
	return w.Sign(payload)
}

// Keystore encrypts the wallet key with password.
func (w *Wallet) Keystore(password string, params KeystoreParams) ([]byte, error) {
	key, err := w.privateKey()
	if err != nil {
		return nil, err
	}
	return encryptKeystore(key, password, params)
}

// Zero wipes the private key. Every later call that needs the key fails
// with ErrUninitializedWallet.
func (w *Wallet) Zero() {
	if w == nil {
		return
	}
	if key := w.key.Swap(nil); key != nil {
		key.Zero()
	}
}

func (w *Wallet) privateKey() (*btcec.PrivateKey, error) {
	if w == nil {
		return nil, ErrUninitializedWallet
	}
	key := w.key.Load()
	if key == nil {
		return nil, ErrUninitializedWallet
	}
	return key, nil
}
