package wallet

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

// passphraseSalt and passphraseIterations define the passphrase root:
// seed = PBKDF2-HMAC-SHA512(NFKD(password), passphraseSalt, 2048, 64).
const (
	passphraseSalt       = "bnbwallet passphrase"
	passphraseIterations = 2048
	seedLen              = 64

	privKeyLen = 32
)

// KeySource produces the working key a Wallet is built from. The set of
// sources is closed: PrivateKeySource, PasswordSource, MnemonicSource and
// KeystoreSource.
type KeySource interface {
	// workingKey returns the key and whether it was imported verbatim
	// (no HD derivation took place).
	workingKey() (*btcec.PrivateKey, bool, error)
	kind() string
}

// PrivateKeySource imports a raw private key as the working key. Key is
// 64 hex characters (optionally 0x prefixed) or a WIF string.
type PrivateKeySource struct {
	Key string
}

// PasswordSource derives the working key at HDPath from a root seeded by a
// passphrase. The same password always yields the same key; an empty
// password yields a key anyone can reproduce.
type PasswordSource struct {
	Password string
}

// MnemonicSource derives the working key at HDPath from a BIP-39 mnemonic
// and optional password. An empty Language is detected from the words.
type MnemonicSource struct {
	Words    string
	Password string
	Language Language
}

// KeystoreSource decrypts a version 3 keystore and imports the stored key
// verbatim.
type KeystoreSource struct {
	JSON     []byte
	Password string
}

var (
	_ KeySource = PrivateKeySource{}
	_ KeySource = PasswordSource{}
	_ KeySource = MnemonicSource{}
	_ KeySource = KeystoreSource{}
)

func (s PrivateKeySource) kind() string { return "private_key" }
func (s PasswordSource) kind() string   { return "password" }
func (s MnemonicSource) kind() string   { return "mnemonic" }
func (s KeystoreSource) kind() string   { return "keystore" }

func (s PrivateKeySource) workingKey() (*btcec.PrivateKey, bool, error) {
	key, err := parsePrivateKey(s.Key)
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

func (s PasswordSource) workingKey() (*btcec.PrivateKey, bool, error) {
	seed := pbkdf2.Key([]byte(norm.NFKD.String(s.Password)), []byte(passphraseSalt), passphraseIterations, seedLen, sha512.New)
	defer clear(seed)

	key, err := keyFromSeed(seed)
	if err != nil {
		return nil, false, err
	}
	return key, false, nil
}

func (s MnemonicSource) workingKey() (*btcec.PrivateKey, bool, error) {
	lang := s.Language
	if lang == "" {
		detected, err := DetectLanguage(s.Words)
		if err != nil {
			return nil, false, err
		}
		lang = detected
	}
	seed, err := mnemonicSeed(s.Words, s.Password, lang)
	if err != nil {
		return nil, false, err
	}
	defer clear(seed)

	key, err := keyFromSeed(seed)
	if err != nil {
		return nil, false, err
	}
	return key, false, nil
}

func (s KeystoreSource) workingKey() (*btcec.PrivateKey, bool, error) {
	key, err := decryptKeystore(s.JSON, s.Password)
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// keyFromSeed derives the working key at DefaultPath from a BIP-32 seed.
func keyFromSeed(seed []byte) (*btcec.PrivateKey, error) {
	child, err := deriveFromSeed(seed)
	if err != nil {
		return nil, err
	}
	defer clear(child.Key)

	key, err := parsePrivateKeyBytes(child.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: derived key: %v", ErrDerivation, err)
	}
	return key, nil
}

// parsePrivateKey accepts a hex encoded 32-byte scalar or a WIF string.
func parsePrivateKey(s string) (*btcec.PrivateKey, error) {
	s = strings.TrimSpace(s)
	hexKey := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(hexKey) == 2*privKeyLen {
		raw, err := hex.DecodeString(hexKey)
		if err == nil {
			defer clear(raw)
			return parsePrivateKeyBytes(raw)
		}
	}

	wif, err := btcutil.DecodeWIF(s)
	if err != nil {
		return nil, fmt.Errorf("%w: not a hex or WIF private key", ErrInvalidKey)
	}
	raw := wif.PrivKey.Serialize()
	defer clear(raw)
	wif.PrivKey.Zero()
	return parsePrivateKeyBytes(raw)
}

// parsePrivateKeyBytes checks that raw is a scalar in [1, N-1] and returns
// it as a private key. Derived keys shorter than 32 bytes are left padded.
func parsePrivateKeyBytes(raw []byte) (*btcec.PrivateKey, error) {
	if len(raw) == 0 || len(raw) > privKeyLen {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKey, privKeyLen, len(raw))
	}

	var scalar btcec.ModNScalar
	overflow := scalar.SetByteSlice(raw)
	defer scalar.Zero()
	if overflow || scalar.IsZero() {
		return nil, fmt.Errorf("%w: private key out of range", ErrInvalidKey)
	}

	key, _ := btcec.PrivKeyFromBytes(raw)
	return key, nil
}
