package wallet

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 is part of the account address scheme (Hash160)
)

// EncodeAddress returns the bech32 address of pub under the given
// human-readable prefix ("bnb" or "tbnb").
// Address = Bech32(prefix, RIPEMD160(SHA256(compressed pubkey))).
func EncodeAddress(pub *btcec.PublicKey, prefix string) (string, error) {
	if pub == nil || !pub.IsOnCurve() {
		return "", fmt.Errorf("%w: public key is not a curve point", ErrInvalidKey)
	}

	conv, err := bech32.ConvertBits(hash160(pub.SerializeCompressed()), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: convert bits: %v", ErrInvalidKey, err)
	}
	addr, err := bech32.Encode(prefix, conv)
	if err != nil {
		return "", fmt.Errorf("%w: bech32 encode: %v", ErrInvalidKey, err)
	}
	return addr, nil
}

// EncodeAddressBytes parses a SEC1 encoded public key (compressed or not)
// and encodes it like EncodeAddress.
func EncodeAddressBytes(pubKey []byte, prefix string) (string, error) {
	pub, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return "", fmt.Errorf("%w: parse public key: %v", ErrInvalidKey, err)
	}
	return EncodeAddress(pub, prefix)
}

// DecodeAddress validates a bech32 address and returns its prefix and the
// 20-byte key hash it commits to.
func DecodeAddress(addr string) (string, []byte, error) {
	prefix, data, err := bech32.Decode(addr)
	if err != nil {
		return "", nil, fmt.Errorf("decode address: %w", err)
	}
	hash, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("decode address: %w", err)
	}
	if len(hash) != ripemd160.Size {
		return "", nil, fmt.Errorf("decode address: key hash is %d bytes, want %d", len(hash), ripemd160.Size)
	}
	return prefix, hash, nil
}

// --- helpers ---

func hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	ripe := ripemd160.New()
	ripe.Write(sha[:])
	return ripe.Sum(nil)
}
