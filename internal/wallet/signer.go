package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/olehkaliuzhnyi/bnb-wallet/internal/canonical"
	"github.com/olehkaliuzhnyi/bnb-wallet/pkg/models"
)

// Sign canonicalises payload, hashes it with SHA-256 and signs the digest
// with key over secp256k1.
//
// Nonces are RFC 6979 deterministic and S is normalised to the lower half
// of the curve order, so equal (key, payload) pairs produce equal
// signatures. The signature is returned as 64-byte r||s hex and the public
// key in compressed form.
func Sign(key *btcec.PrivateKey, payload any) (*models.Signature, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no private key", ErrSigning)
	}

	msg, err := canonical.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	digest := sha256.Sum256(msg)

	// Compact form is [recovery byte][R][S].
	compact := ecdsa.SignCompact(key, digest[:], true)

	return &models.Signature{
		PublicKey: hex.EncodeToString(key.PubKey().SerializeCompressed()),
		Signature: hex.EncodeToString(compact[1:]),
	}, nil
}

// Verify checks sig against the canonical encoding of payload. It returns
// nil only when the signature is valid for the embedded public key.
func Verify(sig *models.Signature, payload any) error {
	if sig == nil {
		return fmt.Errorf("%w: no signature", ErrSigning)
	}

	pubBytes, err := hex.DecodeString(sig.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: public key hex: %v", ErrInvalidKey, err)
	}
	pub, err := btcec.ParsePubKey(pubBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	rs, err := hex.DecodeString(sig.Signature)
	if err != nil || len(rs) != 64 {
		return fmt.Errorf("%w: signature must be 64 bytes of hex", ErrSigning)
	}
	var r, s btcec.ModNScalar
	if r.SetByteSlice(rs[:32]) || s.SetByteSlice(rs[32:]) || r.IsZero() || s.IsZero() {
		return fmt.Errorf("%w: signature scalar out of range", ErrSigning)
	}

	msg, err := canonical.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSigning, err)
	}
	digest := sha256.Sum256(msg)

	if !ecdsa.NewSignature(&r, &s).Verify(digest[:], pub) {
		return fmt.Errorf("%w: signature does not match payload", ErrSigning)
	}
	return nil
}
