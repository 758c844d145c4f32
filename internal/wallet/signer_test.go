package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/olehkaliuzhnyi/bnb-wallet/internal/canonical"
	"github.com/olehkaliuzhnyi/bnb-wallet/pkg/models"
)

func testWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := RecoverFromMnemonic(testMnemonic, "", false)
	require.NoError(t, err)
	return w
}

func testPayload() map[string]any {
	return map[string]any{
		"account_number": "1",
		"chain_id":       "Binance-Chain-Tigris",
		"memo":           "",
		"msgs": []any{
			map[string]any{
				"inputs":  []any{map[string]any{"address": testMnemonicAddress, "coins": []any{map[string]any{"amount": 100000000, "denom": "BNB"}}}},
				"outputs": []any{map[string]any{"address": testPrivateKeyAddress, "coins": []any{map[string]any{"amount": 100000000, "denom": "BNB"}}}},
			},
		},
		"sequence": "0",
		"source":   "0",
	}
}

func TestSign_VerifiesWithCurve(t *testing.T) {
	w := testWallet(t)
	payload := testPayload()

	sig, err := w.Sign(payload)
	require.NoError(t, err)
	require.Equal(t, testMnemonicPubKey, sig.PublicKey)

	// Check independently of Verify: parse r||s and verify the SHA-256
	// digest of the canonical bytes.
	pubBytes, err := hex.DecodeString(sig.PublicKey)
	require.NoError(t, err)
	pub, err := btcec.ParsePubKey(pubBytes)
	require.NoError(t, err)

	rs, err := hex.DecodeString(sig.Signature)
	require.NoError(t, err)
	require.Len(t, rs, 64)

	var r, s btcec.ModNScalar
	require.False(t, r.SetByteSlice(rs[:32]))
	require.False(t, s.SetByteSlice(rs[32:]))
	require.False(t, s.IsOverHalfOrder(), "signature S must be low")

	msg, err := canonical.Marshal(payload)
	require.NoError(t, err)
	digest := sha256.Sum256(msg)
	require.True(t, ecdsa.NewSignature(&r, &s).Verify(digest[:], pub))

	require.NoError(t, Verify(sig, payload))
}

func TestSign_MutationFailsVerification(t *testing.T) {
	w := testWallet(t)
	payload := testPayload()
	sig, err := w.Sign(payload)
	require.NoError(t, err)

	changed := testPayload()
	changed["sequence"] = "1"
	require.ErrorIs(t, Verify(sig, changed), ErrSigning)

	added := testPayload()
	added["extra"] = true
	require.ErrorIs(t, Verify(sig, added), ErrSigning)

	// Reordering a list changes the canonical bytes.
	reordered := map[string]any{"list": []any{2, 1}}
	orig := map[string]any{"list": []any{1, 2}}
	listSig, err := w.Sign(orig)
	require.NoError(t, err)
	require.ErrorIs(t, Verify(listSig, reordered), ErrSigning)
}

func TestSign_KeyOrderDoesNotMatter(t *testing.T) {
	w := testWallet(t)

	sig1, err := w.Sign(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	sig2, err := w.Sign(map[string]any{"a": 2, "b": 1})
	require.NoError(t, err)

	type ba struct {
		B int `json:"b"`
		A int `json:"a"`
	}
	sig3, err := w.SignTransaction(ba{B: 1, A: 2})
	require.NoError(t, err)

	require.Equal(t, sig1, sig2)
	require.Equal(t, sig1, sig3)
}

func TestSign_Deterministic(t *testing.T) {
	w := testWallet(t)
	sig1, err := w.Sign(testPayload())
	require.NoError(t, err)
	sig2, err := w.Sign(testPayload())
	require.NoError(t, err)
	require.Equal(t, sig1, sig2)
}

func TestSign_DifferentKeysDiffer(t *testing.T) {
	w1 := testWallet(t)
	w2, err := CreateWithPrivateKey(testPrivateKey, false)
	require.NoError(t, err)

	sig1, err := w1.Sign(testPayload())
	require.NoError(t, err)
	sig2, err := w2.Sign(testPayload())
	require.NoError(t, err)

	require.NotEqual(t, sig1.PublicKey, sig2.PublicKey)
	require.NoError(t, Verify(sig2, testPayload()))

	forged := &models.Signature{PublicKey: sig1.PublicKey, Signature: sig2.Signature}
	require.ErrorIs(t, Verify(forged, testPayload()), ErrSigning)
}

func TestSign_Errors(t *testing.T) {
	_, err := Sign(nil, map[string]any{})
	require.ErrorIs(t, err, ErrSigning)

	w := testWallet(t)
	_, err = w.Sign(map[string]any{"f": func() {}})
	require.ErrorIs(t, err, ErrSigning)
	require.ErrorIs(t, err, canonical.ErrUnsupportedValue)
}

func TestSign_InvalidUTF8(t *testing.T) {
	w := testWallet(t)

	_, err := w.Sign(map[string]any{"memo": "a\xff"})
	require.ErrorIs(t, err, ErrSigning)
	require.ErrorIs(t, err, canonical.ErrUnsupportedValue)

	sig, err := w.Sign(map[string]any{"memo": "a\ufffd"})
	require.NoError(t, err)
	require.ErrorIs(t, Verify(sig, map[string]any{"memo": "a\xfe"}), ErrSigning)
}

func TestVerify_Malformed(t *testing.T) {
	w := testWallet(t)
	sig, err := w.Sign(testPayload())
	require.NoError(t, err)

	require.ErrorIs(t, Verify(nil, testPayload()), ErrSigning)
	require.ErrorIs(t, Verify(&models.Signature{PublicKey: "zz", Signature: sig.Signature}, testPayload()), ErrInvalidKey)
	require.ErrorIs(t, Verify(&models.Signature{PublicKey: sig.PublicKey, Signature: "00"}, testPayload()), ErrSigning)
	require.ErrorIs(t, Verify(&models.Signature{PublicKey: sig.PublicKey, Signature: sig.Signature[:126] + "zz"}, testPayload()), ErrSigning)
}

func TestSign_Concurrent(t *testing.T) {
	w := testWallet(t)
	want, err := w.Sign(testPayload())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := w.Sign(testPayload())
			if err != nil {
				errs <- err
				return
			}
			if *got != *want {
				errs <- ErrSigning
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestSign_Property(t *testing.T) {
	w := testWallet(t)
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.MapOf(rapid.String(), rapid.Int()).Draw(rt, "payload")

		sig, err := w.Sign(payload)
		if err != nil {
			rt.Fatalf("sign: %v", err)
		}
		if err := Verify(sig, payload); err != nil {
			rt.Fatalf("verify: %v", err)
		}

		mutated := make(map[string]int, len(payload)+1)
		for k, v := range payload {
			mutated[k] = v
		}
		key := rapid.String().Draw(rt, "key")
		mutated[key] = mutated[key] + 1
		if err := Verify(sig, mutated); err == nil {
			rt.Fatalf("mutated payload verified")
		}
	})
}
