package wallet

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

func testSeed(t *testing.T) []byte {
	t.Helper()
	return bip39.NewSeed(testMnemonic, "")
}

func testSeed2(t *testing.T) []byte {
	t.Helper()
	return bip39.NewSeed(testMnemonic2, "")
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want DerivationPath
	}{
		{HDPath, DefaultPath},
		{"m/" + HDPath, DefaultPath},
		{"44h/714h/0h/0/0", DefaultPath},
		{"0", DerivationPath{0}},
		{"2147483647'", DerivationPath{bip32.FirstHardenedChild + 2147483647}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParsePath_Invalid(t *testing.T) {
	for _, in := range []string{"", "m", "m/", "44'/x/0", "44''/0", "2147483648", "-1", "44'//0"} {
		_, err := ParsePath(in)
		require.ErrorIs(t, err, ErrDerivation, in)
	}
}

func TestDerivationPath_String(t *testing.T) {
	require.Equal(t, HDPath, DefaultPath.String())

	p, err := ParsePath("m/0h/1/2'")
	require.NoError(t, err)
	require.Equal(t, "0'/1/2'", p.String())
}

func TestDerive_Deterministic(t *testing.T) {
	master, err := bip32.NewMasterKey(testSeed(t))
	require.NoError(t, err)

	k1, err := Derive(master, DefaultPath)
	require.NoError(t, err)
	k2, err := Derive(master, DefaultPath)
	require.NoError(t, err)

	require.Equal(t, testMnemonicKey, hex.EncodeToString(k1.Key))
	require.Equal(t, k1.Key, k2.Key)
	require.Equal(t, byte(len(DefaultPath)), k1.Depth)
	require.True(t, k1.IsPrivate)
}

func TestDerive_KeepsRoot(t *testing.T) {
	master, err := bip32.NewMasterKey(testSeed(t))
	require.NoError(t, err)
	before := append([]byte(nil), master.Key...)

	_, err = Derive(master, DefaultPath)
	require.NoError(t, err)
	require.Equal(t, before, master.Key)
}

func TestDerive_DifferentSeeds(t *testing.T) {
	k1, err := deriveFromSeed(testSeed(t))
	require.NoError(t, err)
	k2, err := deriveFromSeed(testSeed2(t))
	require.NoError(t, err)
	require.NotEqual(t, k1.Key, k2.Key)
}

func TestDerive_StepByStep(t *testing.T) {
	master, err := bip32.NewMasterKey(testSeed(t))
	require.NoError(t, err)

	whole, err := Derive(master, DefaultPath)
	require.NoError(t, err)

	account, err := Derive(master, DefaultPath[:3])
	require.NoError(t, err)
	rest, err := Derive(account, DefaultPath[3:])
	require.NoError(t, err)

	require.Equal(t, whole.Key, rest.Key)
}

func TestDerive_Invalid(t *testing.T) {
	_, err := Derive(nil, DefaultPath)
	require.ErrorIs(t, err, ErrDerivation)

	master, err := bip32.NewMasterKey(testSeed(t))
	require.NoError(t, err)

	_, err = Derive(master, nil)
	require.ErrorIs(t, err, ErrDerivation)

	// Hardened steps need the private key.
	_, err = Derive(master.PublicKey(), DefaultPath)
	require.ErrorIs(t, err, ErrDerivation)
}
