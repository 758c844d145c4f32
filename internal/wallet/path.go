package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"
)

// HDPath is the BIP-44 path every passphrase and mnemonic wallet derives:
// purpose 44', coin type 714' (BNB), account 0', external chain 0, index 0.
const HDPath = "44'/714'/0'/0/0"

// DerivationPath is a parsed sequence of BIP-32 child indices. Hardened
// segments carry bip32.FirstHardenedChild.
type DerivationPath []uint32

// DefaultPath is HDPath in parsed form.
var DefaultPath = DerivationPath{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild + 714,
	bip32.FirstHardenedChild + 0,
	0,
	0,
}

// ParsePath parses a path such as "44'/714'/0'/0/0" or "m/44'/714'/0'/0/0".
// Hardened segments may be marked with ' or h.
func ParsePath(s string) (DerivationPath, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "m/")
	if s == "" || s == "m" {
		return nil, fmt.Errorf("%w: empty derivation path", ErrDerivation)
	}

	parts := strings.Split(s, "/")
	path := make(DerivationPath, 0, len(parts))
	for i, part := range parts {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil || n >= uint64(bip32.FirstHardenedChild) {
			return nil, fmt.Errorf("%w: bad path segment %d %q", ErrDerivation, i, parts[i])
		}
		idx := uint32(n)
		if hardened {
			idx += bip32.FirstHardenedChild
		}
		path = append(path, idx)
	}
	return path, nil
}

// String renders the path without the "m/" prefix, hardened segments
// marked with '.
func (p DerivationPath) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		if idx >= bip32.FirstHardenedChild {
			parts[i] = strconv.FormatUint(uint64(idx-bip32.FirstHardenedChild), 10) + "'"
		} else {
			parts[i] = strconv.FormatUint(uint64(idx), 10)
		}
	}
	return strings.Join(parts, "/")
}

// Derive walks root along path one child at a time and returns the final
// child key. Intermediate private keys are wiped once their child exists.
// Root is left untouched.
func Derive(root *bip32.Key, path DerivationPath) (*bip32.Key, error) {
	if root == nil || !root.IsPrivate {
		return nil, fmt.Errorf("%w: root key is not a private key", ErrDerivation)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty derivation path", ErrDerivation)
	}

	key := root
	for depth, idx := range path {
		child, err := key.NewChildKey(idx)
		if key != root {
			clear(key.Key)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: derive %s at depth %d: %v", ErrDerivation, path[:depth+1], depth+1, err)
		}
		key = child
	}
	return key, nil
}

// deriveFromSeed builds a BIP-32 master key from seed and derives the
// working key at DefaultPath. The master key is wiped before returning.
func deriveFromSeed(seed []byte) (*bip32.Key, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: master key: %v", ErrDerivation, err)
	}
	defer clear(master.Key)

	return Derive(master, DefaultPath)
}
