package models

// Network represents the chain a wallet addresses
type Network string

// Supported networks.
const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// Human-readable address prefixes per network.
const (
	PrefixMainnet = "bnb"
	PrefixTestnet = "tbnb"
)

// NetworkFor maps the testnet flag used by the wallet factories to a Network.
func NetworkFor(testnet bool) Network {
	if testnet {
		return NetworkTestnet
	}
	return NetworkMainnet
}

// Prefix returns the bech32 human-readable part for addresses on n.
func (n Network) Prefix() string {
	if n == NetworkTestnet {
		return PrefixTestnet
	}
	return PrefixMainnet
}

// DerivedAddress holds a generated address with its derivation path
type DerivedAddress struct {
	Network        Network `json:"network"`
	Address        string  `json:"address"`
	DerivationPath string  `json:"derivation_path,omitempty"`
	PublicKey      string  `json:"public_key"`
}

// Signature is the result of signing a message: the signer's compressed
// public key and the 64-byte r||s signature, both hex encoded.
type Signature struct {
	PublicKey string `json:"pub_key"`
	Signature string `json:"signature"`
}
