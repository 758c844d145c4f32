package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/olehkaliuzhnyi/bnb-wallet/internal/wallet"
	"github.com/olehkaliuzhnyi/bnb-wallet/pkg/models"
)

var (
	passwordFlag = cli.StringFlag{
		Name:   "password",
		Usage:  "wallet or keystore password; prompted for when unset",
		EnvVar: "BNB_PASSWORD",
	}
	mnemonicPasswordFlag = cli.StringFlag{
		Name:  "password",
		Usage: "optional BIP-39 mnemonic password",
	}
	languageFlag = cli.StringFlag{
		Name:  "language",
		Usage: "mnemonic word list (english, japanese, korean, spanish, chinese_simplified, chinese_traditional, french, italian, czech)",
	}
	saveFlag = cli.BoolFlag{
		Name:  "save",
		Usage: "encrypt the key with the password and store it in the keystore directory",
	}
	payloadFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "payload",
			Usage: "JSON message; read from --payload_file or stdin when unset",
		},
		cli.StringFlag{
			Name:  "payload_file",
			Usage: "file holding the JSON message",
		},
	}
)

var createCommand = cli.Command{
	Name:     "create",
	Category: "Wallet",
	Usage:    "Derive a wallet from a password.",
	Description: `
	Derives the key at m/44'/714'/0'/0/0 from a root seeded by the password.
	The same password always gives the same wallet.`,
	Flags:  []cli.Flag{passwordFlag, saveFlag},
	Action: create,
}

func create(c *cli.Context) error {
	st := state(c)
	password, err := readSecret(c, "password", "Wallet password: ", true)
	if err != nil {
		return err
	}

	w, err := wallet.Create(password, st.cfg.Testnet)
	if err != nil {
		return err
	}
	defer w.Zero()

	if c.Bool("save") {
		if err := st.saveKeystore(w, password); err != nil {
			return err
		}
	}
	return printInfo(c, w)
}

var createMnemonicCommand = cli.Command{
	Name:     "create-mnemonic",
	Category: "Wallet",
	Usage:    "Generate a 24-word mnemonic and its wallet.",
	Description: `
	The mnemonic is printed once and never stored. Write it down.`,
	Flags:  []cli.Flag{languageFlag, mnemonicPasswordFlag},
	Action: createMnemonic,
}

func createMnemonic(c *cli.Context) error {
	st := state(c)
	lang, err := st.language(c)
	if err != nil {
		return err
	}

	w, words, err := wallet.CreateWithMnemonic(lang, c.String("password"), st.cfg.Testnet)
	if err != nil {
		return err
	}
	defer w.Zero()

	info, err := w.Info()
	if err != nil {
		return err
	}
	return printJSON(c, struct {
		*models.DerivedAddress
		Mnemonic string `json:"mnemonic"`
	}{info, words})
}

var createKeystoreCommand = cli.Command{
	Name:     "create-keystore",
	Category: "Keystore",
	Usage:    "Create a new key and store it as an encrypted keystore.",
	Flags:    []cli.Flag{passwordFlag},
	Action:   createKeystore,
}

func createKeystore(c *cli.Context) error {
	st := state(c)
	password, err := readSecret(c, "password", "Keystore password: ", true)
	if err != nil {
		return err
	}

	ks, err := wallet.CreateKeystore(password, st.keystoreParams())
	if err != nil {
		return err
	}
	w, err := wallet.RecoverFromKeystore(ks, password, st.cfg.Testnet)
	if err != nil {
		return err
	}
	defer w.Zero()

	if err := st.putKeystore(w, ks); err != nil {
		return err
	}
	return printInfo(c, w)
}

var recoverKeystoreCommand = cli.Command{
	Name:      "recover-keystore",
	Category:  "Keystore",
	Usage:     "Open an encrypted keystore.",
	ArgsUsage: "[--file path | --address addr]",
	Flags: []cli.Flag{
		passwordFlag,
		cli.StringFlag{Name: "file", Usage: "keystore JSON file"},
		cli.StringFlag{Name: "address", Usage: "address of a keystore in the keystore directory"},
	},
	Action: recoverKeystore,
}

func recoverKeystore(c *cli.Context) error {
	w, err := openKeystore(c)
	if err != nil {
		return err
	}
	defer w.Zero()
	return printInfo(c, w)
}

var recoverKeyCommand = cli.Command{
	Name:     "recover-key",
	Category: "Wallet",
	Usage:    "Import a private key (hex or WIF).",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:   "key",
			Usage:  "private key; prompted for when unset",
			EnvVar: "BNB_PRIVATE_KEY",
		},
		passwordFlag,
		saveFlag,
	},
	Action: recoverKey,
}

func recoverKey(c *cli.Context) error {
	st := state(c)
	key, err := readSecret(c, "key", "Private key: ", false)
	if err != nil {
		return err
	}

	w, err := wallet.RecoverFromPrivateKey(key, st.cfg.Testnet)
	if err != nil {
		return err
	}
	defer w.Zero()

	if c.Bool("save") {
		password, err := readSecret(c, "password", "Keystore password: ", true)
		if err != nil {
			return err
		}
		if err := st.saveKeystore(w, password); err != nil {
			return err
		}
	}
	return printInfo(c, w)
}

var recoverMnemonicCommand = cli.Command{
	Name:     "recover-mnemonic",
	Category: "Wallet",
	Usage:    "Rebuild a wallet from its mnemonic.",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:   "mnemonic",
			Usage:  "space separated mnemonic words; prompted for when unset",
			EnvVar: "BNB_MNEMONIC",
		},
		mnemonicPasswordFlag,
		languageFlag,
	},
	Action: recoverMnemonic,
}

func recoverMnemonic(c *cli.Context) error {
	st := state(c)
	// An empty language lets the wallet detect the word list.
	var lang wallet.Language
	if c.IsSet("language") {
		parsed, err := wallet.ParseLanguage(c.String("language"))
		if err != nil {
			return err
		}
		lang = parsed
	}
	words, err := readSecret(c, "mnemonic", "Mnemonic: ", false)
	if err != nil {
		return err
	}

	src := wallet.MnemonicSource{Words: words, Password: c.String("password"), Language: lang}
	w, err := wallet.New(src, st.cfg.Testnet)
	if err != nil {
		return err
	}
	defer w.Zero()
	return printInfo(c, w)
}

var signCommand = cli.Command{
	Name:     "sign",
	Category: "Signing",
	Usage:    "Sign a JSON message.",
	Description: `
	The message is serialised canonically (sorted keys), hashed with SHA-256
	and signed with the key given by --key, --file or --address.`,
	Flags: append([]cli.Flag{
		cli.StringFlag{Name: "key", Usage: "private key (hex or WIF)", EnvVar: "BNB_PRIVATE_KEY"},
		cli.StringFlag{Name: "file", Usage: "keystore JSON file"},
		cli.StringFlag{Name: "address", Usage: "address of a keystore in the keystore directory"},
		passwordFlag,
	}, payloadFlags...),
	Action: sign,
}

func sign(c *cli.Context) error {
	st := state(c)

	var (
		w   *wallet.Wallet
		err error
	)
	if c.IsSet("key") {
		w, err = wallet.RecoverFromPrivateKey(c.String("key"), st.cfg.Testnet)
	} else {
		w, err = openKeystore(c)
	}
	if err != nil {
		return err
	}
	defer w.Zero()

	payload, err := st.readPayload(c)
	if err != nil {
		return err
	}
	sig, err := w.SignTransaction(payload)
	if err != nil {
		return err
	}

	addr, _ := w.Address()
	st.logger.Infow("message signed", "address", addr)
	return printJSON(c, sig)
}

var verifyCommand = cli.Command{
	Name:     "verify",
	Category: "Signing",
	Usage:    "Verify a signature over a JSON message.",
	Flags: append([]cli.Flag{
		cli.StringFlag{Name: "pubkey", Usage: "compressed public key hex"},
		cli.StringFlag{Name: "signature", Usage: "64-byte r||s signature hex"},
	}, payloadFlags...),
	Action: verify,
}

var (
	errInvalidSignature = errors.New("signature is not valid")
	errTrailingPayload  = errors.New("decode payload: unexpected data after the JSON message")
)

func verify(c *cli.Context) error {
	st := state(c)
	if !c.IsSet("pubkey") || !c.IsSet("signature") {
		return errors.New("--pubkey and --signature are required")
	}

	payload, err := st.readPayload(c)
	if err != nil {
		return err
	}
	sig := &models.Signature{
		PublicKey: c.String("pubkey"),
		Signature: c.String("signature"),
	}

	verr := wallet.Verify(sig, payload)
	if perr := printJSON(c, map[string]bool{"valid": verr == nil}); perr != nil {
		return perr
	}
	if verr != nil {
		return fmt.Errorf("%w: %v", errInvalidSignature, verr)
	}
	return nil
}

// openKeystore decrypts the keystore named by --file or --address.
func openKeystore(c *cli.Context) (*wallet.Wallet, error) {
	st := state(c)

	var (
		ks  []byte
		err error
	)
	switch {
	case c.IsSet("file"):
		ks, err = os.ReadFile(c.String("file"))
	case c.IsSet("address"):
		store, serr := st.store()
		if serr != nil {
			return nil, serr
		}
		ks, err = store.Get(c.String("address"))
	default:
		return nil, errors.New("one of --key, --file or --address is required")
	}
	if err != nil {
		return nil, err
	}

	password, err := readSecret(c, "password", "Keystore password: ", false)
	if err != nil {
		return nil, err
	}
	return wallet.RecoverFromKeystore(ks, password, st.cfg.Testnet)
}

func (st *appState) saveKeystore(w *wallet.Wallet, password string) error {
	ks, err := w.Keystore(password, st.keystoreParams())
	if err != nil {
		return err
	}
	return st.putKeystore(w, ks)
}

func (st *appState) putKeystore(w *wallet.Wallet, ks []byte) error {
	addr, err := w.Address()
	if err != nil {
		return err
	}
	store, err := st.store()
	if err != nil {
		return err
	}
	if err := store.Put(addr, ks); err != nil {
		return err
	}
	st.logger.Infow("keystore saved", "address", addr, "dir", st.cfg.KeystoreDir)
	return nil
}

func (st *appState) language(c *cli.Context) (wallet.Language, error) {
	if c.IsSet("language") {
		return wallet.ParseLanguage(c.String("language"))
	}
	return wallet.ParseLanguage(st.cfg.MnemonicLanguage)
}

// readPayload decodes the JSON message from --payload, --payload_file or
// stdin. The input must hold exactly one JSON value. Numbers are kept as json.Number so integers of any size are
// signed as written.
func (st *appState) readPayload(c *cli.Context) (any, error) {
	var r io.Reader
	switch {
	case c.IsSet("payload"):
		r = strings.NewReader(c.String("payload"))
	case c.IsSet("payload_file"):
		raw, err := os.ReadFile(c.String("payload_file"))
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(raw)
	default:
		r = st.reader()
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingPayload
	}
	return payload, nil
}

func printInfo(c *cli.Context, w *wallet.Wallet) error {
	info, err := w.Info()
	if err != nil {
		return err
	}
	return printJSON(c, info)
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
