package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/olehkaliuzhnyi/bnb-wallet/internal/config"
	"github.com/olehkaliuzhnyi/bnb-wallet/internal/logging"
	"github.com/olehkaliuzhnyi/bnb-wallet/internal/storage"
	"github.com/olehkaliuzhnyi/bnb-wallet/internal/wallet"
)

// Version is set with -ldflags at build time.
var Version = "dev"

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[bnbwallet] %v\n", err)
	os.Exit(1)
}

func main() {
	app := newApp(os.Stdin)
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// appState is shared by the commands of one run. It is filled in by the
// app's Before hook.
type appState struct {
	stdin   io.Reader
	in      *bufio.Reader
	cfg     config.Config
	logger  *zap.SugaredLogger
	restore func()
}

func newApp(stdin io.Reader) *cli.App {
	st := &appState{stdin: stdin}

	app := cli.NewApp()
	app.Name = "bnbwallet"
	app.Version = Version
	app.Usage = "create, recover and sign with BNB Beacon Chain wallets"
	app.ErrWriter = os.Stderr
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:   "testnet",
			Usage:  "use testnet (tbnb) addresses",
			EnvVar: "BNB_TESTNET",
		},
		cli.StringFlag{
			Name:  "envfile",
			Value: ".env",
			Usage: "dotenv file read before the environment",
		},
		cli.StringFlag{
			Name:  "keystoredir",
			Usage: "directory holding <address>.json keystores (overrides BNB_KEYSTORE_DIR)",
		},
	}
	app.Commands = []cli.Command{
		createCommand,
		createMnemonicCommand,
		createKeystoreCommand,
		recoverKeystoreCommand,
		recoverKeyCommand,
		recoverMnemonicCommand,
		signCommand,
		verifyCommand,
	}
	app.Metadata = map[string]interface{}{stateKey: st}

	app.Before = func(c *cli.Context) error {
		cfg, err := config.FromEnv(c.GlobalString("envfile"))
		if err != nil {
			return err
		}
		if c.GlobalBool("testnet") {
			cfg.Testnet = true
		}
		if dir := c.GlobalString("keystoredir"); dir != "" {
			cfg.KeystoreDir = dir
		}

		logger, err := logging.NewWithSyncer(cfg.LogLevel, cfg.LogFormat, zapcore.AddSync(c.App.ErrWriter))
		if err != nil {
			return err
		}
		st.cfg = cfg
		st.restore = logging.Install(logger)
		st.logger = logger.Named("cli")
		return nil
	}
	app.After = func(c *cli.Context) error {
		if st.logger != nil {
			_ = st.logger.Sync()
		}
		if st.restore != nil {
			st.restore()
		}
		return nil
	}

	return app
}

const stateKey = "state"

func state(c *cli.Context) *appState {
	return c.App.Metadata[stateKey].(*appState)
}

func (st *appState) keystoreParams() wallet.KeystoreParams {
	return wallet.KeystoreParams{ScryptN: st.cfg.ScryptN, ScryptP: st.cfg.ScryptP}
}

func (st *appState) store() (*storage.DirKeystoreStore, error) {
	return storage.NewDirKeystoreStore(st.cfg.KeystoreDir)
}
