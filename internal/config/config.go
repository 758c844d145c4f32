package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix is prepended to every variable name, e.g. BNB_TESTNET.
const envPrefix = "BNB"

// Config holds all configurable parameters for the wallet tool.
type Config struct {
	// Network
	Testnet bool `envconfig:"TESTNET" default:"false"`

	// Mnemonic generation
	MnemonicLanguage string `envconfig:"MNEMONIC_LANGUAGE" default:"english"`

	// Keystore encryption cost (scrypt N and P) and storage location
	ScryptN     int    `envconfig:"KEYSTORE_SCRYPT_N" default:"262144"`
	ScryptP     int    `envconfig:"KEYSTORE_SCRYPT_P" default:"1"`
	KeystoreDir string `envconfig:"KEYSTORE_DIR" default:"keystore"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"` // console, json or logfmt
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Testnet:          false,
		MnemonicLanguage: "english",
		ScryptN:          1 << 18,
		ScryptP:          1,
		KeystoreDir:      "keystore",
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// FromEnv returns a Config populated from BNB_* environment variables,
// falling back to defaults for unset values. Variables in envFiles (if any
// exist) are loaded first without overriding the process environment.
func FromEnv(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges envconfig cannot express.
func (c Config) Validate() error {
	if c.ScryptN < 2 || c.ScryptN&(c.ScryptN-1) != 0 {
		return fmt.Errorf("keystore scrypt N must be a power of two > 1, got %d", c.ScryptN)
	}
	if c.ScryptP < 1 {
		return fmt.Errorf("keystore scrypt P must be positive, got %d", c.ScryptP)
	}
	switch c.LogFormat {
	case "console", "json", "logfmt":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}
