package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("BNB_TESTNET", "true")
	t.Setenv("BNB_MNEMONIC_LANGUAGE", "japanese")
	t.Setenv("BNB_KEYSTORE_SCRYPT_N", "4096")
	t.Setenv("BNB_KEYSTORE_SCRYPT_P", "6")
	t.Setenv("BNB_LOG_FORMAT", "json")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.True(t, cfg.Testnet)
	require.Equal(t, "japanese", cfg.MnemonicLanguage)
	require.Equal(t, 4096, cfg.ScryptN)
	require.Equal(t, 6, cfg.ScryptP)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("BNB_KEYSTORE_SCRYPT_N", "1000")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnv_BadType(t *testing.T) {
	t.Setenv("BNB_TESTNET", "maybe")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnv_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BNB_KEYSTORE_DIR=/tmp/ks-from-dotenv\n"), 0o600))
	t.Setenv("BNB_KEYSTORE_DIR", "")
	os.Unsetenv("BNB_KEYSTORE_DIR")

	cfg, err := FromEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "/tmp/ks-from-dotenv", cfg.KeystoreDir)
}
