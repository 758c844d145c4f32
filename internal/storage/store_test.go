package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func allStores(t *testing.T) map[string]KeystoreStore {
	t.Helper()
	dir, err := NewDirKeystoreStore(filepath.Join(t.TempDir(), "keystore"))
	require.NoError(t, err)
	return map[string]KeystoreStore{
		"memory": NewMemoryKeystoreStore(),
		"dir":    dir,
	}
}

func TestKeystoreStore_PutGetList(t *testing.T) {
	for name, s := range allStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("bnb1b", []byte(`{"b":1}`)))
			require.NoError(t, s.Put("bnb1a", []byte(`{"a":1}`)))

			got, err := s.Get("bnb1a")
			require.NoError(t, err)
			require.Equal(t, `{"a":1}`, string(got))

			addrs, err := s.List()
			require.NoError(t, err)
			require.Equal(t, []string{"bnb1a", "bnb1b"}, addrs)

			require.NoError(t, s.Put("bnb1a", []byte(`{"a":2}`)))
			got, err = s.Get("bnb1a")
			require.NoError(t, err)
			require.Equal(t, `{"a":2}`, string(got))
		})
	}
}

func TestKeystoreStore_NotFound(t *testing.T) {
	for name, s := range allStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get("bnb1missing")
			require.ErrorIs(t, err, ErrNotFound)
			require.ErrorIs(t, s.Delete("bnb1missing"), ErrNotFound)
		})
	}
}

func TestKeystoreStore_Delete(t *testing.T) {
	for name, s := range allStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("tbnb1x", []byte("{}")))
			require.NoError(t, s.Delete("tbnb1x"))

			_, err := s.Get("tbnb1x")
			require.ErrorIs(t, err, ErrNotFound)

			addrs, err := s.List()
			require.NoError(t, err)
			require.Empty(t, addrs)
		})
	}
}

func TestKeystoreStore_InvalidAddress(t *testing.T) {
	for name, s := range allStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, addr := range []string{"", "../escape", "a/b", `a\b`, ".hidden"} {
				require.Error(t, s.Put(addr, []byte("{}")), addr)

				_, err := s.Get(addr)
				require.Error(t, err, addr)
				require.NotErrorIs(t, err, ErrNotFound, addr)

				err = s.Delete(addr)
				require.Error(t, err, addr)
				require.NotErrorIs(t, err, ErrNotFound, addr)
			}
		})
	}
}

func TestMemoryKeystoreStore_CopiesBytes(t *testing.T) {
	s := NewMemoryKeystoreStore()
	in := []byte("abc")
	require.NoError(t, s.Put("bnb1a", in))
	in[0] = 'x'

	got, err := s.Get("bnb1a")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
	got[0] = 'y'

	again, err := s.Get("bnb1a")
	require.NoError(t, err)
	require.Equal(t, "abc", string(again))
}

func TestDirKeystoreStore_FileMode(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDirKeystoreStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("bnb1a", []byte("{}")))

	info, err := os.Stat(filepath.Join(dir, "bnb1a.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Stray files are not listed.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	addrs, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []string{"bnb1a"}, addrs)
}
