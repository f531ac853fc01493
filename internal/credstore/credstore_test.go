package credstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores(t *testing.T) map[string]StoreCloser {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := Open(KindFile, filepath.Join(dir, "credentials.enc"), []byte("device-secret"))
	require.NoError(t, err)

	sqliteStore, err := Open(KindSqlite, filepath.Join(dir, "credentials.db"), nil)
	require.NoError(t, err)

	memStore, err := Open(KindMemory, "", nil)
	require.NoError(t, err)

	stores := map[string]StoreCloser{
		"memory": memStore,
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStores_KeyValue(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			_, err := store.Get(ctx, KeyAccessToken)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, KeyAccessToken, "a1"))
			got, err := store.Get(ctx, KeyAccessToken)
			require.NoError(t, err)
			assert.Equal(t, "a1", got)

			require.NoError(t, store.Set(ctx, KeyAccessToken, "a2"))
			got, err = store.Get(ctx, KeyAccessToken)
			require.NoError(t, err)
			assert.Equal(t, "a2", got)

			require.NoError(t, store.Remove(ctx, KeyAccessToken))
			_, err = store.Get(ctx, KeyAccessToken)
			assert.ErrorIs(t, err, ErrNotFound)

			// removing twice is fine
			assert.NoError(t, store.Remove(ctx, KeyAccessToken))
		})
	}
}

func TestStores_Pair(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			_, err := LoadPair(ctx, store)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, SavePair(ctx, store, Pair{AccessToken: "a1", RefreshToken: "r1"}))
			pair, err := LoadPair(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, Pair{AccessToken: "a1", RefreshToken: "r1"}, pair)

			require.NoError(t, SavePair(ctx, store, Pair{AccessToken: "a2", RefreshToken: "r2"}))
			pair, err = LoadPair(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, "a2", pair.AccessToken)
			assert.Equal(t, "r2", pair.RefreshToken)

			assert.ErrorIs(t, SavePair(ctx, store, Pair{AccessToken: "a3"}), ErrIncompletePair)

			require.NoError(t, ClearPair(ctx, store))
			_, err = store.Get(ctx, KeyRefreshToken)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFileStore_EncryptedAndPersistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	ctx := t.Context()

	first, err := NewFileStore(path, []byte("device-secret"))
	require.NoError(t, err)
	require.NoError(t, first.SetPair(ctx, Pair{AccessToken: "access-token-value", RefreshToken: "refresh-token-value"}))
	require.NoError(t, first.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "access-token-value")
	assert.NotContains(t, string(raw), KeyRefreshToken)

	second, err := NewFileStore(path, []byte("device-secret"))
	require.NoError(t, err)
	defer second.Close()
	pair, err := LoadPair(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token-value", pair.RefreshToken)

	other, err := NewFileStore(path, []byte("another-device"))
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Get(ctx, KeyAccessToken)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestFileStore_RejectsBadInput(t *testing.T) {
	_, err := NewFileStore("", []byte("x"))
	assert.Error(t, err)

	_, err = NewFileStore(filepath.Join(t.TempDir(), "c.enc"), nil)
	assert.Error(t, err)
}

func TestFileStore_CancelledContext(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "c.enc"), []byte("x"))
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, store.Set(ctx, KeyAccessToken, "a1"), context.Canceled)
}

func TestOpen_UnknownKind(t *testing.T) {
	_, err := Open(Kind("keychain"), "", nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.False(t, Kind("keychain").Valid())
	assert.True(t, KindSqlite.Valid())
}

// kvOnly hides SetPair so SavePair takes the two-write path.
type kvOnly struct {
	inner      *MemoryStore
	failOnKey  string
	failRemove bool
}

var errLocked = errors.New("store locked")

func (k *kvOnly) Get(ctx context.Context, key string) (string, error) { return k.inner.Get(ctx, key) }
func (k *kvOnly) Remove(ctx context.Context, key string) error {
	if k.failRemove {
		return errLocked
	}
	return k.inner.Remove(ctx, key)
}
func (k *kvOnly) Set(ctx context.Context, key, value string) error {
	if key == k.failOnKey {
		return errors.New("disk full")
	}
	return k.inner.Set(ctx, key, value)
}

func TestSavePair_FallbackRollsBack(t *testing.T) {
	ctx := t.Context()

	t.Run("restores previous access token", func(t *testing.T) {
		store := &kvOnly{inner: NewMemoryStore()}
		require.NoError(t, SavePair(ctx, store, Pair{AccessToken: "a1", RefreshToken: "r1"}))

		store.failOnKey = KeyRefreshToken
		err := SavePair(ctx, store, Pair{AccessToken: "a2", RefreshToken: "r2"})
		require.Error(t, err)

		pair, err := LoadPair(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, Pair{AccessToken: "a1", RefreshToken: "r1"}, pair)
	})

	t.Run("removes access token when none existed", func(t *testing.T) {
		store := &kvOnly{inner: NewMemoryStore(), failOnKey: KeyRefreshToken}
		require.Error(t, SavePair(ctx, store, Pair{AccessToken: "a1", RefreshToken: "r1"}))

		_, err := store.Get(ctx, KeyAccessToken)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("reports a failed rollback", func(t *testing.T) {
		store := &kvOnly{inner: NewMemoryStore(), failOnKey: KeyRefreshToken, failRemove: true}
		err := SavePair(ctx, store, Pair{AccessToken: "a1", RefreshToken: "r1"})
		require.Error(t, err)

		assert.ErrorIs(t, err, errLocked)
		assert.ErrorContains(t, err, "save "+KeyRefreshToken)
		assert.ErrorContains(t, err, "rollback "+KeyAccessToken)
	})
}
