package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/gtank/cryptopasta"
	"github.com/macropath/macropath/internal/utils"
)

const fileKeyTag = "macropath/credstore/v1"

var ErrDecrypt = errors.New("credstore: cannot decrypt credentials file")

// FileStore keeps all credentials in one AES-GCM encrypted json document.
// Writes go through a temp file and rename; a lock file serializes
// processes sharing the same path.
type FileStore struct {
	path string
	key  *[32]byte
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileStore derives the encryption key from secret, usually the device id.
func NewFileStore(path string, secret []byte) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("credstore: file path is empty")
	}
	if len(secret) == 0 {
		return nil, errors.New("credstore: secret is empty")
	}

	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("credstore: prepare dir: %w", err)
	}

	key := &[32]byte{}
	copy(key[:], cryptopasta.Hash(fileKeyTag, secret))

	return &FileStore{
		path: path,
		key:  key,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := f.withLock(ctx, func() error {
		doc, err := f.read()
		if err != nil {
			return err
		}
		v, ok := doc[key]
		if !ok {
			return ErrNotFound
		}
		value = v
		return nil
	})
	return value, err
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	return f.update(ctx, func(doc map[string]string) {
		doc[key] = value
	})
}

func (f *FileStore) Remove(ctx context.Context, key string) error {
	return f.update(ctx, func(doc map[string]string) {
		delete(doc, key)
	})
}

func (f *FileStore) SetPair(ctx context.Context, pair Pair) error {
	if !pair.Valid() {
		return ErrIncompletePair
	}
	return f.update(ctx, func(doc map[string]string) {
		doc[KeyAccessToken] = pair.AccessToken
		doc[KeyRefreshToken] = pair.RefreshToken
	})
}

func (f *FileStore) Close() error {
	return f.lock.Close()
}

func (f *FileStore) update(ctx context.Context, mutate func(map[string]string)) error {
	return f.withLock(ctx, func() error {
		doc, err := f.read()
		if err != nil {
			return err
		}
		mutate(doc)
		return f.write(doc)
	})
}

func (f *FileStore) withLock(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("credstore: lock %s: %w", f.lock.Path(), err)
	}
	defer f.lock.Unlock()

	return fn()
}

func (f *FileStore) read() (map[string]string, error) {
	ciphertext, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	} else if err != nil {
		return nil, fmt.Errorf("credstore: read: %w", err)
	}

	plaintext, err := cryptopasta.Decrypt(ciphertext, f.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	doc := make(map[string]string)
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return nil, fmt.Errorf("credstore: decode: %w", err)
	}
	return doc, nil
}

func (f *FileStore) write(doc map[string]string) error {
	plaintext, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("credstore: encode: %w", err)
	}

	ciphertext, err := cryptopasta.Encrypt(plaintext, f.key)
	if err != nil {
		return fmt.Errorf("credstore: encrypt: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("credstore: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(ciphertext); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credstore: close temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("credstore: replace: %w", err)
	}
	return nil
}

var _ PairStore = (*FileStore)(nil)
var _ StoreCloser = (*FileStore)(nil)
