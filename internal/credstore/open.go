package credstore

import (
	"fmt"

	"github.com/macropath/macropath/internal/db"
)

// Kind selects a Store implementation
type Kind string

const (
	KindFile   Kind = "file"
	KindSqlite Kind = "sqlite"
	KindMemory Kind = "memory"
)

func (k Kind) Valid() bool {
	switch k {
	case KindFile, KindSqlite, KindMemory:
		return true
	}
	return false
}

// Open builds the store of the given kind. secret is only used by KindFile.
func Open(kind Kind, path string, secret []byte) (StoreCloser, error) {
	switch kind {
	case KindMemory:
		return NewMemoryStore(), nil

	case KindFile:
		return NewFileStore(path, secret)

	case KindSqlite:
		database, err := db.NewSqliteDB(db.WithPath(path), db.WithMaxOpenConns(1))
		if err != nil {
			return nil, fmt.Errorf("credstore: %w", err)
		}
		store, err := NewSqliteStore(database)
		if err != nil {
			database.Close()
			return nil, err
		}
		return store, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
