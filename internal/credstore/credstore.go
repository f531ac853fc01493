// Package credstore persists the access/refresh credential pair on the device.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Fixed keys the credential pair is stored under.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

var (
	ErrNotFound       = errors.New("credstore: key not found")
	ErrIncompletePair = errors.New("credstore: credential pair is incomplete")
	ErrUnknownKind    = errors.New("credstore: unknown store kind")
)

// Store is a key/value store for credentials, safe for concurrent use.
// Get returns ErrNotFound for keys that were never set or were removed.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// PairStore is implemented by stores that can write both credentials in one
// step. SavePair falls back to two writes for stores that do not.
type PairStore interface {
	Store
	SetPair(ctx context.Context, pair Pair) error
}

// StoreCloser is a Store holding resources that must be released.
type StoreCloser interface {
	Store
	Close() error
}

// Pair is the access and refresh credential issued together by the api.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

func (p Pair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// LoadPair reads both credentials. A missing key yields ErrNotFound.
func LoadPair(ctx context.Context, s Store) (Pair, error) {
	access, err := s.Get(ctx, KeyAccessToken)
	if err != nil {
		return Pair{}, fmt.Errorf("load %s: %w", KeyAccessToken, err)
	}

	refresh, err := s.Get(ctx, KeyRefreshToken)
	if err != nil {
		return Pair{}, fmt.Errorf("load %s: %w", KeyRefreshToken, err)
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// SavePair writes both credentials or, from the caller's point of view, neither.
func SavePair(ctx context.Context, s Store, pair Pair) error {
	if !pair.Valid() {
		return ErrIncompletePair
	}

	if ps, ok := s.(PairStore); ok {
		return ps.SetPair(ctx, pair)
	}

	prevAccess, prevErr := s.Get(ctx, KeyAccessToken)

	if err := s.Set(ctx, KeyAccessToken, pair.AccessToken); err != nil {
		return fmt.Errorf("save %s: %w", KeyAccessToken, err)
	}

	if err := s.Set(ctx, KeyRefreshToken, pair.RefreshToken); err != nil {
		saveErr := fmt.Errorf("save %s: %w", KeyRefreshToken, err)

		// put the old access token back so the stored pair stays consistent
		var rbErr error
		if prevErr == nil {
			rbErr = s.Set(ctx, KeyAccessToken, prevAccess)
		} else {
			rbErr = s.Remove(ctx, KeyAccessToken)
		}
		if rbErr != nil {
			slog.ErrorContext(ctx, "credential rollback failed, stored pair is inconsistent", "key", KeyAccessToken, "error", rbErr)
			return errors.Join(saveErr, fmt.Errorf("rollback %s: %w", KeyAccessToken, rbErr))
		}
		return saveErr
	}

	return nil
}

// ClearPair removes both credentials. Missing keys are not an error.
func ClearPair(ctx context.Context, s Store) error {
	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken} {
		if err := s.Remove(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
