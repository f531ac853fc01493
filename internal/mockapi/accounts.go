package mockapi

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/macropath/macropath/internal/macrosdk"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists   = errors.New("account already exists")
	ErrUserNotFound = errors.New("account not found")
)

type account struct {
	user         macrosdk.User
	passwordHash []byte
	profile      macrosdk.Profile
	answers      []macrosdk.Answer
	plans        []macrosdk.MealPlan
	chat         []macrosdk.ChatMessage
}

// accounts is the fixture's in-memory user database keyed by email.
type accounts struct {
	mu      sync.RWMutex
	byEmail map[string]*account
	byID    map[string]*account
	cost    int
}

func newAccounts(bcryptCost int) *accounts {
	return &accounts{
		byEmail: make(map[string]*account),
		byID:    make(map[string]*account),
		cost:    bcryptCost,
	}
}

func (a *accounts) create(name, email, password string, verified bool) (macrosdk.User, error) {
	var hash []byte
	if password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), a.cost)
		if err != nil {
			return macrosdk.User{}, err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.byEmail[email]; ok {
		return macrosdk.User{}, ErrUserExists
	}

	acc := &account{
		user:         macrosdk.User{ID: uuid.NewString(), Name: name, Email: email, Verified: verified},
		passwordHash: hash,
	}
	acc.profile = macrosdk.Profile{ID: acc.user.ID, Name: name, Email: email}
	a.byEmail[email] = acc
	a.byID[acc.user.ID] = acc
	return acc.user, nil
}

func (a *accounts) byEmailAddr(email string) (macrosdk.User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	acc, ok := a.byEmail[email]
	if !ok {
		return macrosdk.User{}, false
	}
	return acc.user, true
}

// checkPassword runs bcrypt even for unknown emails to keep timing flat.
func (a *accounts) checkPassword(email, password string) (macrosdk.User, bool) {
	a.mu.RLock()
	acc, ok := a.byEmail[email]
	var hash []byte
	if ok {
		hash = acc.passwordHash
	}
	a.mu.RUnlock()

	if len(hash) == 0 {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return macrosdk.User{}, false
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return macrosdk.User{}, false
	}
	return acc.user, true
}

func (a *accounts) setPassword(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return err
	}
	return a.update(email, func(acc *account) { acc.passwordHash = hash })
}

func (a *accounts) markVerified(email string) (macrosdk.User, error) {
	var user macrosdk.User
	err := a.update(email, func(acc *account) {
		acc.user.Verified = true
		user = acc.user
	})
	return user, err
}

func (a *accounts) update(email string, fn func(*account)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byEmail[email]
	if !ok {
		return ErrUserNotFound
	}
	fn(acc)
	return nil
}

// withID runs fn on the account of an authenticated user.
func (a *accounts) withID(id string, fn func(*account) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	return fn(acc)
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("macropath"), bcrypt.MinCost)

func stamp(now time.Time) time.Time {
	return now.UTC().Truncate(time.Second)
}
