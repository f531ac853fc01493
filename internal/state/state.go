// Package state tracks the lifecycle of api requests per feature area so the
// presentation layer can show spinners, results and failures.
package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

type Area string

const (
	AreaAuth            Area = "auth"
	AreaMealPlan        Area = "mealplan"
	AreaProfile         Area = "profile"
	AreaPersonalization Area = "personalization"
	AreaChat            Area = "chat"
)

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is the last known state of an area. Err is set only when failed.
type Snapshot struct {
	Status    Status
	Err       error
	UpdatedAt time.Time
}

// Event is broadcast to subscribers on every transition.
type Event struct {
	Area Area
	Snapshot
}

const subscriberBuffer = 16

type Tracker struct {
	mu     sync.RWMutex
	areas  map[Area]Snapshot
	seen   mapset.Set[Area]
	subs   map[chan Event]struct{}
	nowFn  func() time.Time
	closed bool
}

func NewTracker() *Tracker {
	return &Tracker{
		areas: make(map[Area]Snapshot),
		seen:  mapset.NewSet[Area](),
		subs:  make(map[chan Event]struct{}),
		nowFn: time.Now,
	}
}

func (t *Tracker) Begin(area Area) {
	t.set(area, StatusPending, nil)
}

func (t *Tracker) Succeed(area Area) {
	t.set(area, StatusSucceeded, nil)
}

func (t *Tracker) Fail(area Area, err error) {
	t.set(area, StatusFailed, err)
}

// Get returns the area snapshot, idle if nothing was recorded yet.
func (t *Tracker) Get(area Area) Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.areas[area]
}

// Areas lists every area that has seen a transition.
func (t *Tracker) Areas() []Area {
	return t.seen.ToSlice()
}

// Reset puts every area back to idle, e.g. after logout. It holds the lock
// for the whole pass so a concurrent Begin lands either before or after it.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFn()
	for area := range t.areas {
		t.record(area, Snapshot{Status: StatusIdle, UpdatedAt: now})
	}
}

// Subscribe returns a channel receiving every transition. Events are dropped
// for a subscriber whose buffer is full.
func (t *Tracker) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		close(ch)
		return ch
	}
	t.subs[ch] = struct{}{}
	return ch
}

func (t *Tracker) Unsubscribe(sub <-chan Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subs {
		if ch == sub {
			delete(t.subs, ch)
			close(ch)
			return
		}
	}
}

// Close closes all subscriber channels. Transitions after Close are still
// recorded but not broadcast.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subs {
		close(ch)
	}
	clear(t.subs)
	t.closed = true
}

func (t *Tracker) set(area Area, status Status, err error) {
	snap := Snapshot{Status: status, Err: err, UpdatedAt: t.nowFn()}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(area, snap)
}

// record stores snap and broadcasts it. t.mu must be held.
func (t *Tracker) record(area Area, snap Snapshot) {
	t.areas[area] = snap
	t.seen.Add(area)

	ev := Event{Area: area, Snapshot: snap}
	for ch := range t.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("state event dropped", "area", area, "status", snap.Status)
		}
	}
}

// Track runs fn with the area marked pending and records its outcome.
func Track[T any](ctx context.Context, t *Tracker, area Area, fn func(context.Context) (T, error)) (T, error) {
	if t == nil {
		return fn(ctx)
	}

	t.Begin(area)
	res, err := fn(ctx)
	if err != nil {
		t.Fail(area, err)
		return res, err
	}
	t.Succeed(area)
	return res, nil
}
