// Package macrosdk is the typed client for the MacroPath api. Every call goes
// through the authenticated gateway and is recorded in the lifecycle tracker.
package macrosdk

import (
	"context"
	"errors"
	"fmt"

	"github.com/macropath/macropath/internal/credstore"
	"github.com/macropath/macropath/internal/gateway"
	"github.com/macropath/macropath/internal/state"
)

// Dispatcher sends api requests. *gateway.Gateway implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, r gateway.Request) (*gateway.Response, error)
}

type SDK struct {
	Auth     *AuthAPI
	MealPlan *MealPlanAPI
	Profile  *ProfileAPI
	Chat     *ChatAPI

	tracker *state.Tracker
}

// New wires the feature apis. store must be the one the dispatcher reads
// tokens from. tracker may be nil.
func New(d Dispatcher, store credstore.Store, tracker *state.Tracker) (*SDK, error) {
	if d == nil {
		return nil, ErrNoDispatcher
	}
	if store == nil {
		return nil, gateway.ErrNoStore
	}

	c := &caller{dispatcher: d, tracker: tracker}
	return &SDK{
		Auth:     newAuthAPI(c, store),
		MealPlan: newMealPlanAPI(c),
		Profile:  newProfileAPI(c),
		Chat:     newChatAPI(c),
		tracker:  tracker,
	}, nil
}

// Tracker returns the lifecycle tracker, nil when none was given.
func (s *SDK) Tracker() *state.Tracker {
	return s.tracker
}

type caller struct {
	dispatcher Dispatcher
	tracker    *state.Tracker
}

// call dispatches r under area and decodes the json answer into T.
// An empty success body decodes to the zero T.
func call[T any](ctx context.Context, c *caller, area state.Area, op string, r gateway.Request) (*T, error) {
	return state.Track(ctx, c.tracker, area, func(ctx context.Context) (*T, error) {
		resp, err := c.dispatcher.Dispatch(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		var out T
		if err := resp.JSON(&out); err != nil && !errors.Is(err, gateway.ErrEmptyBody) {
			return nil, fmt.Errorf("%s: decode response: %w", op, err)
		}
		return &out, nil
	})
}
