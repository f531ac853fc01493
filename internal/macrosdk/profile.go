package macrosdk

import (
	"context"
	"errors"

	"github.com/macropath/macropath/internal/gateway"
	"github.com/macropath/macropath/internal/state"
)

const (
	profileGet          = "/profile/get"
	profileUpdate       = "/profile/update"
	personalizationSave = "/personalization/save"
)

var (
	ErrEmptyUpdate  = errors.New("sdk: profile update has no fields")
	ErrEmptyAnswers = errors.New("sdk: no personalization answers")
)

type ProfileAPI struct {
	c *caller
}

func newProfileAPI(c *caller) *ProfileAPI {
	return &ProfileAPI{c: c}
}

func (p *ProfileAPI) Get(ctx context.Context) (*Profile, error) {
	resp, err := call[ProfileResponse](ctx, p.c, state.AreaProfile, "profile get", gateway.Get(profileGet))
	if err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

func (p *ProfileAPI) Update(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	if update.Empty() {
		return nil, ErrEmptyUpdate
	}

	resp, err := call[ProfileResponse](ctx, p.c, state.AreaProfile, "profile update", gateway.Put(profileUpdate, &update))
	if err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

// SavePersonalization stores the onboarding answers used for plan generation.
func (p *ProfileAPI) SavePersonalization(ctx context.Context, answers []Answer) (*MessageResponse, error) {
	if len(answers) == 0 {
		return nil, ErrEmptyAnswers
	}
	return call[MessageResponse](ctx, p.c, state.AreaPersonalization, "personalization save",
		gateway.Post(personalizationSave, &PersonalizationRequest{Answers: answers}))
}
