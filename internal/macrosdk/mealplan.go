package macrosdk

import (
	"context"
	"fmt"
	"time"

	"github.com/macropath/macropath/internal/gateway"
	"github.com/macropath/macropath/internal/state"
)

const (
	mealPlansGet        = "/mealPlans/get"
	mealPlansGenerate   = "/mealPlans/generate"
	mealPlansRegenerate = "/mealPlans/regenerate"
)

type MealPlanAPI struct {
	c *caller
}

func newMealPlanAPI(c *caller) *MealPlanAPI {
	return &MealPlanAPI{c: c}
}

// Get returns the plans of the week starting at week. A zero week returns
// every stored plan.
func (m *MealPlanAPI) Get(ctx context.Context, week time.Time) ([]MealPlan, error) {
	body := &GetMealPlansRequest{}
	if !week.IsZero() {
		body.WeekStart = week.Format(WeekLayout)
	}

	resp, err := call[MealPlansResponse](ctx, m.c, state.AreaMealPlan, "mealplan get", gateway.Post(mealPlansGet, body))
	if err != nil {
		return nil, err
	}
	return resp.MealPlans, nil
}

func (m *MealPlanAPI) Generate(ctx context.Context, req *GenerateRequest) (*MealPlan, error) {
	if req == nil {
		req = &GenerateRequest{}
	}
	if req.WeekStart == "" {
		req.WeekStart = StartOfWeek(time.Now()).Format(WeekLayout)
	} else if _, err := time.Parse(WeekLayout, req.WeekStart); err != nil {
		return nil, fmt.Errorf("mealplan generate: week start: %w", err)
	}

	resp, err := call[MealPlanResponse](ctx, m.c, state.AreaMealPlan, "mealplan generate", gateway.Post(mealPlansGenerate, req))
	if err != nil {
		return nil, err
	}
	return &resp.MealPlan, nil
}

func (m *MealPlanAPI) Regenerate(ctx context.Context, req *RegenerateRequest) (*MealPlan, error) {
	if req == nil || req.PlanID == "" {
		return nil, ErrNoPlanID
	}

	resp, err := call[MealPlanResponse](ctx, m.c, state.AreaMealPlan, "mealplan regenerate", gateway.Post(mealPlansRegenerate, req))
	if err != nil {
		return nil, err
	}
	return &resp.MealPlan, nil
}

// StartOfWeek returns the Monday of t's week at midnight in t's location.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, mo, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
