package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/macropath/macropath/internal/macrosdk"
)

var errNotFound = errors.New("not found")

type getPlansRequest struct {
	WeekStart string `json:"week_start"`
}

type regenerateRequest struct {
	PlanID            string   `json:"plan_id" binding:"required"`
	Date              string   `json:"date" binding:"required"`
	MealName          string   `json:"meal_name" binding:"required"`
	FoodsToRegenerate []string `json:"food_to_regenerate"`
}

type profileUpdateRequest struct {
	macrosdk.ProfileUpdate
}

type personalizationRequest struct {
	Answers []macrosdk.Answer `json:"answers" binding:"required,min=1"`
}

type chatSendRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

type featureHandler struct {
	accounts *accounts
	now      func() time.Time
}

func (h *featureHandler) GetMealPlans(ctx *gin.Context) {
	var req getPlansRequest
	if ctx.Request.ContentLength != 0 && !bindJSON(ctx, &req) {
		return
	}

	plans := []macrosdk.MealPlan{}
	err := h.accounts.withID(userID(ctx), func(acc *account) error {
		for _, p := range acc.plans {
			if req.WeekStart == "" || p.WeekStart == req.WeekStart {
				plans = append(plans, p)
			}
		}
		return nil
	})
	if h.accountError(ctx, err) {
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.MealPlansResponse{MealPlans: plans})
}

func (h *featureHandler) GenerateMealPlan(ctx *gin.Context) {
	var req generateRequest
	if !bindJSON(ctx, &req) {
		return
	}
	start, err := time.Parse(macrosdk.WeekLayout, req.WeekStart)
	if err != nil {
		abortWithMessage(ctx, http.StatusBadRequest, "week_start must be YYYY-MM-DD")
		return
	}

	var plan macrosdk.MealPlan
	err = h.accounts.withID(userID(ctx), func(acc *account) error {
		if req.DietType == "" {
			req.DietType = acc.profile.DietType
		}
		if !validDiet(req.DietType) {
			return fmt.Errorf("%w: unknown diet type %q", errUnprocessable, req.DietType)
		}
		if req.DailyCaloriesGoal <= 0 {
			req.DailyCaloriesGoal = acc.profile.DailyMacros.Calories
		}
		plan = buildPlan(&req, start, h.now())
		acc.plans = append(acc.plans, plan)
		return nil
	})
	if h.accountError(ctx, err) {
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.MealPlanResponse{MealPlan: plan})
}

func (h *featureHandler) RegenerateMeal(ctx *gin.Context) {
	var req regenerateRequest
	if !bindJSON(ctx, &req) {
		return
	}

	var plan macrosdk.MealPlan
	err := h.accounts.withID(userID(ctx), func(acc *account) error {
		for i := range acc.plans {
			if acc.plans[i].ID != req.PlanID {
				continue
			}
			for d := range acc.plans[i].Days {
				day := &acc.plans[i].Days[d]
				if day.Date != req.Date {
					continue
				}
				for m := range day.Meals {
					if day.Meals[m].MealName == req.MealName {
						day.Meals[m] = regenerateMeal(day.Meals[m], req.FoodsToRegenerate, acc.plans[i].DietType, d*len(day.Meals)+m+1)
						plan = acc.plans[i]
						return nil
					}
				}
			}
			return fmt.Errorf("%w: meal %q on %s", errNotFound, req.MealName, req.Date)
		}
		return fmt.Errorf("%w: meal plan %s", errNotFound, req.PlanID)
	})
	if h.accountError(ctx, err) {
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.MealPlanResponse{MealPlan: plan})
}

func (h *featureHandler) GetProfile(ctx *gin.Context) {
	var profile macrosdk.Profile
	err := h.accounts.withID(userID(ctx), func(acc *account) error {
		profile = acc.profile
		return nil
	})
	if h.accountError(ctx, err) {
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.ProfileResponse{Profile: profile})
}

func (h *featureHandler) UpdateProfile(ctx *gin.Context) {
	var req profileUpdateRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := validateUpdate(req.ProfileUpdate); err != nil {
		abortWithMessage(ctx, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var profile macrosdk.Profile
	err := h.accounts.withID(userID(ctx), func(acc *account) error {
		applyUpdate(&acc.profile, req.ProfileUpdate)
		acc.profile.DailyMacros = dailyTarget(acc.profile)
		if req.Name != nil {
			acc.user.Name = *req.Name
		}
		profile = acc.profile
		return nil
	})
	if h.accountError(ctx, err) {
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.ProfileResponse{Profile: profile})
}

func (h *featureHandler) SavePersonalization(ctx *gin.Context) {
	var req personalizationRequest
	if !bindJSON(ctx, &req) {
		return
	}

	err := h.accounts.withID(userID(ctx), func(acc *account) error {
		acc.answers = append([]macrosdk.Answer(nil), req.Answers...)
		return nil
	})
	if h.accountError(ctx, err) {
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.MessageResponse{Message: "personalization saved"})
}

func (h *featureHandler) SendChat(ctx *gin.Context) {
	var req chatSendRequest
	if !bindJSON(ctx, &req) {
		return
	}

	var reply macrosdk.ChatMessage
	err := h.accounts.withID(userID(ctx), func(acc *account) error {
		now := stamp(h.now())
		acc.chat = append(acc.chat, macrosdk.ChatMessage{
			ID: uuid.NewString(), Role: macrosdk.RoleUser, Content: req.Message, CreatedAt: now,
		})
		reply = macrosdk.ChatMessage{
			ID: uuid.NewString(), Role: macrosdk.RoleAssistant, Content: chatReply(req.Message, acc.profile), CreatedAt: now,
		}
		acc.chat = append(acc.chat, reply)
		return nil
	})
	if h.accountError(ctx, err) {
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.ChatSendResponse{Reply: reply})
}

func (h *featureHandler) ChatHistory(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithMessage(ctx, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var messages []macrosdk.ChatMessage
	err := h.accounts.withID(userID(ctx), func(acc *account) error {
		history := acc.chat
		if limit > 0 && len(history) > limit {
			history = history[len(history)-limit:]
		}
		messages = append([]macrosdk.ChatMessage{}, history...)
		return nil
	})
	if h.accountError(ctx, err) {
		return
	}
	ctx.JSON(http.StatusOK, &macrosdk.ChatHistoryResponse{Messages: messages})
}

var errUnprocessable = errors.New("unprocessable")

// accountError writes the error response and reports whether there was one.
func (h *featureHandler) accountError(ctx *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrUserNotFound):
		// the token outlived its account
		abortWithMessage(ctx, http.StatusForbidden, "invalid token")
	case errors.Is(err, errNotFound):
		abortWithMessage(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, errUnprocessable):
		abortWithMessage(ctx, http.StatusUnprocessableEntity, err.Error())
	default:
		internalError(ctx, err)
	}
	return true
}

func validateUpdate(u macrosdk.ProfileUpdate) error {
	switch {
	case u.Empty():
		return errors.New("no fields to update")
	case u.Name != nil && *u.Name == "":
		return errors.New("name must not be empty")
	case u.Age != nil && (*u.Age < 13 || *u.Age > 120):
		return errors.New("age must be between 13 and 120")
	case u.Weight != nil && (*u.Weight < 20 || *u.Weight > 400):
		return errors.New("weight must be between 20 and 400 kg")
	case u.Height != nil && (*u.Height < 80 || *u.Height > 260):
		return errors.New("height must be between 80 and 260 cm")
	case u.DietType != nil && !validDiet(*u.DietType):
		return fmt.Errorf("unknown diet type %q", *u.DietType)
	}
	return nil
}

func applyUpdate(p *macrosdk.Profile, u macrosdk.ProfileUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Weight != nil {
		p.Weight = *u.Weight
	}
	if u.Height != nil {
		p.Height = *u.Height
	}
	if u.Goal != nil {
		p.Goal = *u.Goal
	}
	if u.ActivityLevel != nil {
		p.ActivityLevel = *u.ActivityLevel
	}
	if u.DietType != nil {
		p.DietType = *u.DietType
	}
}
