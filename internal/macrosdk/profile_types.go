package macrosdk

type Profile struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Age           int     `json:"age,omitempty"`
	Gender        string  `json:"gender,omitempty"`
	Weight        float64 `json:"weight,omitempty"` // kg
	Height        float64 `json:"height,omitempty"` // cm
	Goal          string  `json:"goal,omitempty"`
	ActivityLevel string  `json:"activity_level,omitempty"`
	DietType      string  `json:"diet_type,omitempty"`

	DailyMacros MacroTarget `json:"daily_macros"`
}

// ProfileUpdate only sends the fields that are set.
type ProfileUpdate struct {
	Name          *string  `json:"name,omitempty"`
	Age           *int     `json:"age,omitempty"`
	Gender        *string  `json:"gender,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	Height        *float64 `json:"height,omitempty"`
	Goal          *string  `json:"goal,omitempty"`
	ActivityLevel *string  `json:"activity_level,omitempty"`
	DietType      *string  `json:"diet_type,omitempty"`
}

func (u ProfileUpdate) Empty() bool {
	return u == ProfileUpdate{}
}

type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

// Answer is one onboarding question and what the user picked.
type Answer struct {
	Question string   `json:"question"`
	Values   []string `json:"values"`
}

type PersonalizationRequest struct {
	Answers []Answer `json:"answers"`
}
