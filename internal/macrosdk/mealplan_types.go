package macrosdk

import "time"

// WeekLayout is the date format the api uses for days and week starts.
const WeekLayout = "2006-01-02"

type MacroTarget struct {
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Proteins float64 `json:"proteins"`
}

type Food struct {
	Name     string      `json:"name"`
	Quantity float64     `json:"quantity"`
	Unit     string      `json:"unit"`
	Macros   MacroTarget `json:"macros"`
}

type Meal struct {
	MealName    string      `json:"meal_name"`
	MealTime    string      `json:"meal_time"`
	Meridiem    string      `json:"meridiem"`
	MacroTarget MacroTarget `json:"macro_target"`
	Macros      MacroTarget `json:"macros"` // calculated from foods
	Foods       []Food      `json:"foods"`
}

type DayPlan struct {
	Date  string `json:"date"`
	Meals []Meal `json:"meals"`
}

type MealPlan struct {
	ID        string    `json:"id"`
	WeekStart string    `json:"week_start"`
	DietType  string    `json:"diet_type,omitempty"`
	Days      []DayPlan `json:"days"`
	CreatedAt time.Time `json:"created_at"`
}

type GetMealPlansRequest struct {
	WeekStart string `json:"week_start,omitempty"` // empty = every stored plan
}

type MealPlansResponse struct {
	MealPlans []MealPlan `json:"mealPlans"`
}

type GenerateRequest struct {
	WeekStart         string   `json:"week_start"`
	DietType          string   `json:"diet_type,omitempty"`
	MealsPerDay       int      `json:"meals_per_day,omitempty"`
	DailyCaloriesGoal float64  `json:"daily_calories_goal,omitempty"`
	FoodsToAvoid      []string `json:"foods_to_avoid,omitempty"`
	FoodsToLike       []string `json:"foods_to_like,omitempty"`
}

// RegenerateRequest replaces one meal of a stored plan. Empty FoodsToRegenerate
// regenerates the whole meal.
type RegenerateRequest struct {
	PlanID            string   `json:"plan_id"`
	Date              string   `json:"date"`
	MealName          string   `json:"meal_name"`
	FoodsToRegenerate []string `json:"food_to_regenerate,omitempty"`
}

type MealPlanResponse struct {
	MealPlan MealPlan `json:"mealPlan"`
}

// Totals sums the calculated macros of every meal of the day.
func (d DayPlan) Totals() MacroTarget {
	var total MacroTarget
	for _, meal := range d.Meals {
		total.Calories += meal.Macros.Calories
		total.Carbs += meal.Macros.Carbs
		total.Fats += meal.Macros.Fats
		total.Proteins += meal.Macros.Proteins
	}
	return total
}
