package mockapi

import (
	"math"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/macropath/macropath/internal/macrosdk"
)

const (
	defaultDailyCalories = 2000.0
	defaultMealsPerDay   = 3
	maxMealsPerDay       = 6
	foodsPerMeal         = 3
)

var dietTypes = mapset.NewSet("balanced", "vegetarian", "vegan", "keto", "paleo", "mediterranean")

func validDiet(diet string) bool {
	return diet == "" || dietTypes.Contains(strings.ToLower(diet))
}

type pantryItem struct {
	food   macrosdk.Food
	meat   bool
	animal bool
}

func item(name string, qty float64, unit string, kcal, carbs, fats, proteins float64, meat, animal bool) pantryItem {
	return pantryItem{
		food: macrosdk.Food{
			Name: name, Quantity: qty, Unit: unit,
			Macros: macrosdk.MacroTarget{Calories: kcal, Carbs: carbs, Fats: fats, Proteins: proteins},
		},
		meat:   meat,
		animal: animal || meat,
	}
}

var pantry = []pantryItem{
	item("rolled oats", 60, "g", 228, 40, 4, 8, false, false),
	item("greek yogurt", 170, "g", 100, 6, 0.7, 17, false, true),
	item("blueberries", 100, "g", 57, 14, 0.3, 0.7, false, false),
	item("chicken breast", 150, "g", 248, 0, 5.4, 46, true, false),
	item("brown rice", 150, "g", 167, 35, 1.3, 3.9, false, false),
	item("broccoli", 120, "g", 41, 8, 0.4, 3.4, false, false),
	item("salmon fillet", 140, "g", 291, 0, 18, 31, true, false),
	item("sweet potato", 200, "g", 172, 40, 0.2, 3.2, false, false),
	item("chickpeas", 160, "g", 262, 43, 4.2, 14, false, false),
	item("spinach", 60, "g", 14, 2.2, 0.2, 1.7, false, false),
	item("eggs", 100, "g", 143, 0.7, 9.5, 12.6, false, true),
	item("whole wheat bread", 60, "g", 148, 25, 2, 7.8, false, false),
	item("tofu", 150, "g", 216, 4.4, 13, 24, false, false),
	item("quinoa", 150, "g", 180, 32, 2.9, 6.6, false, false),
	item("almonds", 30, "g", 174, 6.5, 15, 6.4, false, false),
	item("lentils", 180, "g", 209, 36, 0.7, 16, false, false),
	item("avocado", 100, "g", 160, 8.5, 14.7, 2, false, false),
	item("lean beef", 120, "g", 228, 0, 11, 31, true, false),
}

var mealSlots = []struct{ name, time, meridiem string }{
	{"breakfast", "08:00", "AM"},
	{"lunch", "12:30", "PM"},
	{"dinner", "07:00", "PM"},
	{"snack", "04:00", "PM"},
	{"second snack", "10:30", "AM"},
	{"supper", "09:30", "PM"},
}

type generateRequest struct {
	WeekStart         string   `json:"week_start" binding:"required"`
	DietType          string   `json:"diet_type"`
	MealsPerDay       int      `json:"meals_per_day"`
	DailyCaloriesGoal float64  `json:"daily_calories_goal"`
	FoodsToAvoid      []string `json:"foods_to_avoid"`
	FoodsToLike       []string `json:"foods_to_like"`
}

// candidates lists pantry foods allowed by the diet, liked foods first.
func candidates(diet string, avoid, like []string) []macrosdk.Food {
	avoided := lowerSet(avoid)
	liked := lowerSet(like)
	diet = strings.ToLower(diet)

	var first, rest []macrosdk.Food
	for _, p := range pantry {
		switch {
		case avoided.Contains(p.food.Name):
			continue
		case diet == "vegan" && p.animal:
			continue
		case diet == "vegetarian" && p.meat:
			continue
		}
		if liked.Contains(p.food.Name) {
			first = append(first, p.food)
		} else {
			rest = append(rest, p.food)
		}
	}
	return append(first, rest...)
}

func buildPlan(req *generateRequest, start time.Time, now time.Time) macrosdk.MealPlan {
	daily := req.DailyCaloriesGoal
	if daily <= 0 {
		daily = defaultDailyCalories
	}
	meals := req.MealsPerDay
	if meals <= 0 {
		meals = defaultMealsPerDay
	}
	meals = min(meals, maxMealsPerDay)

	foods := candidates(req.DietType, req.FoodsToAvoid, req.FoodsToLike)
	target := splitMacros(daily / float64(meals))

	plan := macrosdk.MealPlan{
		ID:        uuid.NewString(),
		WeekStart: start.Format(macrosdk.WeekLayout),
		DietType:  strings.ToLower(req.DietType),
		CreatedAt: stamp(now),
	}
	next := 0
	for day := range 7 {
		dp := macrosdk.DayPlan{Date: start.AddDate(0, 0, day).Format(macrosdk.WeekLayout)}
		for slot := range meals {
			picked := make([]macrosdk.Food, 0, foodsPerMeal)
			for range foodsPerMeal {
				if len(foods) == 0 {
					break
				}
				picked = append(picked, foods[next%len(foods)])
				next++
			}
			dp.Meals = append(dp.Meals, newMeal(slot, target, picked))
		}
		plan.Days = append(plan.Days, dp)
	}
	return plan
}

func newMeal(slot int, target macrosdk.MacroTarget, foods []macrosdk.Food) macrosdk.Meal {
	s := mealSlots[slot%len(mealSlots)]
	meal := macrosdk.Meal{MealName: s.name, MealTime: s.time, Meridiem: s.meridiem, MacroTarget: target}
	meal.Foods, meal.Macros = scaleFoods(foods, target.Calories)
	return meal
}

// regenerateMeal swaps the named foods, or all of them, for pantry foods the
// meal does not contain yet and rescales portions to the meal target.
func regenerateMeal(meal macrosdk.Meal, replace []string, diet string, offset int) macrosdk.Meal {
	replaced := lowerSet(replace)
	present := mapset.NewThreadUnsafeSet[string]()
	for _, f := range meal.Foods {
		present.Add(strings.ToLower(f.Name))
	}

	pool := candidates(diet, nil, nil)
	pick := func() (macrosdk.Food, bool) {
		for i := range pool {
			f := pool[(offset+i)%len(pool)]
			if !present.Contains(f.Name) {
				present.Add(f.Name)
				return f, true
			}
		}
		return macrosdk.Food{}, false
	}

	foods := make([]macrosdk.Food, 0, len(meal.Foods))
	for _, f := range meal.Foods {
		if replaced.Cardinality() > 0 && !replaced.Contains(strings.ToLower(f.Name)) {
			foods = append(foods, f)
			continue
		}
		if alt, ok := pick(); ok {
			foods = append(foods, alt)
		} else {
			foods = append(foods, f)
		}
	}

	meal.Foods, meal.Macros = scaleFoods(foods, meal.MacroTarget.Calories)
	return meal
}

func scaleFoods(foods []macrosdk.Food, calories float64) ([]macrosdk.Food, macrosdk.MacroTarget) {
	var sum float64
	for _, f := range foods {
		sum += f.Macros.Calories
	}
	if sum == 0 {
		return foods, macrosdk.MacroTarget{}
	}

	factor := calories / sum
	out := make([]macrosdk.Food, len(foods))
	var total macrosdk.MacroTarget
	for i, f := range foods {
		f.Quantity = round1(f.Quantity * factor)
		f.Macros = macrosdk.MacroTarget{
			Calories: round1(f.Macros.Calories * factor),
			Carbs:    round1(f.Macros.Carbs * factor),
			Fats:     round1(f.Macros.Fats * factor),
			Proteins: round1(f.Macros.Proteins * factor),
		}
		total.Calories += f.Macros.Calories
		total.Carbs += f.Macros.Carbs
		total.Fats += f.Macros.Fats
		total.Proteins += f.Macros.Proteins
		out[i] = f
	}
	return out, roundTarget(total)
}

// splitMacros uses 30% protein, 40% carbs, 30% fat.
func splitMacros(calories float64) macrosdk.MacroTarget {
	return roundTarget(macrosdk.MacroTarget{
		Calories: calories,
		Proteins: calories * 0.3 / 4,
		Carbs:    calories * 0.4 / 4,
		Fats:     calories * 0.3 / 9,
	})
}

var activityFactors = map[string]float64{
	"sedentary": 1.2,
	"light":     1.375,
	"moderate":  1.55,
	"active":    1.725,
	"athlete":   1.9,
}

// dailyTarget estimates calories with Mifflin-St Jeor. It returns the zero
// target until weight, height and age are known.
func dailyTarget(p macrosdk.Profile) macrosdk.MacroTarget {
	if p.Weight <= 0 || p.Height <= 0 || p.Age <= 0 {
		return macrosdk.MacroTarget{}
	}

	bmr := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if strings.EqualFold(p.Gender, "female") {
		bmr -= 161
	} else {
		bmr += 5
	}

	factor, ok := activityFactors[strings.ToLower(p.ActivityLevel)]
	if !ok {
		factor = activityFactors["sedentary"]
	}
	calories := bmr * factor

	switch strings.ToLower(p.Goal) {
	case "lose", "lose weight", "cut":
		calories -= 500
	case "gain", "gain muscle", "bulk":
		calories += 300
	}
	return splitMacros(math.Round(calories))
}

var chatTopics = []struct {
	keywords []string
	reply    string
}{
	{[]string{"protein"}, "Aim for 1.6 to 2.2 g of protein per kg of body weight spread over your meals."},
	{[]string{"water", "hydrat", "drink"}, "Most adults do well with 2 to 3 litres of water a day, more when training."},
	{[]string{"snack"}, "Good snacks pair protein with fibre: yogurt with berries, or an apple with almonds."},
	{[]string{"weight", "lose", "fat"}, "A steady deficit of about 500 kcal a day is sustainable for most people."},
	{[]string{"plan", "meal"}, "You can regenerate any meal of your plan. Tell me which foods you want swapped."},
}

func chatReply(message string, p macrosdk.Profile) string {
	lower := strings.ToLower(message)
	for _, topic := range chatTopics {
		for _, kw := range topic.keywords {
			if strings.Contains(lower, kw) {
				return topic.reply
			}
		}
	}
	if p.DailyMacros.Calories > 0 {
		return "Your current target is " + formatKcal(p.DailyMacros.Calories) + " a day. Ask me about protein, snacks or your plan."
	}
	return "I can help with your meal plan, macros and healthy habits. Complete your profile for personal targets."
}

func formatKcal(kcal float64) string {
	return humanize.Comma(int64(math.Round(kcal))) + " kcal"
}

func lowerSet(values []string) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, v := range values {
		set.Add(strings.ToLower(strings.TrimSpace(v)))
	}
	return set
}

func roundTarget(t macrosdk.MacroTarget) macrosdk.MacroTarget {
	return macrosdk.MacroTarget{
		Calories: round1(t.Calories),
		Carbs:    round1(t.Carbs),
		Fats:     round1(t.Fats),
		Proteins: round1(t.Proteins),
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
