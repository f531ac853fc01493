package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newMealPlanCmd())
}

func newMealPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mealplan",
		Aliases: []string{"plan"},
		Short:   "Show and generate weekly meal plans",
	}
	cmd.AddCommand(newMealPlanGetCmd(), newMealPlanGenerateCmd(), newMealPlanRegenerateCmd())
	return cmd
}

func newMealPlanGetCmd() *cobra.Command {
	var week string
	var all bool
	var day string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the meal plan of a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := weekStart(week, time.Now())
			if err != nil {
				return err
			}
			if all {
				start = time.Time{}
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				plans, err := a.sdk.MealPlan.Get(ctx, start)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(plans) == 0 {
					fmt.Fprintln(out, yellow.Render("No meal plan yet. Run 'macropath mealplan generate'."))
					return nil
				}
				for _, plan := range plans {
					renderPlan(out, &plan, day)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "", "Any day of the week, YYYY-MM-DD (default this week)")
	cmd.Flags().StringVarP(&day, "day", "d", "", "Only show this day, YYYY-MM-DD")
	cmd.Flags().BoolVar(&all, "all", false, "Show every stored plan")
	return cmd
}

func newMealPlanGenerateCmd() *cobra.Command {
	var week string
	var req macrosdk.GenerateRequest

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a meal plan for a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := weekStart(week, time.Now())
			if err != nil {
				return err
			}
			req.WeekStart = start.Format(macrosdk.WeekLayout)

			return withApp(cmd, func(ctx context.Context, a *app) error {
				plan, err := a.sdk.MealPlan.Generate(ctx, &req)
				if err != nil {
					return friendlyError(err)
				}
				renderPlan(cmd.OutOrStdout(), plan, "")
				return nil
			})
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&week, "week", "w", "", "Any day of the week, YYYY-MM-DD (default this week)")
	cmd.Flags().StringVar(&req.DietType, "diet", "", "Diet type (balanced, vegetarian, vegan, keto, paleo, mediterranean)")
	cmd.Flags().IntVar(&req.MealsPerDay, "meals", 0, "Meals per day")
	cmd.Flags().Float64Var(&req.DailyCaloriesGoal, "calories", 0, "Daily calories goal")
	cmd.Flags().StringSliceVar(&req.FoodsToAvoid, "avoid", nil, "Foods to avoid")
	cmd.Flags().StringSliceVar(&req.FoodsToLike, "like", nil, "Foods to prefer")
	return cmd
}

func newMealPlanRegenerateCmd() *cobra.Command {
	var req macrosdk.RegenerateRequest

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Replace one meal, or some of its foods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := time.Parse(macrosdk.WeekLayout, req.Date); err != nil {
				return fmt.Errorf("date: %w", err)
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				plan, err := a.sdk.MealPlan.Regenerate(ctx, &req)
				if err != nil {
					return friendlyError(err)
				}
				renderPlan(cmd.OutOrStdout(), plan, req.Date)
				return nil
			})
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&req.PlanID, "plan", "", "Meal plan id")
	cmd.Flags().StringVar(&req.Date, "date", "", "Day of the meal, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.MealName, "meal", "", "Meal name, e.g. Breakfast")
	cmd.Flags().StringSliceVar(&req.FoodsToRegenerate, "food", nil, "Only replace these foods")
	cmd.MarkFlagRequired("plan")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("meal")
	return cmd
}

// weekStart returns the Monday of the week containing day, or of now's
// week when day is empty.
func weekStart(day string, now time.Time) (time.Time, error) {
	if day == "" {
		return macrosdk.StartOfWeek(now), nil
	}
	t, err := time.ParseInLocation(macrosdk.WeekLayout, day, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("week: %w", err)
	}
	return macrosdk.StartOfWeek(t), nil
}

func renderPlan(w io.Writer, plan *macrosdk.MealPlan, onlyDay string) {
	header := fmt.Sprintf("Week of %s", plan.WeekStart)
	if plan.DietType != "" {
		header += " · " + plan.DietType
	}
	fmt.Fprintln(w, cyan.Bold(true).Render(header))
	fmt.Fprintln(w, gray.Render("plan "+plan.ID))

	for _, d := range plan.Days {
		if onlyDay != "" && d.Date != onlyDay {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s  %s\n", green.Bold(true).Render(dayLabel(d.Date)), lightGray.Render(macrosLine(d.Totals())))
		for _, meal := range d.Meals {
			fmt.Fprintf(w, "  %s %s  %s\n",
				meal.MealName,
				gray.Render(strings.TrimSpace(meal.MealTime+" "+meal.Meridiem)),
				lightGray.Render(macrosLine(meal.Macros)),
			)
			for _, food := range meal.Foods {
				fmt.Fprintf(w, "    - %s %s\n", food.Name, gray.Render(fmt.Sprintf("%g %s", food.Quantity, food.Unit)))
			}
		}
	}
	fmt.Fprintln(w)
}

func dayLabel(date string) string {
	t, err := time.Parse(macrosdk.WeekLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Mon Jan 2")
}

func macrosLine(m macrosdk.MacroTarget) string {
	return fmt.Sprintf("%.0f kcal · P %.0fg · C %.0fg · F %.0fg", m.Calories, m.Proteins, m.Carbs, m.Fats)
}
