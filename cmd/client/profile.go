package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func init() {
	rootCmd.AddCommand(newProfileCmd(), newPersonalizeCmd())
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your profile",
	}
	cmd.AddCommand(newProfileShowCmd(), newProfileUpdateCmd())
	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile and daily targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				p, err := a.sdk.Profile.Get(ctx)
				if err != nil {
					return err
				}
				renderProfile(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}
}

func newProfileUpdateCmd() *cobra.Command {
	var (
		name, gender, goal, activity, diet string
		age                                int
		weight, height                     float64
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Long:  "Change profile fields. Only the flags you pass are sent.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			update := macrosdk.ProfileUpdate{
				Name:          changed(flags, "name", name),
				Age:           changed(flags, "age", age),
				Gender:        changed(flags, "gender", gender),
				Weight:        changed(flags, "weight", weight),
				Height:        changed(flags, "height", height),
				Goal:          changed(flags, "goal", goal),
				ActivityLevel: changed(flags, "activity", activity),
				DietType:      changed(flags, "diet", diet),
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				p, err := a.sdk.Profile.Update(ctx, update)
				if err != nil {
					return friendlyError(err)
				}
				success(cmd.OutOrStdout(), "Profile updated")
				renderProfile(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.SortFlags = false
	f.StringVar(&name, "name", "", "Name")
	f.IntVar(&age, "age", 0, "Age in years")
	f.StringVar(&gender, "gender", "", "Gender (female, male)")
	f.Float64Var(&weight, "weight", 0, "Weight in kg")
	f.Float64Var(&height, "height", 0, "Height in cm")
	f.StringVar(&goal, "goal", "", "Goal (lose, maintain, gain)")
	f.StringVar(&activity, "activity", "", "Activity (sedentary, light, moderate, active, athlete)")
	f.StringVar(&diet, "diet", "", "Diet type")
	return cmd
}

// changed returns a pointer to v when the flag was set on the command line.
func changed[T any](flags *pflag.FlagSet, name string, v T) *T {
	if !flags.Changed(name) {
		return nil
	}
	return &v
}

func newPersonalizeCmd() *cobra.Command {
	var answers []string

	cmd := &cobra.Command{
		Use:   "personalize",
		Short: "Save onboarding answers",
		Example: `  macropath personalize --answer "goal=lose weight" --answer "allergies=nuts,shellfish"`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAnswers(answers)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.sdk.Profile.SavePersonalization(ctx, parsed)
				if err != nil {
					return friendlyError(err)
				}
				success(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&answers, "answer", "a", nil, "question=value[,value...]")
	cmd.MarkFlagRequired("answer")
	return cmd
}

// parseAnswers turns "question=v1,v2" pairs into answers, merging repeated
// questions.
func parseAnswers(raw []string) ([]macrosdk.Answer, error) {
	var out []macrosdk.Answer
	index := map[string]int{}

	for _, r := range raw {
		question, values, ok := strings.Cut(r, "=")
		question = strings.TrimSpace(question)
		if !ok || question == "" {
			return nil, fmt.Errorf("answer %q: want question=value", r)
		}

		var vals []string
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("answer %q: no value", r)
		}

		if i, seen := index[question]; seen {
			out[i].Values = append(out[i].Values, vals...)
			continue
		}
		index[question] = len(out)
		out = append(out, macrosdk.Answer{Question: question, Values: vals})
	}
	return out, nil
}

func renderProfile(w io.Writer, p *macrosdk.Profile) {
	rows := [][2]string{
		{"Name", p.Name},
		{"Email", p.Email},
	}
	if p.Age > 0 {
		rows = append(rows, [2]string{"Age", fmt.Sprint(p.Age)})
	}
	if p.Gender != "" {
		rows = append(rows, [2]string{"Gender", p.Gender})
	}
	if p.Weight > 0 {
		rows = append(rows, [2]string{"Weight", fmt.Sprintf("%g kg", p.Weight)})
	}
	if p.Height > 0 {
		rows = append(rows, [2]string{"Height", fmt.Sprintf("%g cm", p.Height)})
	}
	if p.Goal != "" {
		rows = append(rows, [2]string{"Goal", p.Goal})
	}
	if p.ActivityLevel != "" {
		rows = append(rows, [2]string{"Activity", p.ActivityLevel})
	}
	if p.DietType != "" {
		rows = append(rows, [2]string{"Diet", p.DietType})
	}
	if p.DailyMacros.Calories > 0 {
		rows = append(rows, [2]string{"Daily", green.Render(macrosLine(p.DailyMacros))})
	} else {
		rows = append(rows, [2]string{"Daily", lightGray.Render("set age, weight and height to get targets")})
	}
	printKV(w, rows...)
}
