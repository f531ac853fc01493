package main

import (
	"context"
	"fmt"
	"io"

	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/macropath/macropath/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLoginCmd())
}

func newLoginCmd() *cobra.Command {
	var email string
	var password string
	var force bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to MacroPath",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()

				if !force {
					if _, ok, err := a.sdk.Auth.Session(ctx); err == nil && ok {
						if !quiet {
							success(out, "**Already logged in**")
							printSession(ctx, out, a)
						}
						return nil
					}
				}

				if email == "" {
					email = a.cfg.Email
				}

				var res *macrosdk.AuthResponse
				var signedIn string
				login := func(email, password string) error {
					r, err := a.sdk.Auth.Login(ctx, email, password)
					if err != nil {
						return friendlyError(err)
					}
					res, signedIn = r, utils.NormalizeEmail(email)
					return nil
				}

				if email != "" && password != "" {
					if err := login(email, password); err != nil {
						return err
					}
				} else {
					err := RunLoginTUI(LoginTUIOpts{
						Email:          email,
						ServerURL:      a.cfg.ServerURL,
						ConfigPath:     a.cfg.Path,
						EmailValidator: utils.IsValidEmail,
						Secret: SecretStep{
							Prompt:      "Enter the password for %s",
							Placeholder: "password",
							Invalid:     "Password is required",
							Masked:      true,
							CharLimit:   128,
							Validator:   func(s string) bool { return s != "" },
						},
						SecretSubmitHandler: login,
					})
					if err != nil {
						return err
					}
				}

				a.rememberEmail(signedIn)
				if !quiet {
					printSignedIn(out, signedIn, res)
				}
				return nil
			})
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when empty)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Sign in again even with a stored session")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing on success")
	return cmd
}

func printSignedIn(w io.Writer, email string, res *macrosdk.AuthResponse) {
	if res != nil && res.User != nil && res.User.Name != "" {
		success(w, fmt.Sprintf("Signed in as %s (%s)", res.User.Name, email))
		return
	}
	success(w, fmt.Sprintf("Signed in as %s", email))
}

// friendlyError prefers the api's own message over the status line.
func friendlyError(err error) error {
	if msg, ok := macrosdk.APIMessage(err); ok && msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return err
}
