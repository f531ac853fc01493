package main

import (
	"context"
	"fmt"

	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/macropath/macropath/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(
		newRegisterCmd(),
		newVerifyCmd(),
		newResendOTPCmd(),
		newPasswordCmd(),
		newGoogleCmd(),
		newLogoutCmd(),
	)
}

func newRegisterCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a MacroPath account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.sdk.Auth.Register(ctx, name, email, password)
				if err != nil {
					return friendlyError(err)
				}

				a.rememberEmail(email)
				out := cmd.OutOrStdout()
				if res.AccessToken != "" {
					success(out, fmt.Sprintf("Account created, signed in as %s", utils.NormalizeEmail(email)))
					return nil
				}

				success(out, res.Message)
				fmt.Fprintln(out, lightGray.Render("Check your inbox, then run 'macropath verify' with the code."))
				return nil
			})
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&name, "name", "n", "", "Your name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var email, code string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm your email with the emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if email == "" {
					email = a.cfg.Email
				}

				var res *macrosdk.AuthResponse
				var verified string
				verify := func(email, code string) error {
					r, err := a.sdk.Auth.VerifyOTP(ctx, email, code)
					if err != nil {
						return friendlyError(err)
					}
					res, verified = r, utils.NormalizeEmail(email)
					return nil
				}

				if email != "" && code != "" {
					if err := verify(email, code); err != nil {
						return err
					}
				} else {
					err := RunLoginTUI(LoginTUIOpts{
						Email:          email,
						ServerURL:      a.cfg.ServerURL,
						ConfigPath:     a.cfg.Path,
						EmailValidator: utils.IsValidEmail,
						Secret: SecretStep{
							Prompt:      "Enter the code sent to %s",
							Info:        "Please check your inbox or junk folder.",
							Placeholder: "••••••",
							Invalid:     "The code has 6 digits",
							CharLimit:   6,
							Validator:   macrosdk.IsValidOTP,
						},
						SecretSubmitHandler: verify,
					})
					if err != nil {
						return err
					}
				}

				a.rememberEmail(verified)
				printSignedIn(cmd.OutOrStdout(), verified, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVar(&code, "code", "", "6 digit code (prompted when empty)")
	return cmd
}

func newResendOTPCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Send a new verification code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.sdk.Auth.ResendOTP(ctx, emailOrConfig(email, a))
				if err != nil {
					return friendlyError(err)
				}
				success(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Recover a forgotten password",
	}
	cmd.AddCommand(newPasswordForgotCmd(), newPasswordResetCmd())
	return cmd
}

func newPasswordForgotCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Email a password reset code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.sdk.Auth.ForgotPassword(ctx, emailOrConfig(email, a))
				if err != nil {
					return friendlyError(err)
				}
				success(cmd.OutOrStdout(), res.Message)
				fmt.Fprintln(cmd.OutOrStdout(), lightGray.Render("Then run 'macropath password reset --code <code> --password <new>'."))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func newPasswordResetCmd() *cobra.Command {
	var email, code, password string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with the emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.sdk.Auth.ResetPassword(ctx, emailOrConfig(email, a), code, password)
				if err != nil {
					return friendlyError(err)
				}
				success(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVar(&code, "code", "", "6 digit reset code")
	cmd.Flags().StringVarP(&password, "password", "p", "", "New password")
	cmd.MarkFlagRequired("code")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newGoogleCmd() *cobra.Command {
	var idToken string

	cmd := &cobra.Command{
		Use:   "google",
		Short: "Sign in with a Google id token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.sdk.Auth.GoogleSignIn(ctx, idToken)
				if err != nil {
					return friendlyError(err)
				}

				email := ""
				if res.User != nil {
					email = res.User.Email
				}
				a.rememberEmail(email)
				printSignedIn(cmd.OutOrStdout(), email, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "Google id token")
	cmd.MarkFlagRequired("id-token")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.sdk.Auth.Logout(ctx); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func emailOrConfig(email string, a *app) string {
	if email != "" {
		return email
	}
	return a.cfg.Email
}
