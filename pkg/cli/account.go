package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/usecase/account"
	"github.com/urfave/cli/v3"
)

func accountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Sign up, sign in and manage your account",
		Commands: []*cli.Command{
			signUpCommand(),
			signInCommand(),
			signOutCommand(),
			resetPasswordCommand(),
			verifyCommand(),
			whoamiCommand(),
			deleteAccountCommand(),
		},
	}
}

func credentialFlags(email, password *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "email",
			Aliases:     []string{"e"},
			Usage:       "Email address",
			Sources:     cli.EnvVars("WASHP_EMAIL"),
			Destination: email,
		},
		&cli.StringFlag{
			Name:        "password",
			Usage:       "Password (prompted when omitted)",
			Sources:     cli.EnvVars("WASHP_PASSWORD"),
			Destination: password,
		},
	}
}

// localized converts use case errors into the message shown to the user
func localized(cfg *config, err error) error {
	if err == nil {
		return nil
	}
	return goerr.Wrap(err, account.Message(err, cfg.getLocale()))
}

func withAccount(ctx context.Context, cfg *config, fn func(ctx context.Context, a *app) error) error {
	ctx, err := cfg.setupLogger(ctx)
	if err != nil {
		return err
	}

	a, err := cfg.newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return localized(cfg, fn(ctx, a))
}

func signUpCommand() *cli.Command {
	var (
		cfg                   config
		email, password, name string
	)

	flags := credentialFlags(&email, &password)
	flags = append(flags, &cli.StringFlag{
		Name:        "name",
		Aliases:     []string{"n"},
		Usage:       "Display name",
		Destination: &name,
	})
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account and sign in",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			email, err := readLine(email, "Email: ")
			if err != nil {
				return err
			}
			name, err := readLine(name, "Name: ")
			if err != nil {
				return err
			}
			password, err := readPassword(password, "Password: ")
			if err != nil {
				return err
			}

			return withAccount(ctx, &cfg, func(ctx context.Context, a *app) error {
				session, err := a.account.SignUp(ctx, model.Credentials{Email: email, Password: password}, name)
				if err != nil {
					return err
				}
				if err := cfg.saveSession(session); err != nil {
					return err
				}
				if err := a.account.SendVerificationEmail(ctx, session); err != nil {
					fmt.Fprintf(c.Root().ErrWriter, "verification email not sent: %s\n", account.Message(err, cfg.getLocale()))
				}
				fmt.Fprintf(c.Root().Writer, "signed up as %s (%s)\n", session.Name, session.Email)
				return nil
			})
		},
	}
}

func signInCommand() *cli.Command {
	var (
		cfg             config
		email, password string
	)

	flags := credentialFlags(&email, &password)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "signin",
		Usage: "Sign in with email and password",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			email, err := readLine(email, "Email: ")
			if err != nil {
				return err
			}
			password, err := readPassword(password, "Password: ")
			if err != nil {
				return err
			}

			return withAccount(ctx, &cfg, func(ctx context.Context, a *app) error {
				session, err := a.account.SignIn(ctx, model.Credentials{Email: email, Password: password})
				if err != nil {
					return err
				}
				if err := cfg.saveSession(session); err != nil {
					return err
				}
				fmt.Fprintf(c.Root().Writer, "signed in as %s\n", session.Email)
				if !session.EmailVerified {
					fmt.Fprintln(c.Root().ErrWriter, "email address not verified yet, run `washp account verify`")
				}
				return nil
			})
		},
	}
}

func resetPasswordCommand() *cli.Command {
	var (
		cfg   config
		email string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "email",
			Aliases:     []string{"e"},
			Usage:       "Email address of the account",
			Sources:     cli.EnvVars("WASHP_EMAIL"),
			Destination: &email,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "reset-password",
		Usage: "Send a password reset email",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			email, err := readLine(email, "Email: ")
			if err != nil {
				return err
			}

			return withAccount(ctx, &cfg, func(ctx context.Context, a *app) error {
				if err := a.account.SendPasswordReset(ctx, email); err != nil {
					return err
				}
				fmt.Fprintf(c.Root().Writer, "password reset email sent to %s\n", email)
				return nil
			})
		},
	}
}

func signOutCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "signout",
		Usage: "Sign out and revoke the saved session",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withAccount(ctx, &cfg, func(ctx context.Context, a *app) error {
				session, err := currentUser(ctx, &cfg, a.account)
				if err == nil {
					if err := a.account.SignOut(ctx, session.UserID); err != nil {
						return err
					}
				}
				if err := cfg.removeSession(); err != nil {
					return err
				}
				fmt.Fprintln(c.Root().Writer, "signed out")
				return nil
			})
		},
	}
}

func verifyCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "verify",
		Usage: "Send the email verification message",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withAccount(ctx, &cfg, func(ctx context.Context, a *app) error {
				session, err := currentUser(ctx, &cfg, a.account)
				if err != nil {
					return err
				}
				if err := a.account.SendVerificationEmail(ctx, session); err != nil {
					return err
				}
				fmt.Fprintf(c.Root().Writer, "verification email sent to %s\n", session.Email)
				return nil
			})
		},
	}
}

func whoamiCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in account",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withAccount(ctx, &cfg, func(ctx context.Context, a *app) error {
				session, err := currentUser(ctx, &cfg, a.account)
				if err != nil {
					return err
				}

				user, err := a.account.Profile(ctx, session.UserID)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\n", user.ID, user.Email, user.Name)
				return nil
			})
		},
	}
}

func deleteAccountCommand() *cli.Command {
	var (
		cfg      config
		password string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "password",
			Usage:       "Current password (prompted when omitted)",
			Sources:     cli.EnvVars("WASHP_PASSWORD"),
			Destination: &password,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "delete",
		Usage: "Delete the account and every saved analysis",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			password, err := readPassword(password, "Password: ")
			if err != nil {
				return err
			}

			return withAccount(ctx, &cfg, func(ctx context.Context, a *app) error {
				session, err := currentUser(ctx, &cfg, a.account)
				if err != nil {
					return err
				}
				if err := a.account.Delete(ctx, session, password); err != nil {
					return err
				}
				if err := cfg.removeSession(); err != nil {
					return err
				}
				fmt.Fprintln(c.Root().Writer, "account deleted")
				return nil
			})
		},
	}
}
