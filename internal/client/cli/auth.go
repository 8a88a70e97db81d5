package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/spf13/cobra"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// ErrPasswordMismatch is returned by register when the confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

func (a *App) promptIfEmpty(value *string, prompt string) error {
	if *value != "" {
		return nil
	}
	v, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	*value = v
	return nil
}

func newRegisterCmd(app *App) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.promptIfEmpty(&username, "Enter username"); err != nil {
				return err
			}
			if err := app.promptIfEmpty(&email, "Enter email"); err != nil {
				return err
			}

			password, err := getPassword(app.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			fmt.Fprint(app.out, "Repeat password. ")
			confirm, err := getPassword(app.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(confirm)

			if !bytes.Equal(password, confirm) {
				return ErrPasswordMismatch
			}

			ctx, cancel := app.withTimeout(cmd.Context())
			defer cancel()

			s, err := app.authService.Register(ctx, username, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "User registered successfully. Logged in as %s (%s)\n", s.Username, s.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "user name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with username and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.promptIfEmpty(&username, "Enter username"); err != nil {
				return err
			}

			password, err := getPassword(app.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := app.withTimeout(cmd.Context())
			defer cancel()

			s, err := app.authService.Login(ctx, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Login successful. Logged in as %s (%s)\n", s.Username, s.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "user name")
	return cmd
}

func newRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Get a new access token with the stored refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.withTimeout(cmd.Context())
			defer cancel()

			if _, err := app.authService.Refresh(ctx); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "Token refreshed successfully")
			return nil
		},
	}
}

func newWhoAmICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user the stored session belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.withTimeout(cmd.Context())
			defer cancel()

			id, err := app.authService.WhoAmI(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "%s (%s)\n", id.Username, id.Role)
			return nil
		},
	}
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.authService.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "Logged out")
			return nil
		},
	}
}

func newPingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.withTimeout(cmd.Context())
			defer cancel()

			if err := app.authService.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "OK")
			return nil
		},
	}
}
