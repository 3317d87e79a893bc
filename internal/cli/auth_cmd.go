package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cebeepredict/admin/internal/validation"
)

var errNotSignedIn = errors.New("not signed in: run 'cebeectl login'")

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: "Signs in against the backend and stores the token in the session file.\n" +
			"The password is taken from --password, then " + envPassword + ", then the first line of stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv(envPassword)
			}
			if password == "" {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				password = line
			}

			sess, err := a.auth.Login(cmd.Context(), a.backend, a.slot, validation.LoginRequest{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"display_name": sess.DisplayName(),
					"expires_at":   sess.ExpiresAt,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.auth.Logout(cmd.Context(), a.slot); err != nil {
				return err
			}
			if a.output != "json" {
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			}
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			sess, err := a.slot.Load(cmd.Context())
			if err != nil {
				return err
			}
			if sess == nil {
				return errNotSignedIn
			}

			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"display_name": sess.DisplayName(),
					"user":         sess.User,
					"signed_in_at": sess.Timestamp,
					"expires_at":   sess.ExpiresAt,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", sess.DisplayName())
			fmt.Fprintf(out, "  backend:    %s\n", a.backend.BaseURL())
			fmt.Fprintf(out, "  signed in:  %s\n", sess.Timestamp.Format(time.RFC3339))
			if !sess.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "  expires:    %s\n", sess.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
