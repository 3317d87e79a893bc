// Package cli implements cebeectl, a command-line client for the CeBee
// Predict backend. It shares the listing, status and content code with the
// admin dashboard and keeps its login in a session file between runs.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cebeepredict/admin/model"
)

var (
	version = "dev"
	commit  = "none"
)

// Environment variables consulted when the matching flag is not set.
const (
	envBackend     = "CEBEE_BACKEND_BASE_URL"
	envSessionFile = "CEBEE_SESSION_FILE"
	envOutput      = "CEBEE_OUTPUT"
	envPassword    = "CEBEE_PASSWORD"
)

// Execute runs the CLI.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	rootCmd := newRootCmd(a)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if a.output == "json" {
			errObj := map[string]any{
				"error": err.Error(),
			}
			var ee *model.ErrorEnvelope
			if errors.As(err, &ee) {
				errObj["http_status"] = ee.HTTPStatus()
				errObj["code"] = ee.Code
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cebeectl",
		Short:         "CeBee Predict admin CLI",
		Long:          "Command-line client for the CeBee Predict backend: sign in, page through resources, change statuses and read content documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Apply precedence: flag > env > config file > default
			if !cmd.Flags().Changed("backend") {
				if v := os.Getenv(envBackend); v != "" {
					a.backendURL = v
				}
			}
			if !cmd.Flags().Changed("session-file") {
				if v := os.Getenv(envSessionFile); v != "" {
					a.sessionFile = v
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv(envOutput); v != "" {
					a.output = v
				}
			}
			return validateOutputFormat(a.output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to the admin YAML config")
	rootCmd.PersistentFlags().StringVar(&a.backendURL, "backend", "", "Backend base URL (env "+envBackend+")")
	rootCmd.PersistentFlags().StringVar(&a.sessionFile, "session-file", defaultSessionFile(), "File holding the signed-in session (env "+envSessionFile+")")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log backend calls to stderr")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newLogoutCmd(a))
	rootCmd.AddCommand(newWhoamiCmd(a))
	rootCmd.AddCommand(newDashboardCmd(a))
	rootCmd.AddCommand(newResourcesCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newGetCmd(a))
	rootCmd.AddCommand(newBrowseCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newActionCmd(a))
	rootCmd.AddCommand(newContentCmd(a))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// defaultSessionFile returns the session path under the user config
// directory, or a dotfile in the working directory when there is none.
func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".cebeectl-session.json"
	}
	return filepath.Join(dir, "cebee", "session.json")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cebeectl %s (%s)\n", version, commit)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
