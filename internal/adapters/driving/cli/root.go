package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driven"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driving"
	"github.com/custodia-labs/msgraph-cli/internal/logger"
)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// Pretty forces indented JSON even when stdout is not a terminal.
	pretty bool

	// Services holds injected service implementations for CLI commands.
	schemaService  driving.SchemaService
	graphService   driving.GraphService
	accountService driving.AccountService
	configStore    driven.ConfigStore
)

// Services holds configuration for CLI commands.
type Services struct {
	Schema  driving.SchemaService
	Graph   driving.GraphService
	Account driving.AccountService
	Config  driven.ConfigStore
}

// SetServices injects service implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	schemaService = s.Schema
	graphService = s.Graph
	accountService = s.Account
	configStore = s.Config
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "msgraph",
	Short: "Schema-driven Microsoft Graph client",
	Long: `msgraph talks to Microsoft Graph using the service's own $metadata.

Responses are typed against the OData schema: every entity carries its
schema type, inherited fields included, and unknown fields are dropped.
The metadata document is downloaded once and cached locally.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "always indent JSON output")
	// Listings are data, not diagnostics.
	rootCmd.SetOut(os.Stdout)

	// Use PersistentPreRunE to set verbose mode before any command executes
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}
