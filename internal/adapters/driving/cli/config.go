package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driven"
)

const redacted = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `Show and edit the configuration file. Environment overrides are applied on load.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := config()
		if err != nil {
			return err
		}
		cmd.Println(store.Path())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the effective configuration as TOML. Secrets are redacted.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Store an access token",
	Long: `Store a bearer token and switch to token authentication.

The token is read from stdin, without echo when stdin is a terminal.

Examples:
  msgraph config set-token
  az account get-access-token --resource-type ms-graph --query accessToken -o tsv | msgraph config set-token`,
	Args: cobra.NoArgs,
	RunE: runConfigSetToken,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetTokenCmd)
	rootCmd.AddCommand(configCmd)
}

func config() (driven.ConfigStore, error) {
	if configStore == nil {
		return nil, errors.New("config store not configured")
	}
	return configStore, nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := config()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		return err
	}

	shown := *settings
	shown.Auth = redactAuth(settings.Auth)
	out, err := toml.Marshal(shown)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	cmd.Print(string(out))
	return nil
}

func redactAuth(a domain.AuthSettings) domain.AuthSettings {
	for _, secret := range []*string{&a.ClientSecret, &a.AccessToken, &a.RefreshToken} {
		if *secret != "" {
			*secret = redacted
		}
	}
	return a
}

func runConfigSetToken(cmd *cobra.Command, _ []string) error {
	store, err := config()
	if err != nil {
		return err
	}
	token, err := readSecret(cmd, "Access token: ")
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("empty token: %w", domain.ErrInvalidInput)
	}

	settings, err := store.Load()
	if err != nil {
		return err
	}
	settings.Auth.Mode = domain.AuthModeToken
	settings.Auth.AccessToken = token
	if err := store.Save(settings); err != nil {
		return err
	}
	cmd.PrintErrf("Token saved to %s\n", store.Path())
	return nil
}

// readSecret reads one line from the command's input, prompting without
// echo when it is a terminal.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		cmd.PrintErr(prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		cmd.PrintErrln()
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
