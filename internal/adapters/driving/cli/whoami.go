package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoAmI,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoAmI(cmd *cobra.Command, _ []string) error {
	if accountService == nil {
		return errors.New("account service not configured")
	}
	account, err := accountService.WhoAmI(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("%s <%s>\n", account.DisplayName, account.Email)
	cmd.Printf("  ID: %s\n", account.ID)
	return nil
}
