package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the schema and the default user",
	Long: `Create tables and indexes for the configured store if they are missing,
then create the admin account from the admin section of the config.
Running it again is harmless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		if err := a.InitDB(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database initialized successfully")
		return nil
	},
}
