/*
Copyright © 2026 THE SQLSAGE AUTHORS
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqlsage/sqlsage/internal/profile"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with example template",
	Long: `Create ~/.config/sqlsage/profiles.yaml with an example template.

The config file stores named database connection profiles so you don't need
to pass connection strings on every invocation. If a config file already
exists, it will not be overwritten.`,
	Example: `  # Create default config
  sqlsage init

  # Overwrite existing config
  sqlsage init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path, err := profile.WriteTemplate(force)
		if err != nil {
			return err
		}

		fmt.Printf("Created config at %s\n", path)
		fmt.Println("Edit it to add connection profiles, then select one with --profile.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing config file")
}
