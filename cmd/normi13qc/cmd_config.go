package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"normi13qc/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage module configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write an example configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfigFile(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Example configuration written to %s\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
