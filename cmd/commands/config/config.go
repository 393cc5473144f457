package config

import (
	"nathanbeddoewebdev/vssplot/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persisted plot defaults",
		Long: "View and modify the defaults used when a flag is not given.\n\n" +
			"Configuration is stored at ~/.config/vssplot/config.json.\n" +
			"Flags given on the command line always take precedence.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
