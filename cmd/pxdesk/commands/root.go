// Package commands defines the CLI command structure and flag
// bindings. Command execution is delegated to the handlers package.
package commands

import "github.com/spf13/cobra"

var (
	cfgPath string
	verbose bool
)

// Root returns the root command for the pxdesk CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pxdesk",
		Short: "Operator tooling for the container request portal",
	}

	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to the portal config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "human-readable debug logging")

	cmd.AddCommand(Probe())
	cmd.AddCommand(Discover())
	cmd.AddCommand(Version())

	return cmd
}
