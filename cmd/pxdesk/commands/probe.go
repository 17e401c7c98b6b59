package commands

import (
	"github.com/spf13/cobra"

	"github.com/pxdesk/pxdesk/cmd/pxdesk/handlers"
	"github.com/pxdesk/pxdesk/internal/config"
	"github.com/pxdesk/pxdesk/internal/proxmox"
)

// Probe returns the command that checks the cluster connection and
// dumps what the portal would see: nodes, containers, storage pools
// and the next free identifier.
func Probe() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check the cluster connection and list visible resources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			client := proxmox.NewRealClient(
				cfg.Cluster.Host, cfg.Cluster.User, cfg.Cluster.Password, cfg.Cluster.VerifyTLS)
			return handlers.Probe(cmd.Context(), client, cfg.Cluster.PreferredNode, cmd.OutOrStdout())
		},
	}
}
