package commands

import (
	"github.com/spf13/cobra"

	"github.com/pxdesk/pxdesk/cmd/pxdesk/handlers"
	"github.com/pxdesk/pxdesk/internal/config"
	"github.com/pxdesk/pxdesk/internal/logger"
	"github.com/pxdesk/pxdesk/internal/proxmox"
)

// Discover returns the command that re-runs address discovery for a
// provisioned container.
func Discover() *cobra.Command {
	var (
		node string
		vmid int
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Poll a container's interfaces until an address appears",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			log, err := logger.New(verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			client := proxmox.NewRealClient(
				cfg.Cluster.Host, cfg.Cluster.User, cfg.Cluster.Password, cfg.Cluster.VerifyTLS)
			if node == "" {
				node = cfg.Cluster.PreferredNode
			}
			return handlers.Discover(cmd.Context(), client, log, node, vmid, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&node, "node", "", "cluster node the container runs on (default: preferred node)")
	cmd.Flags().IntVar(&vmid, "vmid", 0, "container identifier")
	_ = cmd.MarkFlagRequired("vmid")
	return cmd
}
