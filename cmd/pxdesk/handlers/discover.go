package handlers

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pxdesk/pxdesk/internal/discovery"
	"github.com/pxdesk/pxdesk/internal/proxmox"
)

// Discover re-runs the bounded address discovery loop for a container
// and reports the result. Not finding an address is printed, not
// returned as an error: the container may simply not be up yet.
func Discover(ctx context.Context, api proxmox.API, log *zap.Logger, node string, vmid int, out io.Writer) error {
	d := discovery.New(api, log)
	addr, found := d.Discover(ctx, node, vmid)
	if !found {
		fmt.Fprintf(out, "container %d on %s: no address yet, try again later\n", vmid, node)
		return nil
	}
	fmt.Fprintf(out, "container %d on %s: %s\n", vmid, node, addr)
	return nil
}
