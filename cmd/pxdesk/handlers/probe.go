// Package handlers implements the CLI command logic against the
// provisioning core, keeping cobra wiring out of the way of tests.
package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/pxdesk/pxdesk/internal/proxmox"
)

// Probe walks the cluster surface the portal depends on and writes a
// report: nodes, the containers and storage pools on the working node,
// and the next free identifier. It fails on the first unreachable call.
func Probe(ctx context.Context, api proxmox.API, preferredNode string, out io.Writer) error {
	nodes, err := api.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("cluster unreachable: %w", err)
	}
	if len(nodes) == 0 {
		return fmt.Errorf("cluster reported no nodes")
	}

	fmt.Fprintf(out, "nodes (%d):\n", len(nodes))
	node := nodes[0].Name
	for _, n := range nodes {
		marker := " "
		if n.Name == preferredNode {
			marker = "*"
			node = n.Name
		}
		fmt.Fprintf(out, " %s %s (%s)\n", marker, n.Name, n.Status)
	}

	containers, err := api.ListContainers(ctx, node)
	if err != nil {
		return fmt.Errorf("failed to list containers on %s: %w", node, err)
	}
	fmt.Fprintf(out, "containers on %s (%d):\n", node, len(containers))
	for _, c := range containers {
		fmt.Fprintf(out, "   %d %s (%s)\n", c.VMID, c.Name, c.Status)
	}

	pools, err := api.ListStorage(ctx, node)
	if err != nil {
		return fmt.Errorf("failed to list storage on %s: %w", node, err)
	}
	fmt.Fprintf(out, "storage on %s (%d):\n", node, len(pools))
	for _, p := range pools {
		fmt.Fprintf(out, "   %s type=%s content=%s\n", p.Name, p.Type, p.Content)
	}

	nextID, err := api.NextID(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch next free id: %w", err)
	}
	fmt.Fprintf(out, "next free id: %d\n", nextID)
	return nil
}
