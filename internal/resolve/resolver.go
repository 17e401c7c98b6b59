// Package resolve maps abstract provisioning inputs onto concrete
// cluster resources: a node to run on, a template to clone, a storage
// pool to back the container.
//
// Every resolution is an ordered list of rules evaluated in sequence;
// the first match wins. The ordering is a precision-over-recall policy:
// exact matches must beat fuzzy ones so a clone never starts from the
// wrong template.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pxdesk/pxdesk/internal/proxmox"
)

var (
	// ErrNoNodeAvailable is returned when the cluster reports no nodes.
	ErrNoNodeAvailable = errors.New("no cluster node available")

	// ErrTemplateNotFound is returned when no container on the node
	// matches the template reference under any rule.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrNoStorageAvailable is returned when no storage pool matches
	// any heuristic.
	ErrNoStorageAvailable = errors.New("no suitable storage available")
)

// Resolver performs heuristic resource matching against the cluster.
type Resolver struct {
	api           proxmox.API
	preferredNode string
	log           *zap.Logger
}

// New creates a Resolver. preferredNode may be empty; the first
// reported node is used then.
func New(api proxmox.API, preferredNode string, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{api: api, preferredNode: preferredNode, log: log}
}

// Node selects the cluster node to provision on: the configured
// preferred node if the cluster reports it, otherwise the first node in
// report order.
func (r *Resolver) Node(ctx context.Context) (string, error) {
	nodes, err := r.api.ListNodes(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list nodes: %w", err)
	}
	if len(nodes) == 0 {
		return "", ErrNoNodeAvailable
	}

	if r.preferredNode != "" {
		for _, n := range nodes {
			if n.Name == r.preferredNode {
				return n.Name, nil
			}
		}
	}
	return nodes[0].Name, nil
}

// Template resolves a template reference to a container identifier on
// the node. See templateRules for the precedence.
func (r *Resolver) Template(ctx context.Context, ref, node string) (int, error) {
	containers, err := r.api.ListContainers(ctx, node)
	if err != nil {
		return 0, fmt.Errorf("failed to list containers on %s: %w", node, err)
	}

	for _, rule := range templateRules {
		if vmid, ok := rule.match(ref, containers); ok {
			r.log.Debug("template resolved",
				zap.String("ref", ref),
				zap.String("rule", rule.name),
				zap.Int("vmid", vmid))
			return vmid, nil
		}
	}
	return 0, fmt.Errorf("template %q on node %s: %w", ref, node, ErrTemplateNotFound)
}

// Storage selects a storage pool on the node. See storageRules for the
// fallback cascade.
func (r *Resolver) Storage(ctx context.Context, node string) (string, error) {
	pools, err := r.api.ListStorage(ctx, node)
	if err != nil {
		return "", fmt.Errorf("failed to list storage on %s: %w", node, err)
	}

	for _, rule := range storageRules {
		for _, pool := range pools {
			if rule.match(pool) {
				r.log.Debug("storage resolved",
					zap.String("pool", pool.Name),
					zap.String("rule", rule.name))
				return pool.Name, nil
			}
		}
	}
	return "", fmt.Errorf("node %s: %w", node, ErrNoStorageAvailable)
}
