// Package proxmox provides a wrapper around the Proxmox VE management API.
package proxmox

import (
	"context"
)

// NodeLister reports the member nodes of the cluster.
type NodeLister interface {
	// ListNodes returns the nodes currently reported by the cluster,
	// in report order.
	ListNodes(ctx context.Context) ([]Node, error)
}

// ContainerManager defines the container operations used during provisioning.
// It abstracts the underlying hypervisor API.
type ContainerManager interface {
	// ListContainers returns the LXC containers on the given node.
	ListContainers(ctx context.Context, node string) ([]Container, error)

	// CloneContainer creates a full clone of templateID as newID on the node.
	CloneContainer(ctx context.Context, node string, templateID, newID int, hostname string) error

	// CreateContainer creates a container from scratch with the given options.
	CreateContainer(ctx context.Context, node string, opts CreateOptions) error

	// StartContainer starts the container. The container may already be
	// starting; callers decide whether that matters.
	StartContainer(ctx context.Context, node string, vmid int) error

	// ContainerStatus returns the current status of the container.
	ContainerStatus(ctx context.Context, node string, vmid int) (ContainerStatus, error)

	// ContainerInterfaces returns the network interfaces the hypervisor
	// currently reports for the container. The list is eventually
	// consistent; a freshly started container may report nothing for a
	// while.
	ContainerInterfaces(ctx context.Context, node string, vmid int) ([]NetworkInterface, error)
}

// StorageLister reports storage pools and their content.
type StorageLister interface {
	// ListStorage returns the storage pools available on the node.
	ListStorage(ctx context.Context, node string) ([]StoragePool, error)

	// ListStorageContent returns the volumes stored on a pool.
	ListStorageContent(ctx context.Context, node, storage string) ([]Volume, error)
}

// IDAllocator hands out cluster-unique container identifiers.
type IDAllocator interface {
	// NextID returns the next free container identifier the cluster
	// is willing to assign.
	NextID(ctx context.Context) (int, error)
}

// API is the full cluster surface the provisioning core depends on.
type API interface {
	NodeLister
	ContainerManager
	StorageLister
	IDAllocator
}
