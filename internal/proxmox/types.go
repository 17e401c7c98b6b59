package proxmox

// Node is a member host of the cluster.
type Node struct {
	// Name is the node name as reported by the cluster, e.g. "px1".
	Name string `json:"node"`
	// Status is the node status string, e.g. "online".
	Status string `json:"status"`
}

// Container is an LXC container as reported by a node listing.
type Container struct {
	VMID   int    `json:"vmid"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ContainerStatus is the current runtime status of a container.
type ContainerStatus struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

// StoragePool is a storage pool as reported by a node.
type StoragePool struct {
	// Name is the pool identifier, e.g. "local-zfs".
	Name string `json:"storage"`
	// Type is the backend type, e.g. "zfspool", "dir", "lvmthin".
	Type string `json:"type"`
	// Content is the comma-separated content classes the pool accepts,
	// e.g. "rootdir,images".
	Content string `json:"content"`
}

// Volume is a single stored volume on a pool.
type Volume struct {
	VolID   string `json:"volid"`
	Content string `json:"content"`
}

// NetworkInterface is one interface the hypervisor reports for a
// running container at a single polling instant.
type NetworkInterface struct {
	Name string `json:"name"`
	// Inet is the IPv4 address in CIDR notation, empty when the
	// interface has not been assigned one yet.
	Inet string `json:"inet"`
}

// CreateOptions describes a from-scratch container creation.
type CreateOptions struct {
	VMID       int
	OSTemplate string
	Hostname   string
	Cores      int
	// MemoryMB and SwapMB are in megabytes, the unit the API expects.
	MemoryMB int
	SwapMB   int
	// RootFS is the rootfs volume spec, e.g. "local-zfs:8".
	RootFS       string
	Net0         string
	Password     string
	Unprivileged bool
}
