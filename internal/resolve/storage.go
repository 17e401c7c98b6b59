package resolve

import (
	"strings"

	"github.com/pxdesk/pxdesk/internal/proxmox"
)

// storageRule is one step of the storage resolution cascade.
type storageRule struct {
	name  string
	match func(pool proxmox.StoragePool) bool
}

// storageRules in precedence order. Cluster storage naming is
// inconsistent across deployments, so resolution degrades through ever
// looser heuristics instead of failing outright.
var storageRules = []storageRule{
	{name: "zfs-pool-type", match: byZFSPoolType},
	{name: "zfs-in-name", match: byZFSName},
	{name: "localzfs-name", match: byLocalZFSName},
	{name: "container-content", match: byContainerContent},
	{name: "literal-local", match: byLiteralLocal},
}

func byZFSPoolType(pool proxmox.StoragePool) bool {
	return pool.Type == "zfspool"
}

func byZFSName(pool proxmox.StoragePool) bool {
	return pool.Name != "" && strings.Contains(strings.ToLower(pool.Name), "zfs")
}

func byLocalZFSName(pool proxmox.StoragePool) bool {
	low := strings.ToLower(pool.Name)
	return low == "localzfs" || low == "local-zfs"
}

// byContainerContent accepts pools that can hold container root
// filesystems or disk images on a backend type that supports them.
func byContainerContent(pool proxmox.StoragePool) bool {
	if !strings.Contains(pool.Content, "rootdir") && !strings.Contains(pool.Content, "images") {
		return false
	}
	switch pool.Type {
	case "dir", "zfspool", "lvm", "lvmthin":
		return true
	}
	return false
}

func byLiteralLocal(pool proxmox.StoragePool) bool {
	return pool.Name == "local"
}
