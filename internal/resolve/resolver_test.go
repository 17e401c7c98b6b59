package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pxdesk/pxdesk/internal/proxmox"
)

func nodeLister(nodes ...proxmox.Node) *proxmox.MockClient {
	return &proxmox.MockClient{
		ListNodesFunc: func(_ context.Context) ([]proxmox.Node, error) {
			return nodes, nil
		},
	}
}

func TestNode_PrefersConfiguredNode(t *testing.T) {
	t.Parallel()
	r := New(nodeLister(proxmox.Node{Name: "px2"}, proxmox.Node{Name: "px1"}), "px1", zap.NewNop())

	node, err := r.Node(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "px1", node)
}

func TestNode_FallsBackToFirstReported(t *testing.T) {
	t.Parallel()
	r := New(nodeLister(proxmox.Node{Name: "px2"}, proxmox.Node{Name: "px3"}), "px1", zap.NewNop())

	node, err := r.Node(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "px2", node)
}

func TestNode_EmptyReport(t *testing.T) {
	t.Parallel()
	r := New(nodeLister(), "px1", zap.NewNop())

	_, err := r.Node(context.Background())
	require.ErrorIs(t, err, ErrNoNodeAvailable)
}

func TestNode_TransportError(t *testing.T) {
	t.Parallel()
	api := &proxmox.MockClient{
		ListNodesFunc: func(_ context.Context) ([]proxmox.Node, error) {
			return nil, &proxmox.TransportError{Op: "GET /nodes", Err: errors.New("connection refused")}
		},
	}
	r := New(api, "", zap.NewNop())

	_, err := r.Node(context.Background())
	require.Error(t, err)
	assert.True(t, proxmox.IsTransport(err))
}

func containerLister(containers ...proxmox.Container) *proxmox.MockClient {
	return &proxmox.MockClient{
		ListContainersFunc: func(_ context.Context, _ string) ([]proxmox.Container, error) {
			return containers, nil
		},
	}
}

func TestTemplate_ExactNameBeatsSubstring(t *testing.T) {
	t.Parallel()
	r := New(containerLister(
		proxmox.Container{VMID: 11, Name: "golden-box"},
		proxmox.Container{VMID: 10, Name: "gold"},
	), "", zap.NewNop())

	vmid, err := r.Template(context.Background(), "gold", "px1")
	require.NoError(t, err)
	assert.Equal(t, 10, vmid)
}

func TestTemplate_NumericRefSkipsNameScan(t *testing.T) {
	t.Parallel()
	r := New(containerLister(
		proxmox.Container{VMID: 10, Name: "11"}, // decoy name
		proxmox.Container{VMID: 11, Name: "gold"},
	), "", zap.NewNop())

	vmid, err := r.Template(context.Background(), "11", "px1")
	require.NoError(t, err)
	assert.Equal(t, 11, vmid)
}

func TestTemplate_CaseInsensitiveName(t *testing.T) {
	t.Parallel()
	r := New(containerLister(
		proxmox.Container{VMID: 3335, Name: "CT-Temp"},
	), "", zap.NewNop())

	vmid, err := r.Template(context.Background(), "ct-temp", "px1")
	require.NoError(t, err)
	assert.Equal(t, 3335, vmid)
}

func TestTemplate_SubstringFallback(t *testing.T) {
	t.Parallel()
	r := New(containerLister(
		proxmox.Container{VMID: 3336, Name: "ct-temp2-silver"},
	), "", zap.NewNop())

	vmid, err := r.Template(context.Background(), "silver", "px1")
	require.NoError(t, err)
	assert.Equal(t, 3336, vmid)
}

func TestTemplate_NotFound(t *testing.T) {
	t.Parallel()
	r := New(containerLister(
		proxmox.Container{VMID: 100, Name: "web"},
	), "", zap.NewNop())

	_, err := r.Template(context.Background(), "gold", "px1")
	require.ErrorIs(t, err, ErrTemplateNotFound)
	assert.Contains(t, err.Error(), `"gold"`)
}

func storageLister(pools ...proxmox.StoragePool) *proxmox.MockClient {
	return &proxmox.MockClient{
		ListStorageFunc: func(_ context.Context, _ string) ([]proxmox.StoragePool, error) {
			return pools, nil
		},
	}
}

func TestStorage_Cascade(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		pools []proxmox.StoragePool
		want  string
	}{
		{
			name: "zfspool type wins over everything",
			pools: []proxmox.StoragePool{
				{Name: "local", Type: "dir", Content: "rootdir,images"},
				{Name: "tank", Type: "zfspool", Content: "rootdir"},
			},
			want: "tank",
		},
		{
			name: "zfs in name when no zfspool type",
			pools: []proxmox.StoragePool{
				{Name: "local", Type: "dir", Content: "iso"},
				{Name: "fastzfs", Type: "dir", Content: "iso"},
			},
			want: "fastzfs",
		},
		{
			name: "container content classes",
			pools: []proxmox.StoragePool{
				{Name: "backup", Type: "dir", Content: "backup"},
				{Name: "thinpool", Type: "lvmthin", Content: "rootdir,images"},
			},
			want: "thinpool",
		},
		{
			name: "literal local as last resort",
			pools: []proxmox.StoragePool{
				{Name: "backup", Type: "nfs", Content: "backup"},
				{Name: "local", Type: "nfs", Content: "iso"},
			},
			want: "local",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := New(storageLister(tt.pools...), "", zap.NewNop())
			got, err := r.Storage(context.Background(), "px1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorage_NothingSuitable(t *testing.T) {
	t.Parallel()
	r := New(storageLister(
		proxmox.StoragePool{Name: "backup", Type: "nfs", Content: "backup"},
	), "", zap.NewNop())

	_, err := r.Storage(context.Background(), "px1")
	require.ErrorIs(t, err, ErrNoStorageAvailable)
}

func TestStorage_ListFailure(t *testing.T) {
	t.Parallel()
	api := &proxmox.MockClient{
		ListStorageFunc: func(_ context.Context, _ string) ([]proxmox.StoragePool, error) {
			return nil, fmt.Errorf("boom")
		},
	}
	r := New(api, "", zap.NewNop())

	_, err := r.Storage(context.Background(), "px1")
	require.Error(t, err)
}
