package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pxdesk/pxdesk/internal/proxmox"
)

// interfaceSequence replays one canned response per attempt, repeating
// the last one when attempts run past the script.
type interfaceSequence struct {
	calls     int
	responses []func() ([]proxmox.NetworkInterface, error)
}

func (s *interfaceSequence) ContainerInterfaces(_ context.Context, _ string, _ int) ([]proxmox.NetworkInterface, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return s.responses[i]()
}

func noInterfaces() ([]proxmox.NetworkInterface, error) { return nil, nil }

func eth0With(addr string) func() ([]proxmox.NetworkInterface, error) {
	return func() ([]proxmox.NetworkInterface, error) {
		return []proxmox.NetworkInterface{
			{Name: "lo", Inet: "127.0.0.1/8"},
			{Name: "eth0", Inet: addr},
		}, nil
	}
}

func TestDiscover_ExhaustsExactlyAllAttempts(t *testing.T) {
	t.Parallel()
	seq := &interfaceSequence{responses: []func() ([]proxmox.NetworkInterface, error){noInterfaces}}
	d := New(seq, zap.NewNop(), WithPause(0))

	addr, found := d.Discover(context.Background(), "px1", 142)
	assert.False(t, found)
	assert.Empty(t, addr)
	assert.Equal(t, 15, seq.calls)
}

func TestDiscover_AttemptBudgetFloorsAtOne(t *testing.T) {
	t.Parallel()
	seq := &interfaceSequence{responses: []func() ([]proxmox.NetworkInterface, error){noInterfaces}}
	d := New(seq, zap.NewNop(), WithAttempts(0), WithPause(0))

	_, found := d.Discover(context.Background(), "px1", 142)
	assert.False(t, found)
	assert.Equal(t, 1, seq.calls, "a zero budget must not poll forever")
}

func TestDiscover_ShortCircuitsOnFirstHit(t *testing.T) {
	t.Parallel()
	seq := &interfaceSequence{responses: []func() ([]proxmox.NetworkInterface, error){
		noInterfaces,
		noInterfaces,
		eth0With("192.168.56.30/24"),
	}}
	d := New(seq, zap.NewNop(), WithPause(0))

	addr, found := d.Discover(context.Background(), "px1", 142)
	require.True(t, found)
	assert.Equal(t, "192.168.56.30", addr)
	assert.Equal(t, 3, seq.calls, "no polling past the first hit")
}

func TestDiscover_IgnoresLoopback(t *testing.T) {
	t.Parallel()
	seq := &interfaceSequence{responses: []func() ([]proxmox.NetworkInterface, error){
		func() ([]proxmox.NetworkInterface, error) {
			return []proxmox.NetworkInterface{
				{Name: "lo", Inet: "127.0.0.1/8"},
				// A non-lo interface can still report a loopback-range
				// address while the stack settles.
				{Name: "eth0", Inet: "127.0.1.1/8"},
			}, nil
		},
	}}
	d := New(seq, zap.NewNop(), WithAttempts(2), WithPause(0))

	_, found := d.Discover(context.Background(), "px1", 142)
	assert.False(t, found)
}

func TestDiscover_SkipsAddresslessInterfaces(t *testing.T) {
	t.Parallel()
	seq := &interfaceSequence{responses: []func() ([]proxmox.NetworkInterface, error){
		func() ([]proxmox.NetworkInterface, error) {
			return []proxmox.NetworkInterface{
				{Name: "eth0", Inet: ""},
				{Name: "eth1", Inet: "10.0.0.7/16"},
			}, nil
		},
	}}
	d := New(seq, zap.NewNop(), WithPause(0))

	addr, found := d.Discover(context.Background(), "px1", 142)
	require.True(t, found)
	assert.Equal(t, "10.0.0.7", addr)
}

func TestDiscover_TransportErrorCountsAsAttempt(t *testing.T) {
	t.Parallel()
	transport := func() ([]proxmox.NetworkInterface, error) {
		return nil, &proxmox.TransportError{Op: "GET interfaces", Err: errors.New("timeout")}
	}
	seq := &interfaceSequence{responses: []func() ([]proxmox.NetworkInterface, error){
		transport,
		transport,
		eth0With("192.168.56.31/24"),
	}}
	d := New(seq, zap.NewNop(), WithPause(0))

	addr, found := d.Discover(context.Background(), "px1", 142)
	require.True(t, found)
	assert.Equal(t, "192.168.56.31", addr)
	assert.Equal(t, 3, seq.calls)
}

func TestRefresh_RunsTheSameLoop(t *testing.T) {
	t.Parallel()
	seq := &interfaceSequence{responses: []func() ([]proxmox.NetworkInterface, error){
		eth0With("192.168.56.40/24"),
	}}
	d := New(seq, zap.NewNop(), WithPause(0))

	addr, found := d.Refresh(context.Background(), "px1", 142)
	require.True(t, found)
	assert.Equal(t, "192.168.56.40", addr)
}

func TestFirstUsableAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		ifaces []proxmox.NetworkInterface
		want   string
		ok     bool
	}{
		{name: "empty list", ifaces: nil, ok: false},
		{
			name:   "loopback only",
			ifaces: []proxmox.NetworkInterface{{Name: "lo", Inet: "127.0.0.1/8"}},
			ok:     false,
		},
		{
			name: "first qualifying wins",
			ifaces: []proxmox.NetworkInterface{
				{Name: "eth0", Inet: "192.168.1.5/24"},
				{Name: "eth1", Inet: "10.0.0.5/8"},
			},
			want: "192.168.1.5",
			ok:   true,
		},
		{
			name:   "bare address without mask",
			ifaces: []proxmox.NetworkInterface{{Name: "eth0", Inet: "172.16.0.9"}},
			want:   "172.16.0.9",
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := firstUsableAddress(tt.ifaces)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
