package vmid

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/pxdesk/pxdesk/internal/proxmox"
)

func TestNext_UsesClusterID(t *testing.T) {
	t.Parallel()
	api := &proxmox.MockClient{
		NextIDFunc: func(_ context.Context) (int, error) { return 4210, nil },
	}
	a := New(api, zap.NewNop())

	assert.Equal(t, 4210, a.Next(context.Background()))
}

func TestNext_FallsBackOnTransportError(t *testing.T) {
	t.Parallel()
	api := &proxmox.MockClient{
		NextIDFunc: func(_ context.Context) (int, error) {
			return 0, &proxmox.TransportError{Op: "GET /cluster/nextid", Err: errors.New("timeout")}
		},
	}
	a := New(api, zap.NewNop()).WithRand(rand.New(rand.NewPCG(1, 2)))

	for range 50 {
		id := a.Next(context.Background())
		assert.GreaterOrEqual(t, id, 100)
		assert.LessOrEqual(t, id, 999)
	}
}

func TestNext_NoFallbackOnSuccess(t *testing.T) {
	t.Parallel()
	calls := 0
	api := &proxmox.MockClient{
		NextIDFunc: func(_ context.Context) (int, error) {
			calls++
			return 150, nil
		},
	}
	a := New(api, zap.NewNop())

	id := a.Next(context.Background())
	assert.Equal(t, 150, id)
	assert.Equal(t, 1, calls)
}
