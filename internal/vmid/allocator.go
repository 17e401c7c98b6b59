// Package vmid allocates container identifiers.
package vmid

import (
	"context"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/pxdesk/pxdesk/internal/proxmox"
)

// Local fallback identifier range.
const (
	fallbackMin = 100
	fallbackMax = 999
)

// Allocator obtains cluster-unique container identifiers, degrading to
// a local pseudo-random identifier when the cluster cannot supply one.
//
// The fallback keeps provisioning usable during partial API degradation
// but can collide with an identifier the cluster mints concurrently;
// there is no cross-process exclusivity. Known limitation.
type Allocator struct {
	api  proxmox.IDAllocator
	rand *rand.Rand
	log  *zap.Logger
}

// New creates an Allocator backed by the cluster's next-free-id call.
func New(api proxmox.IDAllocator, log *zap.Logger) *Allocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Allocator{
		api:  api,
		rand: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:  log,
	}
}

// WithRand replaces the fallback random source. Test seam.
func (a *Allocator) WithRand(r *rand.Rand) *Allocator {
	a.rand = r
	return a
}

// Next returns the next container identifier to use. A cluster-assigned
// identifier is preferred; any failure to obtain one falls back to a
// local pseudo-random identifier in [100, 999].
func (a *Allocator) Next(ctx context.Context) int {
	id, err := a.api.NextID(ctx)
	if err != nil {
		fallback := fallbackMin + a.rand.IntN(fallbackMax-fallbackMin+1)
		a.log.Warn("cluster id allocation failed, using local fallback",
			zap.Error(err),
			zap.Int("vmid", fallback))
		return fallback
	}
	return id
}
