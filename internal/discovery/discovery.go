// Package discovery finds the network address of a freshly provisioned
// container.
//
// The hypervisor's reported interface list is eventually consistent: a
// container that just started may report nothing, or only loopback, for
// tens of seconds. Discovery therefore polls with a bounded constant
// backoff and treats exhaustion as "not yet available", never as an
// error.
package discovery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/pxdesk/pxdesk/internal/metrics"
	"github.com/pxdesk/pxdesk/internal/proxmox"
)

const (
	defaultAttempts = 15
	defaultPause    = 2 * time.Second

	loopbackName   = "lo"
	loopbackPrefix = "127."
)

// errNoAddressYet drives the retry loop; it never escapes Discover.
var errNoAddressYet = errors.New("no qualifying interface yet")

// InterfaceLister is the slice of the cluster API discovery needs.
type InterfaceLister interface {
	ContainerInterfaces(ctx context.Context, node string, vmid int) ([]proxmox.NetworkInterface, error)
}

// Discoverer polls a container's interfaces until a usable address
// appears or attempts are exhausted.
type Discoverer struct {
	api      InterfaceLister
	attempts int
	pause    time.Duration
	log      *zap.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithAttempts overrides the attempt budget.
func WithAttempts(n int) Option {
	return func(d *Discoverer) { d.attempts = n }
}

// WithPause overrides the pause between attempts.
func WithPause(p time.Duration) Option {
	return func(d *Discoverer) { d.pause = p }
}

// New creates a Discoverer with the default 15-attempt, 2-second policy.
func New(api InterfaceLister, log *zap.Logger, opts ...Option) *Discoverer {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Discoverer{
		api:      api,
		attempts: defaultAttempts,
		pause:    defaultPause,
		log:      log,
	}
	for _, opt := range opts {
		opt(d)
	}
	// The retry budget below is attempts-1; anything under one attempt
	// would wrap around into an unbounded loop.
	if d.attempts < 1 {
		d.attempts = 1
	}
	return d
}

// Discover polls the container's interfaces and returns the first
// usable address. The second return is false when no address appeared
// within the attempt budget; the caller surfaces that as a retryable
// "not yet available" condition, not a failure.
//
// Transport errors on individual attempts are swallowed and counted as
// failed attempts; the loop keeps going.
func (d *Discoverer) Discover(ctx context.Context, node string, vmid int) (string, bool) {
	var addr string
	attempt := 0

	operation := func() error {
		attempt++
		ifaces, err := d.api.ContainerInterfaces(ctx, node, vmid)
		if err != nil {
			d.log.Debug("interface query failed, counting as attempt",
				zap.Int("vmid", vmid),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return errNoAddressYet
		}
		if ip, ok := firstUsableAddress(ifaces); ok {
			addr = ip
			return nil
		}
		return errNoAddressYet
	}

	// No pause before the first attempt, a constant pause before each
	// attempt after it.
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.pause), uint64(d.attempts-1)),
		ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		metrics.DiscoveryResults.WithLabelValues("exhausted").Inc()
		d.log.Info("address discovery exhausted",
			zap.String("node", node),
			zap.Int("vmid", vmid),
			zap.Int("attempts", attempt))
		return "", false
	}

	metrics.DiscoveryResults.WithLabelValues("found").Inc()
	metrics.DiscoveryAttempts.Observe(float64(attempt))
	d.log.Info("address discovered",
		zap.String("node", node),
		zap.Int("vmid", vmid),
		zap.String("address", addr),
		zap.Int("attempts", attempt))
	return addr, true
}

// Refresh re-runs the same bounded loop on demand, e.g. for a
// user-triggered address lookup after initial provisioning.
func (d *Discoverer) Refresh(ctx context.Context, node string, vmid int) (string, bool) {
	return d.Discover(ctx, node, vmid)
}

// firstUsableAddress returns the host part of the first reported
// interface that is not loopback and carries a non-loopback address.
func firstUsableAddress(ifaces []proxmox.NetworkInterface) (string, bool) {
	for _, iface := range ifaces {
		if iface.Name == loopbackName || iface.Inet == "" {
			continue
		}
		ip := iface.Inet
		if i := strings.IndexByte(ip, '/'); i >= 0 {
			ip = ip[:i]
		}
		if ip == "" || strings.HasPrefix(ip, loopbackPrefix) {
			continue
		}
		return ip, true
	}
	return "", false
}
