package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pxdesk/pxdesk/internal/credentials"
	"github.com/pxdesk/pxdesk/internal/metrics"
	"github.com/pxdesk/pxdesk/internal/provision"
)

// Provisioner runs one orchestration attempt; satisfied by
// provision.Orchestrator.
type Provisioner interface {
	Provision(ctx context.Context, name, tier, templateRef string) provision.Outcome
}

// CredentialSource builds login material; satisfied by
// credentials.Generator.
type CredentialSource interface {
	Generate(ctx context.Context, name, node string, vmid int) credentials.Credentials
}

// AddressRefresher re-runs address discovery on demand; satisfied by
// discovery.Discoverer.
type AddressRefresher interface {
	Refresh(ctx context.Context, node string, vmid int) (string, bool)
}

// NodeSelector picks the cluster node to query; satisfied by
// resolve.Resolver.
type NodeSelector interface {
	Node(ctx context.Context) (string, error)
}

// Result is what a lifecycle transition hands back to the surrounding
// service.
type Result struct {
	Request *Request
	// Warnings from a warned-success orchestration; surfaced to the
	// operator, not treated as failure.
	Warnings []string
}

// Controller is the request lifecycle state machine. Every approval
// attempt ends in a terminal state: a request is never left pending
// after an approval was tried.
type Controller struct {
	store       Store
	provisioner Provisioner
	creds       CredentialSource
	refresher   AddressRefresher
	nodes       NodeSelector
	// templates maps a tier name to its template reference.
	templates map[string]string
	now       func() time.Time
	log       *zap.Logger
}

// NewController wires the lifecycle state machine.
func NewController(store Store, provisioner Provisioner, creds CredentialSource, refresher AddressRefresher, nodes NodeSelector, templates map[string]string, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		store:       store,
		provisioner: provisioner,
		creds:       creds,
		refresher:   refresher,
		nodes:       nodes,
		templates:   templates,
		now:         time.Now,
		log:         log,
	}
}

// WithClock replaces the time source. Test seam.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// Approve runs the provisioning sequence for a pending request and
// drives it to approved or rejected. An orchestration failure is not an
// error of this call: the request is rejected with the fixed user-facing
// reason and the diagnostic preserved separately.
func (c *Controller) Approve(ctx context.Context, requestID, actorID int64) (*Result, error) {
	req, err := c.store.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request %d: %w", requestID, err)
	}
	if req.Terminal() {
		return nil, fmt.Errorf("request %d is %s: %w", req.ID, req.Status, ErrAlreadyProcessed)
	}

	templateRef, ok := c.templates[req.Tier]
	if !ok {
		return c.rejectWithFailure(ctx, req, actorID,
			fmt.Sprintf("no template configured for tier %q", req.Tier))
	}

	outcome := c.provisioner.Provision(ctx, req.Name, req.Tier, templateRef)
	if !outcome.Succeeded() {
		return c.rejectWithFailure(ctx, req, actorID, outcome.Reason)
	}

	now := c.now()
	req.Status = StatusApproved
	req.VMID = outcome.VMID
	req.ApprovedBy = actorID
	req.ApprovedAt = &now
	req.UpdatedAt = now

	creds := c.creds.Generate(ctx, req.Name, outcome.Node, outcome.VMID)
	req.Hostname = creds.Hostname
	req.IPAddress = normalizeAddress(creds.Address)
	req.Username = creds.Username
	req.Password = creds.Password
	req.SSHKey = ""

	if err := c.store.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist approval of request %d: %w", req.ID, err)
	}

	metrics.LifecycleTransitions.WithLabelValues(string(StatusApproved)).Inc()
	c.log.Info("request approved",
		zap.Int64("request", req.ID),
		zap.Int64("actor", actorID),
		zap.Int("vmid", req.VMID),
		zap.Strings("warnings", outcome.Warnings))
	return &Result{Request: req, Warnings: outcome.Warnings}, nil
}

// rejectWithFailure drives a request to rejected after a failed
// approval attempt. The user sees the fixed reason; the diagnostic is
// stored separately for triage.
func (c *Controller) rejectWithFailure(ctx context.Context, req *Request, actorID int64, detail string) (*Result, error) {
	now := c.now()
	req.Status = StatusRejected
	req.RejectedBy = actorID
	req.RejectedAt = &now
	req.RejectionReason = RejectionReasonTechnical
	req.ErrorDetail = detail
	req.UpdatedAt = now

	if err := c.store.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist rejection of request %d: %w", req.ID, err)
	}

	metrics.LifecycleTransitions.WithLabelValues(string(StatusRejected)).Inc()
	c.log.Warn("request rejected after failed provisioning",
		zap.Int64("request", req.ID),
		zap.Int64("actor", actorID),
		zap.String("detail", detail))
	return &Result{Request: req}, nil
}

// Reject records an administrative rejection with a free-text reason.
func (c *Controller) Reject(ctx context.Context, requestID, actorID int64, reason string) (*Result, error) {
	req, err := c.store.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request %d: %w", requestID, err)
	}
	if req.Terminal() {
		return nil, fmt.Errorf("request %d is %s: %w", req.ID, req.Status, ErrAlreadyProcessed)
	}

	if reason == "" {
		reason = "No reason given"
	}
	now := c.now()
	req.Status = StatusRejected
	req.RejectedBy = actorID
	req.RejectedAt = &now
	req.RejectionReason = reason
	req.UpdatedAt = now

	if err := c.store.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist rejection of request %d: %w", req.ID, err)
	}

	metrics.LifecycleTransitions.WithLabelValues(string(StatusRejected)).Inc()
	c.log.Info("request rejected",
		zap.Int64("request", req.ID),
		zap.Int64("actor", actorID))
	return &Result{Request: req}, nil
}

// RefreshAddress re-runs address discovery for an approved request and
// updates the stored address if one is found. This is the only mutation
// allowed on a terminal request. The boolean reports whether an address
// was found; not finding one is a normal pending condition.
func (c *Controller) RefreshAddress(ctx context.Context, requestID int64) (string, bool, error) {
	req, err := c.store.Get(ctx, requestID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load request %d: %w", requestID, err)
	}
	if req.VMID == 0 {
		return "", false, fmt.Errorf("request %d has no container", requestID)
	}

	node, err := c.nodes.Node(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to select node: %w", err)
	}

	addr, found := c.refresher.Refresh(ctx, node, req.VMID)
	if !found {
		return "", false, nil
	}

	req.IPAddress = addr
	req.UpdatedAt = c.now()
	if err := c.store.Save(ctx, req); err != nil {
		return "", false, fmt.Errorf("failed to persist address of request %d: %w", req.ID, err)
	}
	return addr, true, nil
}

// PruneStale deletes rejected requests older than maxAge, keeping the
// request list manageable over time.
func (c *Controller) PruneStale(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := c.now().Add(-maxAge)
	stale, err := c.store.ListRejectedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale requests: %w", err)
	}

	pruned := 0
	for _, req := range stale {
		if err := c.store.Delete(ctx, req.ID); err != nil {
			return pruned, fmt.Errorf("failed to delete request %d: %w", req.ID, err)
		}
		pruned++
	}
	if pruned > 0 {
		c.log.Info("pruned stale requests", zap.Int("count", pruned))
	}
	return pruned, nil
}

// normalizeAddress maps clearly non-actionable placeholder values from
// the discovery subsystem to unset.
func normalizeAddress(addr string) string {
	if addr == "" || addr == "IP not available" || strings.HasPrefix(addr, "Check ") {
		return ""
	}
	return addr
}
