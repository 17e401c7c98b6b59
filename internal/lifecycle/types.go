// Package lifecycle drives a provisioning request through its
// pending/approved/rejected progression and records the operator-facing
// outcome of each transition.
package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// The three fixed container tiers users can request.
const (
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"
)

// ErrInvalidTier rejects a request for an unknown tier.
var ErrInvalidTier = errors.New("invalid tier")

// ErrAlreadyProcessed rejects a redundant lifecycle transition. A
// terminal request stays as it is; a new request must be filed.
var ErrAlreadyProcessed = errors.New("request already processed")

// RejectionReasonTechnical is the fixed user-facing reason stored when
// an approval attempt fails. The raw diagnostic goes to ErrorDetail,
// which only operators see.
const RejectionReasonTechnical = "Unable to create the container due to technical problems. Contact the administrator for more information."

// Request is one user's provisioning request. The controller
// exclusively owns the status and audit fields; persistence itself is
// the Store's concern.
type Request struct {
	ID          int64
	UserID      int64
	Tier        string
	Name        string
	Description string
	Status      Status

	// Populated once approved.
	VMID      int
	Hostname  string
	IPAddress string
	Username  string
	Password  string
	// SSHKey is reserved and stays empty.
	SSHKey string

	// Audit trail.
	ApprovedBy int64
	ApprovedAt *time.Time
	RejectedBy int64
	RejectedAt *time.Time
	// RejectionReason is shown to the requesting user.
	RejectionReason string
	// ErrorDetail is the internal diagnostic kept for operator triage.
	ErrorDetail string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRequest builds a pending request, validating the tier.
func NewRequest(userID int64, tier, name, description string) (*Request, error) {
	switch tier {
	case TierBronze, TierSilver, TierGold:
	default:
		return nil, fmt.Errorf("tier %q: %w", tier, ErrInvalidTier)
	}
	if name == "" {
		return nil, errors.New("request name must not be empty")
	}
	now := time.Now()
	return &Request{
		UserID:      userID,
		Tier:        tier,
		Name:        name,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Terminal reports whether the request has left the pending state.
func (r *Request) Terminal() bool {
	return r.Status != StatusPending
}
