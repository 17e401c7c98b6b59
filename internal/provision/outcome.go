package provision

// Class is the result classification of one orchestration attempt.
type Class string

const (
	// ClassSuccess is a clean provisioning run.
	ClassSuccess Class = "success"
	// ClassSuccessWithWarning means the container exists and is usable
	// even though a post-clone step failed.
	ClassSuccessWithWarning Class = "success_with_warning"
	// ClassFailure means no container was provisioned.
	ClassFailure Class = "failure"
)

// Outcome is the transient result of one orchestration attempt. It is
// not persisted here; the caller owns persistence.
type Outcome struct {
	Class Class
	// VMID is the allocated container identifier, set on any success.
	VMID int
	// Node is the cluster node the container was placed on.
	Node string
	// Warnings carries captured step errors on a warned success.
	Warnings []string
	// Reason is the operator-facing diagnostic on failure.
	Reason string
}

// Succeeded reports whether a container was provisioned, with or
// without warnings.
func (o Outcome) Succeeded() bool {
	return o.Class == ClassSuccess || o.Class == ClassSuccessWithWarning
}

// CloneState tracks how far the irreversible part of the clone/start
// sequence got. It is threaded alongside any step error so outcome
// classification is driven by typed state, not by error identity.
type CloneState int

const (
	// StateNotStarted means the clone call never returned success.
	StateNotStarted CloneState = iota
	// StateCloned means the clone call returned without transport
	// error; the container exists on the cluster from here on.
	StateCloned
	// StateStarted means the start call also returned success.
	StateStarted
)

func (s CloneState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateCloned:
		return "cloned"
	case StateStarted:
		return "started"
	}
	return "unknown"
}
