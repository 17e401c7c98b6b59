package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned by a Store when no request has the given id.
var ErrNotFound = errors.New("request not found")

// Store is the persistence boundary. The surrounding service owns the
// actual storage; the controller only loads, mutates and commits
// request records through it.
//
// The pending check in the controller is read-then-write: nothing here
// guarantees a compare-and-swap, so two concurrent approvals of the
// same request can race. Known gap.
type Store interface {
	// Get loads a request by identifier.
	Get(ctx context.Context, id int64) (*Request, error)
	// Save commits a request, assigning an identifier on first save.
	Save(ctx context.Context, req *Request) error
	// ListRejectedBefore returns rejected requests whose rejection
	// predates cutoff.
	ListRejectedBefore(ctx context.Context, cutoff time.Time) ([]*Request, error)
	// Delete removes a request.
	Delete(ctx context.Context, id int64) error
}

// MemoryStore is an in-process Store for tests and embedding without a
// database.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	reqs   map[int64]*Request
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, reqs: make(map[int64]*Request)}
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reqs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == 0 {
		req.ID = s.nextID
		s.nextID++
	}
	cp := *req
	s.reqs[req.ID] = &cp
	return nil
}

func (s *MemoryStore) ListRejectedBefore(_ context.Context, cutoff time.Time) ([]*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Request
	for _, req := range s.reqs {
		if req.Status != StatusRejected || req.RejectedAt == nil {
			continue
		}
		if req.RejectedAt.Before(cutoff) {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reqs[id]; !ok {
		return ErrNotFound
	}
	delete(s.reqs, id)
	return nil
}
