package respond

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notifier abstracts the outbound side channel for alert_admin/notify_admin
// actions — a nil-safe interface lets a responder run with no configured
// channel at all, mirroring pkg/slack.Service's "nil-safe, fail-open"
// style.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Executor carries out one Action against a specific agent. Implementations
// are side-effect-only: trust/quarantine state lives in pkg/trust, not here.
type Executor interface {
	Execute(ctx context.Context, agentID string, action Action) error
}

// PendingAction records an in-flight action for the reconciliation sweep
// (spec.md §5): actions are at-least-once, so a crash between "executed"
// and "acknowledged" must not silently lose the record.
type PendingAction struct {
	ID        string
	AgentID   string
	Action    Action
	CreatedAt time.Time
	ExpiresAt time.Time
	Done      bool
}

// PendingActionStore tracks actions until they are acknowledged or time out.
type PendingActionStore struct {
	mu      sync.Mutex
	pending map[string]*PendingAction
}

// NewPendingActionStore returns an empty store.
func NewPendingActionStore() *PendingActionStore {
	return &PendingActionStore{pending: make(map[string]*PendingAction)}
}

// Track records a new pending action and returns its id.
func (s *PendingActionStore) Track(agentID string, action Action, ttl time.Duration, now time.Time) string {
	id := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = &PendingAction{
		ID:        id,
		AgentID:   agentID,
		Action:    action,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return id
}

// Ack marks a pending action as completed.
func (s *PendingActionStore) Ack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[id]; ok {
		p.Done = true
	}
}

// Sweep removes acknowledged or expired entries as of now, returning the
// ones that expired without being acknowledged (candidates for retry).
func (s *PendingActionStore) Sweep(now time.Time) []*PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []*PendingAction
	for id, p := range s.pending {
		switch {
		case p.Done:
			delete(s.pending, id)
		case now.After(p.ExpiresAt):
			expired = append(expired, p)
			delete(s.pending, id)
		}
	}
	return expired
}

// Responder executes a Response's actions against one agent and records
// each as pending until acknowledged. Each action is executed once; one
// that fails stays pending until the reconciliation sweep drops it after
// its duration, and is not retried.
type Responder struct {
	Executor Executor
	Notifier Notifier
	Pending  *PendingActionStore
	logger   *slog.Logger
}

// NewResponder builds a Responder. A nil notifier disables alert_admin
// delivery without affecting any other action.
func NewResponder(exec Executor, notifier Notifier) *Responder {
	return &Responder{
		Executor: exec,
		Notifier: notifier,
		Pending:  NewPendingActionStore(),
		logger:   slog.Default().With("component", "respond"),
	}
}

// Apply executes every action in resp against agentID in order, tracking
// each as pending, and returns the ids it tracked. Execution failures are
// logged, not returned — actions are fire-and-forget from the caller's
// perspective; C7 records the outcome in the audit log separately.
func (r *Responder) Apply(ctx context.Context, agentID string, resp Response, now time.Time) []string {
	ids := make([]string, 0, len(resp.Actions))
	for _, action := range resp.Actions {
		id := r.Pending.Track(agentID, action, resp.Duration, now)
		ids = append(ids, id)

		if err := r.execute(ctx, agentID, action); err != nil {
			r.logger.Error("adaptive action failed", "agent_id", agentID, "action", action, "error", err)
			continue
		}
		r.Pending.Ack(id)
	}
	return ids
}

func (r *Responder) execute(ctx context.Context, agentID string, action Action) error {
	if action == ActionAlertAdmin || action == ActionQuarantine {
		r.notify(ctx, agentID, action)
	}
	if r.Executor == nil {
		return nil
	}
	return r.Executor.Execute(ctx, agentID, action)
}

func (r *Responder) notify(ctx context.Context, agentID string, action Action) {
	if r.Notifier == nil {
		return
	}
	subject := "trustmesh adaptive response"
	body := agentID + ": " + string(action)
	if err := r.Notifier.Notify(ctx, subject, body); err != nil {
		r.logger.Warn("admin notification failed", "agent_id", agentID, "action", action, "error", err)
	}
}
