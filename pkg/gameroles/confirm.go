package gameroles

import (
	"sync"
	"time"
)

// ConfirmState is the lifecycle of a pending detection confirmation.
type ConfirmState int

const (
	StateProposed ConfirmState = iota
	StateConfirmed
	StateCancelled
	StateExpired
)

func (s ConfirmState) String() string {
	switch s {
	case StateProposed:
		return "proposed"
	case StateConfirmed:
		return "confirmed"
	case StateCancelled:
		return "cancelled"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// PendingDetect holds a proposed match list awaiting moderator
// confirmation. Exactly one terminal transition happens: Confirm hands out
// the payload once, Cancel and the expiry timer drop it. A second click on
// the confirm button before the message is disabled cannot re-apply.
type PendingDetect struct {
	GuildID string
	UserID  string

	mu      sync.Mutex
	state   ConfirmState
	matches []Match
	timer   *time.Timer
}

// NewPendingDetect creates a pending confirmation that expires after ttl,
// invoking onExpire (which may be nil) iff the expiry happened while still
// proposed.
func NewPendingDetect(guildID, userID string, matches []Match, ttl time.Duration, onExpire func()) *PendingDetect {
	p := &PendingDetect{
		GuildID: guildID,
		UserID:  userID,
		state:   StateProposed,
		matches: matches,
	}
	p.timer = time.AfterFunc(ttl, func() {
		p.mu.Lock()
		expired := p.state == StateProposed
		if expired {
			p.state = StateExpired
			p.matches = nil
		}
		p.mu.Unlock()
		if expired && onExpire != nil {
			onExpire()
		}
	})
	return p
}

// Confirm transitions Proposed → Confirmed and returns the payload. The
// second and later calls return ok=false with no payload.
func (p *PendingDetect) Confirm() ([]Match, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateProposed {
		return nil, false
	}
	p.state = StateConfirmed
	p.timer.Stop()
	matches := p.matches
	p.matches = nil
	return matches, true
}

// Cancel transitions Proposed → Cancelled.
func (p *PendingDetect) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateProposed {
		return false
	}
	p.state = StateCancelled
	p.timer.Stop()
	p.matches = nil
	return true
}

// State returns the current state.
func (p *PendingDetect) State() ConfirmState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ConfirmRegistry indexes pending confirmations by the id of the reply
// message carrying the confirm/cancel buttons.
type ConfirmRegistry struct {
	mu      sync.Mutex
	pending map[string]*PendingDetect
}

// NewConfirmRegistry creates an empty registry.
func NewConfirmRegistry() *ConfirmRegistry {
	return &ConfirmRegistry{pending: make(map[string]*PendingDetect)}
}

// Put registers a pending confirmation under key.
func (r *ConfirmRegistry) Put(key string, p *PendingDetect) {
	r.mu.Lock()
	r.pending[key] = p
	r.mu.Unlock()
}

// Get returns the pending confirmation for key.
func (r *ConfirmRegistry) Get(key string) (*PendingDetect, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[key]
	return p, ok
}

// Remove drops the entry for key.
func (r *ConfirmRegistry) Remove(key string) {
	r.mu.Lock()
	delete(r.pending, key)
	r.mu.Unlock()
}
