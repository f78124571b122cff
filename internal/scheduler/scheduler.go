// Package scheduler applies administrative up/down changes to switch ports
// and reverts timed blocks.
//
// A timed block arms two independent reverts for the same port: an
// in-process timer, and a durable one-shot job that survives a restart.
// Both run the same unblock, which is safe to repeat.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-portlock/internal/log"
	"go-portlock/internal/oid"
)

var (
	ErrInvalidAction   = errors.New("invalid port action")
	ErrInvalidDuration = errors.New("timed block needs a positive duration")
)

type Action string

const (
	ActionBlock   Action = "block"
	ActionUnblock Action = "unblock"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionBlock, ActionUnblock:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// Key identifies one switch interface.
type Key struct {
	SwitchIP string
	IfIndex  int
}

func (k Key) String() string { return fmt.Sprintf("%s:%d", k.SwitchIP, k.IfIndex) }

// PortController performs the administrative SET.
type PortController interface {
	SetAdminStatus(ctx context.Context, target string, ifIndex, status int) error
}

// Refresher syncs the persisted row of one interface.
type Refresher interface {
	PollSingleInterface(ctx context.Context, ip string, ifIndex int) error
}

// Durable queues an out-of-process unblock of key at a wall-clock time.
// Schedule replaces any job already queued for the key.
type Durable interface {
	Schedule(ctx context.Context, key Key, at time.Time) error
	Cancel(ctx context.Context, key Key) error
}

type pending struct {
	timer  *time.Timer
	fireAt time.Time
	seq    uint64
}

type Scheduler struct {
	ctl     PortController
	refresh Refresher
	durable Durable

	// ctx is used by reverts, which outlive the request that armed them.
	ctx context.Context

	mu      sync.Mutex
	seq     uint64
	pending map[Key]*pending

	// keyLocks orders SETs on one port: a revert in flight finishes its SET
	// and durable cleanup before a new action on the same port starts.
	keyLocks map[Key]*sync.Mutex
}

// New returns a Scheduler. durable may be nil, leaving reverts to the
// in-process timer alone.
func New(ctx context.Context, ctl PortController, refresh Refresher, durable Durable) *Scheduler {
	return &Scheduler{
		ctl:      ctl,
		refresh:  refresh,
		durable:  durable,
		ctx:      ctx,
		pending:  make(map[Key]*pending),
		keyLocks: make(map[Key]*sync.Mutex),
	}
}

func (s *Scheduler) keyLock(key Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.keyLocks[key]
	if !ok {
		lk = &sync.Mutex{}
		s.keyLocks[key] = lk
	}
	return lk
}

// SchedulePortAction cancels any pending revert of the port and then applies
// action. A block takes the port down and reverts it after duration; an
// unblock brings it up. Invalid input is rejected before anything happens.
func (s *Scheduler) SchedulePortAction(ctx context.Context, switchIP string, ifIndex int, action Action, duration time.Duration) error {
	key := Key{SwitchIP: switchIP, IfIndex: ifIndex}

	switch action {
	case ActionUnblock:
		lk := s.keyLock(key)
		lk.Lock()
		s.cancel(ctx, key)
		log.Info("Unblocking port", "port", key.String())
		err := s.ctl.SetAdminStatus(ctx, switchIP, ifIndex, oid.StatusUp)
		lk.Unlock()
		if err != nil {
			return err
		}
		return s.refresh.PollSingleInterface(ctx, switchIP, ifIndex)

	case ActionBlock:
		if duration <= 0 {
			return fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
		}
		lk := s.keyLock(key)
		lk.Lock()
		s.cancel(ctx, key)
		log.Info("Blocking port", "port", key.String(), "duration", duration)

		if err := s.ctl.SetAdminStatus(ctx, switchIP, ifIndex, oid.StatusDown); err != nil {
			lk.Unlock()
			return err
		}
		// the port is down from here on, so the revert is armed before
		// anything else can fail
		s.arm(ctx, key, duration)
		lk.Unlock()
		return s.refresh.PollSingleInterface(ctx, switchIP, ifIndex)
	}

	return fmt.Errorf("%w: %q", ErrInvalidAction, action)
}

// arm installs the revert timer for key, replacing any other timer for the
// same key under the same lock, and queues the durable job.
func (s *Scheduler) arm(ctx context.Context, key Key, d time.Duration) {
	fireAt := time.Now().Add(d)

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if old, ok := s.pending[key]; ok {
		old.timer.Stop()
	}
	s.pending[key] = &pending{
		timer:  time.AfterFunc(d, func() { s.fire(key, seq) }),
		fireAt: fireAt,
		seq:    seq,
	}
	s.mu.Unlock()

	if s.durable != nil {
		if err := s.durable.Schedule(ctx, key, fireAt); err != nil {
			log.Error("Durable revert not queued, relying on timer", "port", key.String(), "error", err)
		}
	}
}

// isCurrent reports whether seq is still the pending revert of key.
func (s *Scheduler) isCurrent(key Key, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	return ok && p.seq == seq
}

func (s *Scheduler) fire(key Key, seq uint64) {
	lk := s.keyLock(key)
	lk.Lock()
	if !s.isCurrent(key, seq) {
		// replaced or cancelled while the timer was firing
		lk.Unlock()
		return
	}

	log.Info("Auto-unblocking port", "port", key.String())
	err := s.ctl.SetAdminStatus(s.ctx, key.SwitchIP, key.IfIndex, oid.StatusUp)

	s.mu.Lock()
	current := false
	if p, ok := s.pending[key]; ok && p.seq == seq {
		delete(s.pending, key)
		current = true
	}
	s.mu.Unlock()

	if err == nil && current && s.durable != nil {
		if err := s.durable.Cancel(s.ctx, key); err != nil {
			log.Debug("Durable revert already gone", "port", key.String(), "error", err)
		}
	}
	lk.Unlock()

	if err != nil {
		log.Error("Auto-unblock failed", "port", key.String(), "error", err)
		return
	}
	if err := s.refresh.PollSingleInterface(s.ctx, key.SwitchIP, key.IfIndex); err != nil {
		log.Error("Refresh after auto-unblock failed", "port", key.String(), "error", err)
	}
}

// cancel stops the pending revert of key, if any, in both paths.
func (s *Scheduler) cancel(ctx context.Context, key Key) {
	s.mu.Lock()
	p, ok := s.pending[key]
	if ok {
		p.timer.Stop()
		delete(s.pending, key)
	}
	s.mu.Unlock()

	if ok {
		log.Debug("Cancelled pending revert", "port", key.String(), "fire_at", p.fireAt)
	}
	if s.durable != nil {
		if err := s.durable.Cancel(ctx, key); err != nil {
			log.Error("Failed to cancel durable revert", "port", key.String(), "error", err)
		}
	}
}

// Pending returns when the revert of a port is due.
func (s *Scheduler) Pending(switchIP string, ifIndex int) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[Key{SwitchIP: switchIP, IfIndex: ifIndex}]
	if !ok {
		return time.Time{}, false
	}
	return p.fireAt, true
}

func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop drops all in-process timers without firing them. Queued durable jobs
// stay in place and revert the ports after shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
	}
}
