// Package jobs queues durable one-shot unblock jobs with the system at(1)
// daemon, so a timed block is reverted even if this process is gone.
package jobs

import (
	"bytes"
	"context"
	"fmt"
	"net/netip"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"go-portlock/internal/log"
	"go-portlock/internal/scheduler"
)

// Runner executes a command with stdin and returns its combined output.
type Runner interface {
	Run(ctx context.Context, stdin string, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

var jobIDRe = regexp.MustCompile(`job (\d+) at`)

// JobStore records queued job ids per interface so they outlive the process.
type JobStore interface {
	RevertJob(switchIP string, ifIndex int) (string, bool, error)
	SaveRevertJob(switchIP string, ifIndex int, jobID string, fireAt time.Time) error
	DeleteRevertJob(switchIP string, ifIndex int) error
}

// AtScheduler queues "portctl unblock IP IFINDEX" for the minute a revert is
// due. The at queue only has minute precision: jobs run on the first whole
// minute at or after the requested time.
type AtScheduler struct {
	Bin    string
	runner Runner
	store  JobStore

	// mu spans remove, queue and record so two callers cannot both leave a
	// job in the at queue for the same port.
	mu sync.Mutex
}

// NewAtScheduler queues jobs that run bin, the portctl binary, and records
// their ids in store.
func NewAtScheduler(bin string, store JobStore) *AtScheduler {
	return &AtScheduler{Bin: bin, runner: execRunner{}, store: store}
}

// RoundUp returns the first whole minute at or after t.
func RoundUp(t time.Time) time.Time {
	m := t.Truncate(time.Minute)
	if m.Before(t) {
		m = m.Add(time.Minute)
	}
	return m
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Command is the shell line the job runs.
func (a *AtScheduler) Command(key scheduler.Key) (string, error) {
	addr, err := netip.ParseAddr(key.SwitchIP)
	if err != nil {
		return "", fmt.Errorf("switch address %q: %w", key.SwitchIP, err)
	}
	return fmt.Sprintf("%s unblock %s %d", shellQuote(a.Bin), addr, key.IfIndex), nil
}

func (a *AtScheduler) Schedule(ctx context.Context, key scheduler.Key, at time.Time) error {
	line, err := a.Command(key)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.cancel(ctx, key); err != nil {
		log.Error("Stale durable job not removed", "port", key.String(), "error", err)
	}

	runAt := RoundUp(at).Local()
	out, err := a.runner.Run(ctx, line+"\n", "at", "-t", runAt.Format("200601021504"))
	if err != nil {
		return fmt.Errorf("at: %w: %s", err, strings.TrimSpace(out))
	}
	m := jobIDRe.FindStringSubmatch(out)
	if m == nil {
		return fmt.Errorf("at: no job id in %q", strings.TrimSpace(out))
	}

	if err := a.store.SaveRevertJob(key.SwitchIP, key.IfIndex, m[1], runAt); err != nil {
		return err
	}
	log.Info("Durable revert queued", "port", key.String(), "job", m[1], "run_at", runAt)
	return nil
}

// Cancel removes the job queued for key. It is a no-op when none is recorded.
func (a *AtScheduler) Cancel(ctx context.Context, key scheduler.Key) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel(ctx, key)
}

func (a *AtScheduler) cancel(ctx context.Context, key scheduler.Key) error {
	id, ok, err := a.store.RevertJob(key.SwitchIP, key.IfIndex)
	if err != nil || !ok {
		return err
	}

	// atrm fails for a job that already ran; the record is dropped anyway.
	out, rmErr := a.runner.Run(ctx, "", "atrm", id)
	if err := a.store.DeleteRevertJob(key.SwitchIP, key.IfIndex); err != nil {
		return err
	}
	if rmErr != nil {
		return fmt.Errorf("atrm %s: %w: %s", id, rmErr, strings.TrimSpace(out))
	}
	return nil
}
