package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-portlock/internal/db"
	"go-portlock/internal/models"
	"go-portlock/internal/oid"
	"go-portlock/internal/poller"
	"go-portlock/internal/snmp/snmptest"
)

func TestPortStatusFollowsBlockAndRevert(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "portlock.db"), 2)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	sw := &models.Switch{IPv4: switchIP, Hostname: "core-1"}
	if err := store.CreateSwitch(sw); err != nil {
		t.Fatalf("create switch: %v", err)
	}

	dev := snmptest.NewDevice()
	dev.AddInterface(3, "GigabitEthernet0/3", oid.TypeEthernet, oid.StatusUp)
	dialer := snmptest.NewDialer()
	dialer.Register(switchIP, dev)

	ctx := context.Background()
	s := New(ctx, dialer, poller.New(store, dialer, nil, 1), nil)
	t.Cleanup(s.Stop)

	status := func() bool {
		t.Helper()
		port, err := store.GetPort(sw.ID, 3)
		if err != nil {
			t.Fatalf("get port: %v", err)
		}
		return port.Status
	}

	if err := s.SchedulePortAction(ctx, switchIP, 3, ActionBlock, 50*time.Millisecond); err != nil {
		t.Fatalf("block: %v", err)
	}
	if status() {
		t.Error("port should be down after block")
	}

	waitFor(t, 2*time.Second, func() bool { return s.PendingCount() == 0 && status() })

	for i := 0; i < 2; i++ {
		if err := s.SchedulePortAction(ctx, switchIP, 3, ActionUnblock, 0); err != nil {
			t.Fatalf("unblock %d: %v", i, err)
		}
		if !status() {
			t.Errorf("port should be up after unblock %d", i)
		}
	}
}
