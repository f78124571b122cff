package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-portlock/internal/log"
	"go-portlock/internal/models"
	"go-portlock/internal/oid"
	"go-portlock/internal/portname"
	"go-portlock/internal/snmp"
	"go-portlock/internal/topology"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the poller writes through.
type Store interface {
	ListSwitches() ([]models.Switch, error)
	SwitchByIP(ip string) (*models.Switch, error)
	UpsertPort(p *models.Port) error
}

type Poller struct {
	store       Store
	dialer      snmp.Dialer
	resolver    Resolver
	concurrency int

	mu     sync.RWMutex
	labels map[uint]map[int]string
}

// New returns a Poller. concurrency bounds how many switches are scanned at
// once, which also bounds database connections taken by a scan.
func New(store Store, dialer snmp.Dialer, resolver Resolver, concurrency int) *Poller {
	if resolver == nil {
		resolver = NopResolver{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Poller{
		store:       store,
		dialer:      dialer,
		resolver:    resolver,
		concurrency: concurrency,
		labels:      make(map[uint]map[int]string),
	}
}

// ScanReport summarizes one fleet-wide pass.
type ScanReport struct {
	ID       string
	Switches int
	Ports    int
	Failed   map[string]error
}

// ---------- FULL SCAN ----------

// ScanAndPersistPorts scans every registered switch. Switches are scanned
// independently: a failure is recorded in the report and the rest continue.
// The returned error is only set when the switch list cannot be read.
func (p *Poller) ScanAndPersistPorts(ctx context.Context) (*ScanReport, error) {
	report := &ScanReport{ID: uuid.NewString(), Failed: make(map[string]error)}

	switches, err := p.store.ListSwitches()
	if err != nil {
		return report, err
	}
	report.Switches = len(switches)
	log.Info("Running SNMP scan", "scan_id", report.ID, "switches", len(switches))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for _, sw := range switches {
		g.Go(func() error {
			n, err := p.scanSwitch(ctx, sw)

			mu.Lock()
			defer mu.Unlock()
			report.Ports += n
			if err != nil {
				report.Failed[sw.IPv4] = err
				log.Error("Switch scan failed", "scan_id", report.ID, "switch", sw.Hostname, "ip", sw.IPv4, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("Polling cycle complete", "scan_id", report.ID, "ports", report.Ports, "failed", len(report.Failed))
	return report, nil
}

func (p *Poller) scanSwitch(ctx context.Context, sw models.Switch) (int, error) {
	log.Debug("Polling switch", "switch", sw.Hostname, "ip", sw.IPv4)

	sess, err := p.dialer.Open(ctx, sw.IPv4)
	if err != nil {
		return 0, err
	}
	defer sess.Close()

	// one request at a time per session
	roots := []string{oid.IfIndex, oid.IfDescr, oid.IfType, oid.IfOperStatus}
	tables := make([][]snmp.Binding, len(roots))
	for i, root := range roots {
		if tables[i], err = sess.Walk(ctx, root); err != nil {
			return 0, err
		}
	}
	ifaces := topology.MergeInterfaces(tables[0], tables[1], tables[2], tables[3])

	macsByIf, err := loadMacPerPort(ctx, sess)
	if err != nil {
		return 0, err
	}

	labels := make(map[int]string)
	persisted := 0
	for _, iface := range ifaces {
		if !iface.IsEthernet() {
			continue
		}
		labels[iface.Index] = portname.Normalize(iface.Name)

		if err := p.persist(ctx, sw.ID, iface.Index, iface.Up(), macsByIf[iface.Index]); err != nil {
			return persisted, err
		}
		persisted++
	}

	p.mu.Lock()
	p.labels[sw.ID] = labels
	p.mu.Unlock()

	log.Debug("Switch persisted", "switch", sw.Hostname, "ip", sw.IPv4, "ports", persisted)
	return persisted, nil
}

// loadMacPerPort walks the FDB and bridge port tables and correlates them.
func loadMacPerPort(ctx context.Context, sess snmp.Session) (map[int][]string, error) {
	macs, err := sess.Walk(ctx, oid.FdbAddress)
	if err != nil {
		return nil, err
	}
	ports, err := sess.Walk(ctx, oid.FdbPort)
	if err != nil {
		return nil, err
	}
	bridge, err := sess.Walk(ctx, oid.BasePortIfIndex)
	if err != nil {
		return nil, err
	}
	return topology.Correlate(macs, ports, bridge), nil
}

// persist writes one row per learned MAC, or a single host-less row when
// nothing is learned. Rows share the (switch, port) key, so the last MAC wins.
func (p *Poller) persist(ctx context.Context, switchID uint, number int, up bool, macs []string) error {
	if len(macs) == 0 {
		return p.store.UpsertPort(&models.Port{SwitchID: switchID, Number: number, Status: up})
	}
	for _, mac := range macs {
		port := &models.Port{SwitchID: switchID, Number: number, Status: up, HostMAC: &mac}
		if ip, ok := p.resolver.ResolveIP(ctx, mac); ok {
			port.HostIP = &ip
		}
		if err := p.store.UpsertPort(port); err != nil {
			return err
		}
	}
	return nil
}

// Labels returns the short port labels seen on the last scan of a switch.
func (p *Poller) Labels(switchID uint) map[int]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[int]string, len(p.labels[switchID]))
	for k, v := range p.labels[switchID] {
		out[k] = v
	}
	return out
}

// ---------- SINGLE INTERFACE ----------

// PollSingleInterface re-reads one interface and persists it. Interfaces that
// are not Ethernet are ignored.
func (p *Poller) PollSingleInterface(ctx context.Context, ip string, ifIndex int) error {
	sess, err := p.dialer.Open(ctx, ip)
	if err != nil {
		return err
	}
	defer sess.Close()

	vals, err := sess.Get(ctx, []string{
		oid.Instance(oid.IfType, ifIndex),
		oid.Instance(oid.IfAdminStatus, ifIndex),
		oid.Instance(oid.IfOperStatus, ifIndex),
	})
	if err != nil {
		return err
	}
	ifType, _ := vals[0].Int()
	admin, _ := vals[1].Int()
	oper, _ := vals[2].Int()
	iface := topology.Interface{Index: ifIndex, Type: ifType, Oper: oper}

	if !iface.IsEthernet() {
		log.Debug("Skipping non-Ethernet interface", "ip", ip, "if_index", ifIndex, "type", oid.TypeName(ifType))
		return nil
	}

	macsByIf, err := loadMacPerPort(ctx, sess)
	if err != nil {
		return err
	}

	sw, err := p.store.SwitchByIP(ip)
	if err != nil {
		return err
	}

	log.Debug("Interface refreshed", "ip", ip, "if_index", ifIndex,
		"admin", oid.OperStateName(admin), "oper", oid.OperStateName(oper), "macs", len(macsByIf[ifIndex]))
	return p.persist(ctx, sw.ID, ifIndex, iface.Up(), macsByIf[ifIndex])
}

// ---------- MAIN LOOP ----------

// StartPeriodicScanning scans immediately and then every interval until ctx
// is cancelled. A failed pass is logged and the next tick tries again.
func (p *Poller) StartPeriodicScanning(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.ScanAndPersistPorts(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Polling cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			log.Info("Periodic scanning stopped")
			return
		case <-ticker.C:
		}
	}
}
