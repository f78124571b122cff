// Package snmptest provides an in-memory switch agent implementing
// snmp.Dialer for tests.
package snmptest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go-portlock/internal/oid"
	"go-portlock/internal/snmp"
)

// ErrUnreachable is returned for targets with no registered Device.
var ErrUnreachable = errors.New("no response from agent")

type Interface struct {
	Index int
	Descr string
	Type  int
	Admin int
	Oper  int
}

type FdbEntry struct {
	MAC        []byte
	BridgePort int
}

// Device is a fake switch. Administrative status changes are mirrored to
// operational status.
type Device struct {
	mu         sync.Mutex
	interfaces map[int]*Interface
	fdb        []FdbEntry
	bridge     map[int]int

	// WalkErr, when set, fails every walk of the listed root.
	WalkErr map[string]error

	setErr error
	sets   []Set

	opened int
	closed int
}

type Set struct {
	IfIndex int
	Status  int
}

func NewDevice() *Device {
	return &Device{
		interfaces: make(map[int]*Interface),
		bridge:     make(map[int]int),
		WalkErr:    make(map[string]error),
	}
}

func (d *Device) AddInterface(idx int, descr string, ifType, oper int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interfaces[idx] = &Interface{Index: idx, Descr: descr, Type: ifType, Admin: oid.StatusUp, Oper: oper}
}

// Learn records mac on bridgePort and maps the bridge port to ifIndex.
// A negative ifIndex leaves the bridge port untranslated.
func (d *Device) Learn(mac []byte, bridgePort, ifIndex int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fdb = append(d.fdb, FdbEntry{MAC: mac, BridgePort: bridgePort})
	if ifIndex >= 0 {
		d.bridge[bridgePort] = ifIndex
	}
}

func (d *Device) AdminStatus(idx int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i, ok := d.interfaces[idx]; ok {
		return i.Admin
	}
	return 0
}

func (d *Device) SetCalls() []Set {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Set(nil), d.sets...)
}

// FailSets makes every later SET fail with err.
func (d *Device) FailSets(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setErr = err
}

// Balanced reports whether every opened session was closed.
func (d *Device) Balanced() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened == d.closed
}

func (d *Device) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

func (d *Device) sortedInterfaces() []*Interface {
	out := make([]*Interface, 0, len(d.interfaces))
	for _, i := range d.interfaces {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}

func macIndex(mac []byte) string {
	parts := make([]string, len(mac))
	for i, o := range mac {
		parts[i] = strconv.Itoa(int(o))
	}
	return strings.Join(parts, ".")
}

func (d *Device) walk(root string) ([]snmp.Binding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.WalkErr[root]; err != nil {
		return nil, err
	}

	var out []snmp.Binding
	switch root {
	case oid.IfIndex, oid.IfDescr, oid.IfType, oid.IfOperStatus, oid.IfAdminStatus:
		for _, i := range d.sortedInterfaces() {
			var v any
			switch root {
			case oid.IfIndex:
				v = i.Index
			case oid.IfDescr:
				v = []byte(i.Descr)
			case oid.IfType:
				v = i.Type
			case oid.IfOperStatus:
				v = i.Oper
			case oid.IfAdminStatus:
				v = i.Admin
			}
			out = append(out, snmp.Binding{Index: strconv.Itoa(i.Index), Value: v})
		}
	case oid.FdbAddress:
		for _, e := range d.fdb {
			out = append(out, snmp.Binding{Index: macIndex(e.MAC), Value: e.MAC})
		}
	case oid.FdbPort:
		for _, e := range d.fdb {
			out = append(out, snmp.Binding{Index: macIndex(e.MAC), Value: e.BridgePort})
		}
	case oid.BasePortIfIndex:
		ports := make([]int, 0, len(d.bridge))
		for p := range d.bridge {
			ports = append(ports, p)
		}
		sort.Ints(ports)
		for _, p := range ports {
			out = append(out, snmp.Binding{Index: strconv.Itoa(p), Value: d.bridge[p]})
		}
	}
	return out, nil
}

func (d *Device) get(oids []string) ([]snmp.Binding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]snmp.Binding, len(oids))
	for n, full := range oids {
		dot := strings.LastIndex(full, ".")
		column, suffix := full[:dot], full[dot+1:]
		idx, _ := strconv.Atoi(suffix)
		i, ok := d.interfaces[idx]
		if !ok {
			return nil, fmt.Errorf("%s: NoSuchInstance", full)
		}
		var v int
		switch column {
		case oid.IfType:
			v = i.Type
		case oid.IfAdminStatus:
			v = i.Admin
		case oid.IfOperStatus:
			v = i.Oper
		default:
			return nil, fmt.Errorf("%s: NoSuchObject", full)
		}
		out[n] = snmp.Binding{Index: full, Value: v}
	}
	return out, nil
}

// Dialer routes targets to registered devices.
type Dialer struct {
	mu      sync.Mutex
	devices map[string]*Device
}

func NewDialer() *Dialer {
	return &Dialer{devices: make(map[string]*Device)}
}

func (f *Dialer) Register(target string, d *Device) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[target] = d
}

func (f *Dialer) device(target string) (*Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[target]
	if !ok {
		return nil, &snmp.TransportError{Target: target, Op: "connect", Err: ErrUnreachable}
	}
	return d, nil
}

func (f *Dialer) Open(ctx context.Context, target string) (snmp.Session, error) {
	d, err := f.device(target)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	return &session{d: d, target: target}, nil
}

func (f *Dialer) SetAdminStatus(ctx context.Context, target string, ifIndex, status int) error {
	d, err := f.device(target)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.setErr != nil {
		return &snmp.TransportError{Target: target, Op: "set", Err: d.setErr}
	}
	d.sets = append(d.sets, Set{IfIndex: ifIndex, Status: status})
	if i, ok := d.interfaces[ifIndex]; ok {
		i.Admin = status
		i.Oper = status
	}
	return nil
}

type session struct {
	d      *Device
	target string
	closed bool
}

func (s *session) Walk(ctx context.Context, root string) ([]snmp.Binding, error) {
	out, err := s.d.walk(root)
	if err != nil {
		return nil, &snmp.TransportError{Target: s.target, Op: "walk " + root, Err: err}
	}
	return out, nil
}

func (s *session) Get(ctx context.Context, oids []string) ([]snmp.Binding, error) {
	out, err := s.d.get(oids)
	if err != nil {
		return nil, &snmp.TransportError{Target: s.target, Op: "get", Err: err}
	}
	return out, nil
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.d.mu.Lock()
	s.d.closed++
	s.d.mu.Unlock()
	return nil
}
