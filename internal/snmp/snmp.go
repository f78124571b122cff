// Package snmp wraps gosnmp with short-lived sessions: one session is opened
// for one logical operation (a scan of a switch or a refresh of one port) and
// closed on every exit path.
package snmp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-portlock/internal/oid"

	"github.com/gosnmp/gosnmp"
)

// TransportError reports a timeout, an unreachable target or a malformed
// response.
type TransportError struct {
	Target string
	Op     string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("snmp %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Binding is one returned variable. Index is the OID suffix below the walked
// root (for Get, the requested OID itself), without a leading dot.
type Binding struct {
	Index string
	Value any
}

// Int returns the value as an int for the integer-like SNMP types.
func (b Binding) Int() (int, bool) {
	switch b.Value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return int(gosnmp.ToBigInt(b.Value).Int64()), true
	}
	return 0, false
}

func (b Binding) Bytes() ([]byte, bool) {
	v, ok := b.Value.([]byte)
	return v, ok
}

// Session is an open connection to one device.
type Session interface {
	Walk(ctx context.Context, root string) ([]Binding, error)
	Get(ctx context.Context, oids []string) ([]Binding, error)
	Close() error
}

// Dialer opens read sessions and performs the administrative SET with the
// write community.
type Dialer interface {
	Open(ctx context.Context, target string) (Session, error)
	SetAdminStatus(ctx context.Context, target string, ifIndex, status int) error
}

// GoSNMPDialer talks SNMP v2c. Reads and writes use separate communities.
type GoSNMPDialer struct {
	Port           uint16
	ReadCommunity  string
	WriteCommunity string
	Timeout        time.Duration
	Retries        int
	MaxRepetitions uint32
}

func (d *GoSNMPDialer) connect(ctx context.Context, target, community string) (*gosnmp.GoSNMP, error) {
	g := &gosnmp.GoSNMP{
		Target:         target,
		Port:           d.Port,
		Community:      community,
		Version:        gosnmp.Version2c,
		Timeout:        d.Timeout,
		Retries:        d.Retries,
		MaxRepetitions: d.MaxRepetitions,
		Context:        ctx,
	}
	if g.Port == 0 {
		g.Port = 161
	}
	if g.Timeout == 0 {
		g.Timeout = gosnmp.Default.Timeout
	}
	if g.MaxRepetitions == 0 {
		g.MaxRepetitions = 20
	}
	if err := g.Connect(); err != nil {
		return nil, &TransportError{Target: target, Op: "connect", Err: err}
	}
	return g, nil
}

func (d *GoSNMPDialer) Open(ctx context.Context, target string) (Session, error) {
	g, err := d.connect(ctx, target, d.ReadCommunity)
	if err != nil {
		return nil, err
	}
	return &session{g: g, target: target}, nil
}

func (d *GoSNMPDialer) SetAdminStatus(ctx context.Context, target string, ifIndex, status int) error {
	g, err := d.connect(ctx, target, d.WriteCommunity)
	if err != nil {
		return err
	}
	defer g.Conn.Close()

	name := oid.Instance(oid.IfAdminStatus, ifIndex)
	res, err := g.Set([]gosnmp.SnmpPDU{{Name: name, Type: gosnmp.Integer, Value: status}})
	if err != nil {
		return &TransportError{Target: target, Op: "set " + name, Err: err}
	}
	if res.Error != gosnmp.NoError {
		return &TransportError{Target: target, Op: "set " + name, Err: fmt.Errorf("agent returned %v", res.Error)}
	}
	return nil
}

type session struct {
	g      *gosnmp.GoSNMP
	target string
}

// walkPrefix is the dotted form of root that returned names start with.
func walkPrefix(root string) string {
	return "." + strings.Trim(root, ".") + "."
}

// walkBinding strips prefix from a walked PDU name. PDUs outside the subtree
// are reported as not ok.
func walkBinding(prefix string, pdu gosnmp.SnmpPDU) (Binding, bool) {
	name := pdu.Name
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return Binding{}, false
	}
	return Binding{Index: name[len(prefix):], Value: pdu.Value}, true
}

// getBinding converts the answer to one requested OID. Missing instances
// and objects are errors.
func getBinding(requested string, pdu gosnmp.SnmpPDU) (Binding, error) {
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
		return Binding{}, fmt.Errorf("%s: %v", requested, pdu.Type)
	}
	return Binding{Index: requested, Value: pdu.Value}, nil
}

func (s *session) Walk(ctx context.Context, root string) ([]Binding, error) {
	var out []Binding
	prefix := walkPrefix(root)
	err := s.g.BulkWalk(root, func(pdu gosnmp.SnmpPDU) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b, ok := walkBinding(prefix, pdu); ok {
			out = append(out, b)
		}
		return nil
	})
	if err != nil {
		return nil, &TransportError{Target: s.target, Op: "walk " + root, Err: err}
	}
	return out, nil
}

func (s *session) Get(ctx context.Context, oids []string) ([]Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := s.g.Get(oids)
	if err != nil {
		return nil, &TransportError{Target: s.target, Op: "get", Err: err}
	}
	if res.Error != gosnmp.NoError {
		return nil, &TransportError{Target: s.target, Op: "get", Err: fmt.Errorf("agent returned %v", res.Error)}
	}
	if len(res.Variables) != len(oids) {
		return nil, &TransportError{Target: s.target, Op: "get",
			Err: fmt.Errorf("expected %d variables, got %d", len(oids), len(res.Variables))}
	}

	out := make([]Binding, len(oids))
	for i, pdu := range res.Variables {
		b, err := getBinding(oids[i], pdu)
		if err != nil {
			return nil, &TransportError{Target: s.target, Op: "get", Err: err}
		}
		out[i] = b
	}
	return out, nil
}

func (s *session) Close() error {
	if s.g.Conn == nil {
		return nil
	}
	return s.g.Conn.Close()
}
