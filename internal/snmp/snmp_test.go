package snmp

import (
	"errors"
	"testing"

	"github.com/gosnmp/gosnmp"
)

func TestFormatMAC(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, "aa:bb:cc:dd:ee:ff"},
		{[]byte{0, 1, 2, 3, 4, 5}, "00:01:02:03:04:05"},
		{[]byte{1, 2, 3}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := FormatMAC(tt.in); got != tt.want {
			t.Errorf("FormatMAC(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecimalMAC(t *testing.T) {
	tests := map[string]string{
		"170.187.204.221.238.255": "aa:bb:cc:dd:ee:ff",
		"0.17.34.51.68.85":        "00:11:22:33:44:55",
		"1.2.3":                   "",
		"1.2.3.4.5.256":           "",
		"a.b.c.d.e.f":             "",
	}
	for in, want := range tests {
		if got := DecimalMAC(in); got != want {
			t.Errorf("DecimalMAC(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBindingInt(t *testing.T) {
	for _, v := range []any{6, int64(6), uint(6), uint8(6), uint32(6), uint64(6)} {
		if n, ok := (Binding{Value: v}).Int(); !ok || n != 6 {
			t.Errorf("Int(%T) = %d, %v", v, n, ok)
		}
	}
	if _, ok := (Binding{Value: []byte("x")}).Int(); ok {
		t.Error("Int on bytes should fail")
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("request timeout")
	err := error(&TransportError{Target: "10.0.0.5", Op: "walk", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("TransportError should unwrap to its cause")
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Target != "10.0.0.5" {
		t.Errorf("errors.As failed: %v", err)
	}
}

func TestWalkBinding(t *testing.T) {
	prefix := walkPrefix("1.3.6.1.2.1.17.4.3.1.2")
	tests := []struct {
		name  string
		pdu   gosnmp.SnmpPDU
		index string
		ok    bool
	}{
		{"leading dot", gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.17.4.3.1.2.170.187.204.221.238.255", Value: 3}, "170.187.204.221.238.255", true},
		{"no leading dot", gosnmp.SnmpPDU{Name: "1.3.6.1.2.1.17.4.3.1.2.5", Value: 3}, "5", true},
		{"sibling column", gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.17.4.3.1.20.5", Value: 3}, "", false},
		{"next table", gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.17.4.3.1.3.5", Value: 3}, "", false},
		{"root itself", gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.17.4.3.1.2.", Value: 3}, "", false},
	}
	for _, tt := range tests {
		b, ok := walkBinding(prefix, tt.pdu)
		if ok != tt.ok || b.Index != tt.index {
			t.Errorf("%s: got (%q, %v), want (%q, %v)", tt.name, b.Index, ok, tt.index, tt.ok)
		}
	}
}

func TestGetBinding(t *testing.T) {
	const requested = "1.3.6.1.2.1.2.2.1.3.3"
	tests := []struct {
		typ     gosnmp.Asn1BER
		value   any
		wantErr bool
	}{
		{gosnmp.Integer, 6, false},
		{gosnmp.NoSuchInstance, nil, true},
		{gosnmp.NoSuchObject, nil, true},
		{gosnmp.EndOfMibView, nil, true},
	}
	for _, tt := range tests {
		b, err := getBinding(requested, gosnmp.SnmpPDU{Name: "." + requested, Type: tt.typ, Value: tt.value})
		if (err != nil) != tt.wantErr {
			t.Errorf("type %v: err = %v, wantErr %v", tt.typ, err, tt.wantErr)
			continue
		}
		if err == nil {
			if n, ok := b.Int(); !ok || n != 6 || b.Index != requested {
				t.Errorf("type %v: binding = %+v", tt.typ, b)
			}
		}
	}
}
