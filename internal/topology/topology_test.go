package topology

import (
	"sort"
	"testing"

	"go-portlock/internal/snmp"
)

var (
	macA = []byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x01}
	macB = []byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x02}
	macC = []byte{0xaa, 0xbb, 0xcc, 0x00, 0x00, 0x03}
)

const (
	keyA = "170.187.204.0.0.1"
	keyB = "170.187.204.0.0.2"
	keyC = "170.187.204.0.0.3"
)

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCorrelateGroupsByInterface(t *testing.T) {
	macs := []snmp.Binding{{Index: keyA, Value: macA}, {Index: keyB, Value: macB}}
	ports := []snmp.Binding{{Index: keyA, Value: 1}, {Index: keyB, Value: 1}}
	bridge := []snmp.Binding{{Index: "1", Value: 5}}

	got := Correlate(macs, ports, bridge)
	if len(got) != 1 {
		t.Fatalf("got %v, want one interface", got)
	}
	want := []string{"aa:bb:cc:00:00:01", "aa:bb:cc:00:00:02"}
	if !equal(sorted(got[5]), want) {
		t.Errorf("if5 = %v, want %v", got[5], want)
	}
}

func TestCorrelateDropsUntranslatedBridgePorts(t *testing.T) {
	macs := []snmp.Binding{{Index: keyA, Value: macA}, {Index: keyC, Value: macC}}
	ports := []snmp.Binding{{Index: keyA, Value: 1}, {Index: keyC, Value: 9}}
	bridge := []snmp.Binding{{Index: "1", Value: 5}}

	got := Correlate(macs, ports, bridge)
	if len(got) != 1 || !equal(got[5], []string{"aa:bb:cc:00:00:01"}) {
		t.Errorf("got %v", got)
	}
}

func TestCorrelateJoinsByIndexNotPosition(t *testing.T) {
	// the port table comes back in a different order than the address table
	macs := []snmp.Binding{{Index: keyA, Value: macA}, {Index: keyB, Value: macB}}
	ports := []snmp.Binding{{Index: keyB, Value: 2}, {Index: keyA, Value: 1}}
	bridge := []snmp.Binding{{Index: "1", Value: 10}, {Index: "2", Value: 20}}

	got := Correlate(macs, ports, bridge)
	if !equal(got[10], []string{"aa:bb:cc:00:00:01"}) {
		t.Errorf("if10 = %v", got[10])
	}
	if !equal(got[20], []string{"aa:bb:cc:00:00:02"}) {
		t.Errorf("if20 = %v", got[20])
	}
}

func TestCorrelateFallsBackToIndexAddress(t *testing.T) {
	ports := []snmp.Binding{{Index: keyC, Value: 3}}
	bridge := []snmp.Binding{{Index: "3", Value: 7}}

	got := Correlate(nil, ports, bridge)
	if !equal(got[7], []string{"aa:bb:cc:00:00:03"}) {
		t.Errorf("got %v", got)
	}
}

func TestMergeInterfaces(t *testing.T) {
	indexes := []snmp.Binding{{Index: "1", Value: 1}, {Index: "2", Value: 2}, {Index: "3", Value: 3}}
	descrs := []snmp.Binding{{Index: "1", Value: []byte("lo")}, {Index: "2", Value: []byte("Port 2")}, {Index: "3", Value: []byte("Port 3")}}
	types := []snmp.Binding{{Index: "1", Value: 24}, {Index: "2", Value: 6}, {Index: "3", Value: 6}}
	opers := []snmp.Binding{{Index: "3", Value: 1}, {Index: "2", Value: 2}, {Index: "1", Value: 1}}

	got := MergeInterfaces(indexes, descrs, types, opers)
	if len(got) != 3 {
		t.Fatalf("got %d interfaces", len(got))
	}
	if got[0].IsEthernet() {
		t.Error("loopback should not be Ethernet")
	}
	if got[1].Name != "Port 2" || !got[1].IsEthernet() || got[1].Up() {
		t.Errorf("if2 = %+v", got[1])
	}
	if got[2].Index != 3 || !got[2].Up() {
		t.Errorf("if3 = %+v", got[2])
	}
}
