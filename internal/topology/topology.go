// Package topology joins walked IF-MIB and BRIDGE-MIB tables into per-port
// state.
package topology

import (
	"sort"
	"strconv"
	"strings"

	"go-portlock/internal/oid"
	"go-portlock/internal/snmp"
)

// Interface is one ifTable row.
type Interface struct {
	Index int
	Name  string
	Type  int
	Oper  int
}

func (i Interface) IsEthernet() bool { return i.Type == oid.TypeEthernet }

func (i Interface) Up() bool { return i.Oper == oid.StatusUp }

// MergeInterfaces merges the ifIndex, ifDescr, ifType and ifOperStatus walks
// on their index suffix. The result is ordered by interface index.
func MergeInterfaces(indexes, descrs, types, opers []snmp.Binding) []Interface {
	byKey := make(map[string]*Interface)
	row := func(key string) *Interface {
		i, ok := byKey[key]
		if !ok {
			i = &Interface{}
			if n, err := strconv.Atoi(key); err == nil {
				i.Index = n
			}
			byKey[key] = i
		}
		return i
	}

	for _, b := range indexes {
		if n, ok := b.Int(); ok {
			row(b.Index).Index = n
		}
	}
	for _, b := range descrs {
		if v, ok := b.Bytes(); ok {
			row(b.Index).Name = string(v)
		}
	}
	for _, b := range types {
		if n, ok := b.Int(); ok {
			row(b.Index).Type = n
		}
	}
	for _, b := range opers {
		if n, ok := b.Int(); ok {
			row(b.Index).Oper = n
		}
	}

	out := make([]Interface, 0, len(byKey))
	for _, i := range byKey {
		if i.Index > 0 {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}

// Correlate maps interface index to the MAC addresses learned on it.
//
// macs is the dot1dTpFdbAddress walk, ports the dot1dTpFdbPort walk and
// bridge the dot1dBasePortIfIndex walk. The two FDB tables share their index
// (the MAC in decimal octets) and are joined on it, not on position. Bridge
// ports with no ifIndex translation are dropped.
func Correlate(macs, ports, bridge []snmp.Binding) map[int][]string {
	macByKey := make(map[string]string, len(macs))
	for _, b := range macs {
		if raw, ok := b.Bytes(); ok {
			if mac := snmp.FormatMAC(raw); mac != "" {
				macByKey[b.Index] = mac
			}
		}
	}

	macsByBridgePort := make(map[int][]string)
	var order []int
	for _, b := range ports {
		bridgePort, ok := b.Int()
		if !ok {
			continue
		}
		mac, ok := macByKey[b.Index]
		if !ok {
			// the index is the address itself
			mac = snmp.DecimalMAC(b.Index)
		}
		if mac == "" {
			continue
		}
		if _, seen := macsByBridgePort[bridgePort]; !seen {
			order = append(order, bridgePort)
		}
		macsByBridgePort[bridgePort] = append(macsByBridgePort[bridgePort], mac)
	}

	ifIndexByBridgePort := make(map[int]int, len(bridge))
	for _, b := range bridge {
		ifIndex, ok := b.Int()
		if !ok || ifIndex <= 0 {
			continue
		}
		key := b.Index[strings.LastIndex(b.Index, ".")+1:]
		bridgePort, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		ifIndexByBridgePort[bridgePort] = ifIndex
	}

	result := make(map[int][]string)
	for _, bridgePort := range order {
		ifIndex, ok := ifIndexByBridgePort[bridgePort]
		if !ok {
			continue
		}
		result[ifIndex] = append(result[ifIndex], macsByBridgePort[bridgePort]...)
	}
	return result
}
