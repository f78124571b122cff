package oid

import (
	"encoding/json"
	"fmt"
	"os"
)

// IF-MIB ifTable columns.
const (
	IfIndex       = "1.3.6.1.2.1.2.2.1.1"
	IfDescr       = "1.3.6.1.2.1.2.2.1.2"
	IfType        = "1.3.6.1.2.1.2.2.1.3"
	IfAdminStatus = "1.3.6.1.2.1.2.2.1.7"
	IfOperStatus  = "1.3.6.1.2.1.2.2.1.8"
)

// BRIDGE-MIB tables.
const (
	FdbAddress      = "1.3.6.1.2.1.17.4.3.1.1"
	FdbPort         = "1.3.6.1.2.1.17.4.3.1.2"
	BasePortIfIndex = "1.3.6.1.2.1.17.1.4.1.2"
)

// TypeEthernet is ifType ethernetCsmacd, the only type managed here.
const TypeEthernet = 6

const (
	StatusUp   = 1
	StatusDown = 2
)

var (
	OperState = map[int]string{
		1: "UP",
		2: "DOWN",
		3: "TESTING",
		4: "UNKNOWN",
		5: "DORMANT",
		6: "NOT_PRESENT",
		7: "LOWER_LAYER_DOWN",
	}
	IntTypeNum = map[int]string{
		1:   "other",
		6:   "ethernet-csmacd",
		24:  "software-loopback",
		53:  "prop-virtual",
		131: "tunnel",
		135: "l2vlan",
		136: "l3ipvlan",
		161: "ieee8023adLag",
	}
)

// Instance appends an interface index to a column OID.
func Instance(column string, ifIndex int) string {
	return fmt.Sprintf("%s.%d", column, ifIndex)
}

// OperStateName renders an ifOperStatus/ifAdminStatus value.
func OperStateName(v int) string {
	if s, ok := OperState[v]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", v)
}

func TypeName(v int) string {
	if s, ok := IntTypeNum[v]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", v)
}

// Load merges display names from a JSON file into the built-in tables.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cfg struct {
		OperState  map[int]string `json:"oper_state"`
		IntTypeNum map[int]string `json:"int_type_num"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for k, v := range cfg.OperState {
		OperState[k] = v
	}
	for k, v := range cfg.IntTypeNum {
		IntTypeNum[k] = v
	}
	return nil
}
