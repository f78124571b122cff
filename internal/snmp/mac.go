package snmp

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatMAC renders a raw 6-byte address as lowercase colon-separated hex.
// Any other length yields "".
func FormatMAC(b []byte) string {
	if len(b) != 6 {
		return ""
	}
	hexParts := make([]string, 6)
	for i, o := range b {
		hexParts[i] = fmt.Sprintf("%02x", o)
	}
	return strings.Join(hexParts, ":")
}

// DecimalMAC converts an OID index of six decimal octets ("170.187.204.221.238.255")
// into "aa:bb:cc:dd:ee:ff". Malformed input yields "".
func DecimalMAC(index string) string {
	parts := strings.Split(index, ".")
	if len(parts) != 6 {
		return ""
	}
	raw := make([]byte, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return ""
		}
		raw[i] = byte(n)
	}
	return FormatMAC(raw)
}
