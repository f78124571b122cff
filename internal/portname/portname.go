// Package portname shortens vendor interface descriptions to the label
// printed on the switch faceplate.
package portname

import (
	"regexp"
	"strings"
)

type rule struct {
	re     *regexp.Regexp
	prefix string
}

// Rules are tried in order; the first submatch wins and is prefixed.
var rules = []rule{
	// "Slot: 0 Port: 2 Gigabit - Level"
	{regexp.MustCompile(`Slot:\s*\d+\s*Port:\s*(\d+)`), ""},
	// "SFP+1", "SFP 2"
	{regexp.MustCompile(`(?i)SFP\+?\s*(\d+)`), "s"},
	// "GigabitEthernet1/0/48", "Gi1/0/48", "Te1/1/2", "ethernet1/0/5"
	{regexp.MustCompile(`(?i)^(?:(?:Ten|Forty|Hundred|TwentyFive)?Gig(?:abit)?Ethernet|FastEthernet|Ethernet|Gi|Te|Fa|Eth)\s*\d+(?:/\d+)*/(\d+)$`), ""},
	// Juniper "ge-0/0/3", "xe-0/1/0"
	{regexp.MustCompile(`^(?:ge|xe|et|fe)-\d+/\d+/(\d+)`), ""},
	// "Port16", "Port: 16", "port 16"
	{regexp.MustCompile(`(?i)Port\s*:?\s*(\d+)`), ""},
	// "Ethernet 5", "eth5"
	{regexp.MustCompile(`(?i)^eth(?:ernet)?\s*(\d+)$`), ""},
}

// Normalize extracts a short, consistent label. Unknown formats are
// returned trimmed.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	for _, r := range rules {
		if m := r.re.FindStringSubmatch(name); len(m) > 1 {
			return r.prefix + m[1]
		}
	}
	return name
}
