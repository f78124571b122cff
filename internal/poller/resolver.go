package poller

import (
	"bufio"
	"context"
	"os"
	"strings"
)

// Resolver maps a host MAC to an IP address. Resolution is best effort and
// never fails a scan.
type Resolver interface {
	ResolveIP(ctx context.Context, mac string) (string, bool)
}

type NopResolver struct{}

func (NopResolver) ResolveIP(context.Context, string) (string, bool) { return "", false }

// ARPTableResolver looks the MAC up in the local neighbor table, which only
// knows hosts on segments this machine is attached to.
type ARPTableResolver struct {
	Path string
}

func NewARPTableResolver() *ARPTableResolver {
	return &ARPTableResolver{Path: "/proc/net/arp"}
}

func (r *ARPTableResolver) ResolveIP(ctx context.Context, mac string) (string, bool) {
	f, err := os.Open(r.Path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	mac = strings.ToLower(mac)
	sc := bufio.NewScanner(f)
	sc.Scan() // header
	for sc.Scan() {
		// IP address  HW type  Flags  HW address  Mask  Device
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[2] == "0x0" {
			continue
		}
		if strings.ToLower(fields[3]) == mac {
			return fields[0], true
		}
	}
	return "", false
}
