package portname

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Slot: 0 Port: 2 Gigabit - Level": "2",
		"SFP+1":                           "s1",
		"GigabitEthernet1/0/48":           "48",
		"GigabitEthernet0/9":              "9",
		"Gi1/0/7":                         "7",
		"TenGigabitEthernet1/1/2":         "2",
		"ge-0/0/3":                        "3",
		"Port16":                          "16",
		"Port: 16":                        "16",
		"Ethernet 5":                      "5",
		"eth5":                            "5",
		"  Vlan1  ":                       "Vlan1",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
