package domain

import "testing"

func TestNormalizeConnectionType(t *testing.T) {
	cases := []struct {
		in   string
		want ConnectionType
		ok   bool
	}{
		{"tgw", ConnectionTGW, true},
		{"transit-gateway", ConnectionTGW, true},
		{"pcx", ConnectionPeering, true},
		{"peering", ConnectionPeering, true},
		{"vpn", ConnectionVPN, true},
		{"dx", ConnectionDirectConnect, true},
		{"direct-connect", ConnectionDirectConnect, true},
		{"vpce", ConnectionPrivateLink, true},
		{"privatelink", ConnectionPrivateLink, true},
		{"transit_gateway", ConnectionTGW, true},
		{"vpc_peering", ConnectionPeering, true},
		{"direct_connect", ConnectionDirectConnect, true},
		{"bogus", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeConnectionType(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizeConnectionType(%q) = (%q, %v), want (%q, %v)",
				tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestConnectionTypeCountKey(t *testing.T) {
	cases := map[ConnectionType]string{
		ConnectionTGW:           "tgw",
		ConnectionPeering:       "peering",
		ConnectionVPN:           "vpn",
		ConnectionPrivateLink:   "privatelink",
		ConnectionDirectConnect: "dx",
	}
	for ct, want := range cases {
		if got := ct.CountKey(); got != want {
			t.Errorf("CountKey(%q) = %q, want %q", ct, got, want)
		}
	}
}
