package connectivity

import (
	"sort"

	"github.com/arjale/netpath/internal/baseline"
	"github.com/arjale/netpath/internal/domain"
)

// DefaultTestPorts substitutes for all-traffic rules, which name no ports
// of their own.
var DefaultTestPorts = []int{22, 80, 443, 3306, 5432, 8080, 8443}

// AllowedBetween intersects the source account's egress ports with the
// destination account's ingress ports. When one side has no port-bearing
// rules the other side stands alone; when both are empty nothing is
// allowed.
func AllowedBetween(src, dst *domain.AccountBaseline) []int {
	egress := egressPorts(src)
	ingress := ingressPorts(dst)

	switch {
	case len(egress) == 0 && len(ingress) == 0:
		return nil
	case len(egress) == 0:
		return sortedPorts(ingress)
	case len(ingress) == 0:
		return sortedPorts(egress)
	}

	common := make(map[int]struct{})
	for p := range egress {
		if _, ok := ingress[p]; ok {
			common[p] = struct{}{}
		}
	}
	return sortedPorts(common)
}

func egressPorts(b *domain.AccountBaseline) map[int]struct{} {
	ports := make(map[int]struct{})
	if b == nil {
		return ports
	}
	for _, sg := range b.SecurityGroups {
		for _, r := range sg.EgressRules {
			addRulePorts(ports, r.Protocol, r.FromPort, r.ToPort)
		}
	}
	return ports
}

func ingressPorts(b *domain.AccountBaseline) map[int]struct{} {
	ports := make(map[int]struct{})
	if b == nil {
		return ports
	}
	for _, r := range b.AllowedPorts {
		addRulePorts(ports, r.Protocol, r.FromPort, r.ToPort)
	}
	return ports
}

func addRulePorts(ports map[int]struct{}, protocol string, from, to int) {
	switch protocol {
	case "-1":
		for _, p := range DefaultTestPorts {
			ports[p] = struct{}{}
		}
	case "tcp", "udp", "6", "17":
		for _, p := range baseline.ExpandPorts(from, to) {
			ports[p] = struct{}{}
		}
	}
}

func sortedPorts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
