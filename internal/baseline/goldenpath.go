package baseline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arjale/netpath/internal/domain"
)

// thresholdPercentage is the share of accounts a route or ingress pattern
// must appear in to become part of the golden path.
const thresholdPercentage = 50

// maxExpandedPortRange bounds per-port pattern expansion. Wider rules
// contribute only their endpoints.
const maxExpandedPortRange = 1000

// Aggregate derives the golden path from the collected baselines:
// routes and ingress patterns seen in a majority of accounts, plus the
// strictest common VPC posture.
func Aggregate(baselines []*domain.AccountBaseline) *domain.GoldenPath {
	gp := &domain.GoldenPath{
		Version:             "1.0",
		GeneratedAt:         time.Now().UTC().Format(time.RFC3339),
		BasedOnAccounts:     len(baselines),
		ThresholdPercentage: thresholdPercentage,
		AccountBaselines:    baselines,
	}
	if len(baselines) == 0 {
		return gp
	}

	threshold := float64(len(baselines)) * float64(thresholdPercentage) / 100

	gp.ExpectedConfiguration = domain.ExpectedConfiguration{
		VPC:            aggregateVPC(baselines),
		TransitGateway: aggregateTGW(baselines),
		Routes: domain.RouteExpectation{
			ExpectedDestinations: majorityKeys(routeKeys, baselines, threshold),
			Description:          "Routes appearing in >50% of accounts",
		},
		Security: domain.SecurityExpectation{
			CommonIngressPatterns: majorityKeys(ingressPatterns, baselines, threshold),
		},
	}
	return gp
}

func aggregateVPC(baselines []*domain.AccountBaseline) domain.VPCExpectation {
	exp := domain.VPCExpectation{
		DNSSupport:           true,
		DNSHostnames:         true,
		MinSubnets:           baselines[0].VPC.SubnetCount,
		MinAvailabilityZones: 2,
	}
	for _, b := range baselines {
		exp.DNSSupport = exp.DNSSupport && b.VPC.DNSSupport
		exp.DNSHostnames = exp.DNSHostnames && b.VPC.DNSHostnames
		if b.VPC.SubnetCount < exp.MinSubnets {
			exp.MinSubnets = b.VPC.SubnetCount
		}
	}
	return exp
}

func aggregateTGW(baselines []*domain.AccountBaseline) domain.TGWExpectation {
	exp := domain.TGWExpectation{ExpectedState: "available"}
	for _, b := range baselines {
		if b.TransitGateway != nil {
			exp.Required = true
			exp.ApplianceMode = exp.ApplianceMode || b.TransitGateway.ApplianceMode
		}
	}
	return exp
}

// majorityKeys counts the per-account key sets produced by extract and
// returns the keys meeting the threshold, sorted.
func majorityKeys(extract func(*domain.AccountBaseline) map[string]struct{}, baselines []*domain.AccountBaseline, threshold float64) []string {
	counts := make(map[string]int)
	for _, b := range baselines {
		for key := range extract(b) {
			counts[key]++
		}
	}

	var keys []string
	for key, n := range counts {
		if float64(n) >= threshold {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// routeKeys renders each non-local route as "destination -> target",
// trimming resource-specific suffixes from the target.
func routeKeys(b *domain.AccountBaseline) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, rt := range b.RouteTables {
		for _, r := range rt.Routes {
			if r.Target == "local" {
				continue
			}
			target := r.Target
			if i := strings.IndexByte(target, '/'); i >= 0 {
				target = target[:i]
			}
			keys[fmt.Sprintf("%s -> %s", r.Destination, target)] = struct{}{}
		}
	}
	return keys
}

func ingressPatterns(b *domain.AccountBaseline) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, rule := range b.AllowedPorts {
		// Only tcp and udp rules carry port ranges; all-traffic and
		// icmp rules would otherwise expand to a meaningless ":0".
		proto := strings.ToLower(rule.Protocol)
		if proto != "tcp" && proto != "udp" {
			continue
		}
		for _, port := range ExpandPorts(rule.FromPort, rule.ToPort) {
			keys[fmt.Sprintf("%s:%d", proto, port)] = struct{}{}
		}
	}
	return keys
}

// ExpandPorts lists the ports in [from, to]. Ranges wider than
// maxExpandedPortRange collapse to their endpoints.
func ExpandPorts(from, to int) []int {
	if to < from {
		to = from
	}
	if to-from > maxExpandedPortRange {
		return []int{from, to}
	}
	ports := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		ports = append(ports, p)
	}
	return ports
}
