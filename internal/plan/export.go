package plan

import (
	"fmt"
	"time"

	"github.com/arjale/netpath/internal/domain"
)

// Options narrow which connectivity edges become test plan entries.
type Options struct {
	ConnectionTypes []string
	OnlyActive      bool
	Ports           []int
	// TestPorts bypasses the allowed-port intersection entirely.
	TestPorts            []int
	IncludeProtocolLevel bool
}

// Build turns the golden path's connectivity graph into an executable
// test plan. Edges that are not expected reachable, fail the filters, or
// have no port overlap with the requested ports are dropped.
func Build(gp *domain.GoldenPath, sourcePath string, opts Options) (*domain.TestPlan, error) {
	if gp == nil || gp.Connectivity == nil {
		return nil, fmt.Errorf("build test plan: %w", domain.ErrNoGoldenPath)
	}

	connTypes, err := normalizeConnectionTypes(opts.ConnectionTypes)
	if err != nil {
		return nil, err
	}

	p := &domain.TestPlan{
		Version:          "1.0",
		GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
		SourceGoldenPath: sourcePath,
		Filters:          buildFilters(opts),
	}

	for _, edge := range gp.Connectivity.Patterns {
		if !edge.Expected {
			continue
		}
		if opts.OnlyActive && !edge.TrafficObserved {
			continue
		}
		if len(connTypes) > 0 {
			if _, ok := connTypes[edge.ConnectionType]; !ok {
				continue
			}
		}

		// An empty ports intersection drops the edge's port tests but a
		// requested protocol-level test still runs.
		ports, ok := selectPorts(edge, opts)
		if !ok && !opts.IncludeProtocolLevel {
			continue
		}

		if opts.IncludeProtocolLevel {
			p.Tests = append(p.Tests, domain.TestPlanEntry{
				ID:             fmt.Sprintf("test-%03d", len(p.Tests)+1),
				Enabled:        true,
				SourceVPC:      edge.SourceVPCID,
				SourceAccount:  edge.SourceAccountID,
				DestVPC:        edge.DestVPCID,
				DestAccount:    edge.DestAccountID,
				ConnectionType: edge.ConnectionType,
				ConnectionID:   edge.ConnectionID,
				Protocol:       "-1",
				Description:    fmt.Sprintf("Protocol-level: %s -> %s", edge.SourceVPCID, edge.DestVPCID),
				Notes:          "Production readiness check",
			})
		}

		for _, port := range ports {
			p.Tests = append(p.Tests, domain.TestPlanEntry{
				ID:             fmt.Sprintf("test-%03d", len(p.Tests)+1),
				Enabled:        true,
				SourceVPC:      edge.SourceVPCID,
				SourceAccount:  edge.SourceAccountID,
				DestVPC:        edge.DestVPCID,
				DestAccount:    edge.DestAccountID,
				ConnectionType: edge.ConnectionType,
				ConnectionID:   edge.ConnectionID,
				Protocol:       "tcp",
				Port:           port,
				Description:    fmt.Sprintf("TCP:%d %s -> %s", port, edge.SourceVPCID, edge.DestVPCID),
			})
		}
	}
	return p, nil
}

// selectPorts picks the ports to test for an edge. An explicit ports
// filter must intersect the edge's allowed ports or the edge is skipped;
// TestPorts override everything; otherwise allowed ports win over
// observed ones.
func selectPorts(edge domain.ConnectivityEdge, opts Options) ([]int, bool) {
	if len(opts.Ports) > 0 {
		common := intersect(opts.Ports, edge.PortsAllowed)
		if len(common) == 0 {
			return nil, false
		}
		return common, true
	}
	if len(opts.TestPorts) > 0 {
		return opts.TestPorts, true
	}
	if len(edge.PortsAllowed) > 0 {
		return edge.PortsAllowed, true
	}
	if edge.TrafficObserved && len(edge.PortsObserved) > 0 {
		return edge.PortsObserved, true
	}
	return nil, true
}

func buildFilters(opts Options) *domain.TestPlanFilters {
	if len(opts.ConnectionTypes) == 0 && !opts.OnlyActive && len(opts.Ports) == 0 {
		return nil
	}
	return &domain.TestPlanFilters{
		ConnectionTypes: opts.ConnectionTypes,
		OnlyActive:      opts.OnlyActive,
		Ports:           opts.Ports,
	}
}

func normalizeConnectionTypes(names []string) (map[domain.ConnectionType]struct{}, error) {
	if len(names) == 0 {
		return nil, nil
	}
	set := make(map[domain.ConnectionType]struct{}, len(names))
	for _, name := range names {
		ct, ok := domain.NormalizeConnectionType(name)
		if !ok {
			return nil, fmt.Errorf("unknown connection type %q", name)
		}
		set[ct] = struct{}{}
	}
	return set, nil
}

func intersect(a, b []int) []int {
	inB := make(map[int]struct{}, len(b))
	for _, p := range b {
		inB[p] = struct{}{}
	}
	var out []int
	for _, p := range a {
		if _, ok := inB[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
