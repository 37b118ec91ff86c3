package connectivity

import (
	"context"
	"fmt"
	"sort"

	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
)

type accountRef struct {
	id   string
	name string
}

// Mapper discovers the cross-account connectivity graph from transit
// gateway route tables, peering connections, VPN connections, and
// interface endpoints.
type Mapper struct {
	provider  domain.SessionProvider
	accounts  []domain.AccountConfig
	baselines map[string]*domain.AccountBaseline

	vpcToAccount map[string]accountRef
	vpcToBase    map[string]*domain.AccountBaseline
}

func NewMapper(provider domain.SessionProvider, accounts []domain.AccountConfig, baselines map[string]*domain.AccountBaseline) *Mapper {
	m := &Mapper{
		provider:     provider,
		accounts:     accounts,
		baselines:    baselines,
		vpcToAccount: make(map[string]accountRef),
		vpcToBase:    make(map[string]*domain.AccountBaseline),
	}
	for _, acct := range accounts {
		if b, ok := baselines[acct.AccountID]; ok {
			m.vpcToAccount[b.VPC.VPCID] = accountRef{id: acct.AccountID, name: acct.AccountName}
			m.vpcToBase[b.VPC.VPCID] = b
		}
	}
	return m
}

// Discover walks every connection type and returns the combined summary.
// Per-account failures are logged and skipped so one broken account does
// not lose the rest of the graph.
func (m *Mapper) Discover(ctx context.Context, tgwID string) (*domain.ConnectivitySummary, error) {
	var edges []domain.ConnectivityEdge

	tgwIDs := []string{tgwID}
	if tgwID == "" {
		tgwIDs = m.autoDiscoverTGWs(ctx)
		if len(tgwIDs) > 0 {
			tgwID = tgwIDs[0]
		}
	}
	for _, id := range tgwIDs {
		if id == "" {
			continue
		}
		tgwEdges, err := m.discoverTGW(ctx, id)
		if err != nil {
			return nil, err
		}
		edges = append(edges, tgwEdges...)
	}

	for _, acct := range m.accounts {
		client, err := m.provider.GetClient(ctx, acct.AccountID)
		if err != nil {
			logging.Warn("skipping account during connectivity discovery",
				"account_id", acct.AccountID, "error", err)
			continue
		}
		edges = append(edges, m.discoverPeerings(ctx, client, acct)...)
		edges = append(edges, m.discoverVPNs(ctx, client, acct)...)
		edges = append(edges, m.discoverEndpoints(ctx, client, acct)...)
		edges = append(edges, m.discoverDirectConnect(ctx, client, acct)...)
	}

	edges = dedupe(edges)

	summary := &domain.ConnectivitySummary{
		Patterns:         edges,
		TGWID:            tgwID,
		TotalPaths:       len(edges),
		ByConnectionType: make(map[string]int),
	}
	for _, e := range edges {
		summary.ByConnectionType[e.ConnectionType.CountKey()]++
		if e.Expected {
			summary.ActivePaths++
		}
	}
	return summary, nil
}

// autoDiscoverTGWs collects the distinct transit gateways reachable from
// each account's baseline VPC attachments.
func (m *Mapper) autoDiscoverTGWs(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, acct := range m.accounts {
		b, ok := m.baselines[acct.AccountID]
		if !ok {
			continue
		}
		client, err := m.provider.GetClient(ctx, acct.AccountID)
		if err != nil {
			continue
		}
		attachments, err := client.ListTGWAttachmentsForVPC(ctx, b.VPC.VPCID)
		if err != nil {
			logging.Warn("tgw auto-discovery failed", "account_id", acct.AccountID, "error", err)
			continue
		}
		for _, att := range attachments {
			if att.TransitGatewayID == "" {
				continue
			}
			if _, dup := seen[att.TransitGatewayID]; dup {
				continue
			}
			seen[att.TransitGatewayID] = struct{}{}
			ids = append(ids, att.TransitGatewayID)
		}
	}
	sort.Strings(ids)
	return ids
}

// discoverTGW crosses each route table's VPC associations with the VPCs
// reachable through its active routes.
func (m *Mapper) discoverTGW(ctx context.Context, tgwID string) ([]domain.ConnectivityEdge, error) {
	hub, err := m.provider.GetHubClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("get hub client: %w", err)
	}

	attachments, err := hub.ListTGWVPCAttachments(ctx, tgwID)
	if err != nil {
		return nil, fmt.Errorf("list tgw attachments for %s: %w", tgwID, err)
	}
	for _, att := range attachments {
		if _, known := m.vpcToAccount[att.VPCID]; !known {
			owner := att.OwnerID
			if owner == "" {
				owner = "unknown"
			}
			m.vpcToAccount[att.VPCID] = accountRef{id: owner, name: owner}
		}
	}

	tables, err := hub.ListTGWRouteTables(ctx, tgwID)
	if err != nil {
		return nil, fmt.Errorf("list tgw route tables for %s: %w", tgwID, err)
	}

	var edges []domain.ConnectivityEdge
	for _, table := range tables {
		var sourceVPCs []string
		for _, assoc := range table.Associations {
			if assoc.ResourceType == "vpc" {
				sourceVPCs = append(sourceVPCs, assoc.ResourceID)
			}
		}

		destVPCs := make(map[string]struct{})
		for _, route := range table.Routes {
			if route.State != "active" {
				continue
			}
			for _, att := range route.Attachments {
				if att.ResourceType == "vpc" {
					destVPCs[att.ResourceID] = struct{}{}
				}
			}
		}

		for _, src := range sourceVPCs {
			for dst := range destVPCs {
				if src == dst {
					continue
				}
				edges = append(edges, m.edge(src, dst, domain.ConnectionTGW, tgwID, true, "general"))
			}
		}
	}
	return edges, nil
}

func (m *Mapper) discoverPeerings(ctx context.Context, client domain.CloudClient, acct domain.AccountConfig) []domain.ConnectivityEdge {
	peerings, err := client.ListVPCPeerings(ctx, "active", "pending-acceptance")
	if err != nil {
		logging.Warn("list vpc peerings failed", "account_id", acct.AccountID, "error", err)
		return nil
	}

	var edges []domain.ConnectivityEdge
	for _, p := range peerings {
		useCase := "general"
		if v, ok := p.Tags["UseCase"]; ok {
			useCase = v
		} else if v, ok := p.Tags["Purpose"]; ok {
			useCase = v
		}
		expected := p.Status == "active"

		// Both directions are separate test targets.
		edges = append(edges,
			m.edge(p.RequesterVPC, p.AccepterVPC, domain.ConnectionPeering, p.ID, expected, useCase),
			m.edge(p.AccepterVPC, p.RequesterVPC, domain.ConnectionPeering, p.ID, expected, useCase),
		)
	}
	return edges
}

func (m *Mapper) discoverVPNs(ctx context.Context, client domain.CloudClient, acct domain.AccountConfig) []domain.ConnectivityEdge {
	vpns, err := client.ListVPNConnections(ctx)
	if err != nil {
		logging.Warn("list vpn connections failed", "account_id", acct.AccountID, "error", err)
		return nil
	}

	var edges []domain.ConnectivityEdge
	for _, vpn := range vpns {
		srcVPC := vpn.VPCID
		if srcVPC == "" {
			if b, ok := m.baselines[acct.AccountID]; ok {
				srcVPC = b.VPC.VPCID
			}
		}
		e := domain.ConnectivityEdge{
			SourceVPCID:       srcVPC,
			SourceAccountID:   acct.AccountID,
			SourceAccountName: acct.AccountName,
			DestVPCID:         "on-premises",
			DestAccountID:     "external",
			DestAccountName:   "On-Premises",
			ConnectionType:    domain.ConnectionVPN,
			ConnectionID:      vpn.ID,
			Expected:          vpn.State == "available",
			UseCase:           "hybrid-connectivity",
		}
		if b, ok := m.baselines[acct.AccountID]; ok {
			e.PortsAllowed = sortedPorts(egressPorts(b))
		}
		edges = append(edges, e)
	}
	return edges
}

func (m *Mapper) discoverEndpoints(ctx context.Context, client domain.CloudClient, acct domain.AccountConfig) []domain.ConnectivityEdge {
	endpoints, err := client.ListVPCEndpoints(ctx)
	if err != nil {
		logging.Warn("list vpc endpoints failed", "account_id", acct.AccountID, "error", err)
		return nil
	}

	// Provider-side services have no path target, so they are inventoried
	// but never become edges.
	if services, err := client.ListEndpointServices(ctx); err != nil {
		logging.Warn("list endpoint services failed", "account_id", acct.AccountID, "error", err)
	} else if len(services) > 0 {
		logging.Info("endpoint services enumerated",
			"account_id", acct.AccountID, "services", len(services))
	}

	var edges []domain.ConnectivityEdge
	for _, ep := range endpoints {
		edges = append(edges, domain.ConnectivityEdge{
			SourceVPCID:       ep.VPCID,
			SourceAccountID:   acct.AccountID,
			SourceAccountName: acct.AccountName,
			DestVPCID:         "privatelink-service",
			DestAccountID:     "service",
			DestAccountName:   ep.ServiceName,
			ConnectionType:    domain.ConnectionPrivateLink,
			ConnectionID:      ep.ID,
			Expected:          ep.State == "available",
			UseCase:           "service-access",
		})
	}
	return edges
}

// discoverDirectConnect emits one on-premises edge per Direct Connect
// gateway association whose virtual gateway resolves to a VPC. Gateways
// with no associated VGW produce no edge.
func (m *Mapper) discoverDirectConnect(ctx context.Context, client domain.CloudClient, acct domain.AccountConfig) []domain.ConnectivityEdge {
	gateways, err := client.ListDXGateways(ctx)
	if err != nil {
		logging.Warn("list direct connect gateways failed", "account_id", acct.AccountID, "error", err)
		return nil
	}

	var edges []domain.ConnectivityEdge
	for _, gw := range gateways {
		associations, err := client.ListDXGatewayAssociations(ctx, gw.ID)
		if err != nil {
			logging.Warn("list direct connect associations failed",
				"account_id", acct.AccountID, "dx_gateway_id", gw.ID, "error", err)
			continue
		}
		for _, assoc := range associations {
			if assoc.VirtualGatewayID == "" {
				continue
			}
			srcVPC := ""
			if vgw, err := client.GetVirtualPrivateGateway(ctx, assoc.VirtualGatewayID); err == nil {
				srcVPC = vgw.VPCID
			}
			if srcVPC == "" {
				if b, ok := m.baselines[acct.AccountID]; ok {
					srcVPC = b.VPC.VPCID
				}
			}
			e := domain.ConnectivityEdge{
				SourceVPCID:       srcVPC,
				SourceAccountID:   acct.AccountID,
				SourceAccountName: acct.AccountName,
				DestVPCID:         "on-premises",
				DestAccountID:     "external",
				DestAccountName:   "On-Premises",
				ConnectionType:    domain.ConnectionDirectConnect,
				ConnectionID:      gw.ID,
				Expected:          assoc.State == "associated",
				UseCase:           "hybrid-connectivity",
			}
			if b, ok := m.baselines[acct.AccountID]; ok {
				e.PortsAllowed = sortedPorts(egressPorts(b))
			}
			edges = append(edges, e)
		}
	}
	return edges
}

func (m *Mapper) edge(srcVPC, dstVPC string, conn domain.ConnectionType, connID string, expected bool, useCase string) domain.ConnectivityEdge {
	src := m.lookupAccount(srcVPC)
	dst := m.lookupAccount(dstVPC)

	e := domain.ConnectivityEdge{
		SourceVPCID:       srcVPC,
		SourceAccountID:   src.id,
		SourceAccountName: src.name,
		DestVPCID:         dstVPC,
		DestAccountID:     dst.id,
		DestAccountName:   dst.name,
		ConnectionType:    conn,
		ConnectionID:      connID,
		Expected:          expected,
		UseCase:           useCase,
	}
	e.PortsAllowed = AllowedBetween(m.vpcToBase[srcVPC], m.vpcToBase[dstVPC])
	return e
}

func (m *Mapper) lookupAccount(vpcID string) accountRef {
	if ref, ok := m.vpcToAccount[vpcID]; ok {
		return ref
	}
	return accountRef{id: "unknown", name: "unknown"}
}

// dedupe drops edges sharing connection, source, and destination. Two
// accounts both reporting the same peering is the common case.
func dedupe(edges []domain.ConnectivityEdge) []domain.ConnectivityEdge {
	seen := make(map[string]struct{}, len(edges))
	out := edges[:0]
	for _, e := range edges {
		key := fmt.Sprintf("%s|%s|%s", e.ConnectionID, e.SourceVPCID, e.DestVPCID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
