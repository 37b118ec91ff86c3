package connectivity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/arjale/netpath/internal/domain"
)

type mockClient struct {
	domain.CloudClient

	accountID      string
	attachments    []domain.TGWAttachmentData
	vpcAttachments []domain.TGWAttachmentData
	tgwTables      []domain.TGWRouteTableData
	peerings       []domain.VPCPeeringData
	vpns           []domain.VPNConnectionData
	endpoints      []domain.VPCEndpointData
	services       []domain.EndpointServiceData
	servicesCalls  int
	dxGateways     []domain.DXGatewayData
	dxAssocs       map[string][]domain.DXGatewayAssociationData
	vgws           map[string]*domain.VirtualPrivateGatewayData
	flows          map[string][]domain.FlowRecord
}

func (m *mockClient) AccountID() string { return m.accountID }
func (m *mockClient) Region() string    { return "us-west-2" }

func (m *mockClient) ListTGWVPCAttachments(ctx context.Context, tgwID string) ([]domain.TGWAttachmentData, error) {
	return m.attachments, nil
}

func (m *mockClient) ListTGWAttachmentsForVPC(ctx context.Context, vpcID string) ([]domain.TGWAttachmentData, error) {
	return m.vpcAttachments, nil
}

func (m *mockClient) ListTGWRouteTables(ctx context.Context, tgwID string) ([]domain.TGWRouteTableData, error) {
	return m.tgwTables, nil
}

func (m *mockClient) ListVPCPeerings(ctx context.Context, statuses ...string) ([]domain.VPCPeeringData, error) {
	return m.peerings, nil
}

func (m *mockClient) ListVPNConnections(ctx context.Context) ([]domain.VPNConnectionData, error) {
	return m.vpns, nil
}

func (m *mockClient) ListVPCEndpoints(ctx context.Context) ([]domain.VPCEndpointData, error) {
	return m.endpoints, nil
}

func (m *mockClient) ListEndpointServices(ctx context.Context) ([]domain.EndpointServiceData, error) {
	m.servicesCalls++
	return m.services, nil
}

func (m *mockClient) ListDXGateways(ctx context.Context) ([]domain.DXGatewayData, error) {
	return m.dxGateways, nil
}

func (m *mockClient) ListDXGatewayAssociations(ctx context.Context, dxgwID string) ([]domain.DXGatewayAssociationData, error) {
	return m.dxAssocs[dxgwID], nil
}

func (m *mockClient) GetVirtualPrivateGateway(ctx context.Context, vgwID string) (*domain.VirtualPrivateGatewayData, error) {
	if vgw, ok := m.vgws[vgwID]; ok {
		return vgw, nil
	}
	return nil, fmt.Errorf("virtual private gateway %s not found", vgwID)
}

func (m *mockClient) QueryFlowLogs(ctx context.Context, logGroup string, lookback time.Duration) ([]domain.FlowRecord, error) {
	return m.flows[logGroup], nil
}

type mockProvider struct {
	clients map[string]*mockClient
	hub     *mockClient
}

func (p *mockProvider) GetClient(ctx context.Context, accountID string) (domain.CloudClient, error) {
	if c, ok := p.clients[accountID]; ok {
		return c, nil
	}
	return &mockClient{accountID: accountID}, nil
}

func (p *mockProvider) GetHubClient(ctx context.Context) (domain.CloudClient, error) {
	return p.hub, nil
}

func (p *mockProvider) Invalidate(accountID string) {}

func testAccounts() ([]domain.AccountConfig, map[string]*domain.AccountBaseline) {
	accounts := []domain.AccountConfig{
		{AccountID: "111111111111", AccountName: "prod"},
		{AccountID: "222222222222", AccountName: "staging"},
	}
	baselines := map[string]*domain.AccountBaseline{
		"111111111111": {
			AccountID: "111111111111",
			VPC:       domain.VPCBaseline{VPCID: "vpc-prod", CIDRBlock: "10.0.0.0/16"},
		},
		"222222222222": {
			AccountID: "222222222222",
			VPC:       domain.VPCBaseline{VPCID: "vpc-staging", CIDRBlock: "10.1.0.0/16"},
		},
	}
	return accounts, baselines
}

func TestDiscover_TGWMatrix(t *testing.T) {
	hub := &mockClient{
		accountID: "111111111111",
		attachments: []domain.TGWAttachmentData{
			{ID: "att-1", VPCID: "vpc-prod", OwnerID: "111111111111"},
			{ID: "att-2", VPCID: "vpc-staging", OwnerID: "222222222222"},
			{ID: "att-3", VPCID: "vpc-foreign", OwnerID: "333333333333"},
		},
		tgwTables: []domain.TGWRouteTableData{
			{
				ID: "tgw-rtb-1",
				Associations: []domain.TGWAssociation{
					{ResourceID: "vpc-prod", ResourceType: "vpc"},
					{ResourceID: "vpc-staging", ResourceType: "vpc"},
				},
				Routes: []domain.TGWRoute{
					{
						State: "active",
						Attachments: []domain.TGWRouteAttachment{
							{ResourceID: "vpc-prod", ResourceType: "vpc"},
							{ResourceID: "vpc-staging", ResourceType: "vpc"},
						},
					},
					{
						State: "blackhole",
						Attachments: []domain.TGWRouteAttachment{
							{ResourceID: "vpc-dead", ResourceType: "vpc"},
						},
					},
				},
			},
		},
	}
	accounts, baselines := testAccounts()
	provider := &mockProvider{hub: hub, clients: map[string]*mockClient{}}

	summary, err := NewMapper(provider, accounts, baselines).Discover(context.Background(), "tgw-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two associated VPCs crossed with two active destinations minus
	// self edges gives two directed edges.
	if summary.ByConnectionType["tgw"] != 2 {
		t.Fatalf("expected 2 tgw edges, got %d (%+v)", summary.ByConnectionType["tgw"], summary.Patterns)
	}
	for _, e := range summary.Patterns {
		if e.SourceVPCID == e.DestVPCID {
			t.Errorf("self edge leaked: %+v", e)
		}
		if !e.Expected {
			t.Errorf("tgw edges from active routes must be expected: %+v", e)
		}
	}
}

func TestDiscover_TGWUnknownOwnerFallback(t *testing.T) {
	hub := &mockClient{
		attachments: []domain.TGWAttachmentData{
			{ID: "att-3", VPCID: "vpc-foreign", OwnerID: "333333333333"},
		},
		tgwTables: []domain.TGWRouteTableData{
			{
				Associations: []domain.TGWAssociation{{ResourceID: "vpc-prod", ResourceType: "vpc"}},
				Routes: []domain.TGWRoute{
					{State: "active", Attachments: []domain.TGWRouteAttachment{
						{ResourceID: "vpc-foreign", ResourceType: "vpc"},
					}},
				},
			},
		},
	}
	accounts, baselines := testAccounts()
	provider := &mockProvider{hub: hub, clients: map[string]*mockClient{}}

	summary, err := NewMapper(provider, accounts, baselines).Discover(context.Background(), "tgw-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found bool
	for _, e := range summary.Patterns {
		if e.DestVPCID == "vpc-foreign" {
			found = true
			if e.DestAccountID != "333333333333" || e.DestAccountName != "333333333333" {
				t.Errorf("expected attachment owner as account, got %+v", e)
			}
		}
	}
	if !found {
		t.Fatal("edge to foreign vpc not discovered")
	}
}

func TestDiscover_TGWAutoDiscovery(t *testing.T) {
	hub := &mockClient{
		attachments: []domain.TGWAttachmentData{
			{ID: "att-1", VPCID: "vpc-prod", OwnerID: "111111111111"},
			{ID: "att-2", VPCID: "vpc-staging", OwnerID: "222222222222"},
		},
		tgwTables: []domain.TGWRouteTableData{
			{
				Associations: []domain.TGWAssociation{{ResourceID: "vpc-prod", ResourceType: "vpc"}},
				Routes: []domain.TGWRoute{
					{State: "active", Attachments: []domain.TGWRouteAttachment{
						{ResourceID: "vpc-staging", ResourceType: "vpc"},
					}},
				},
			},
		},
	}
	accounts, baselines := testAccounts()
	provider := &mockProvider{
		hub: hub,
		clients: map[string]*mockClient{
			"111111111111": {
				accountID: "111111111111",
				vpcAttachments: []domain.TGWAttachmentData{
					{ID: "att-1", TransitGatewayID: "tgw-auto", VPCID: "vpc-prod"},
				},
			},
		},
	}

	summary, err := NewMapper(provider, accounts, baselines).Discover(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TGWID != "tgw-auto" {
		t.Errorf("expected auto-discovered tgw id, got %q", summary.TGWID)
	}
	if summary.ByConnectionType["tgw"] != 1 {
		t.Fatalf("expected 1 tgw edge from auto-discovery, got %+v", summary.ByConnectionType)
	}
}

func TestDiscover_PeeringBothDirectionsDeduped(t *testing.T) {
	peering := domain.VPCPeeringData{
		ID:           "pcx-1",
		RequesterVPC: "vpc-prod",
		AccepterVPC:  "vpc-staging",
		Status:       "active",
		Tags:         map[string]string{"Purpose": "shared-db"},
	}
	accounts, baselines := testAccounts()
	provider := &mockProvider{
		hub: &mockClient{},
		clients: map[string]*mockClient{
			// Both accounts see the same peering.
			"111111111111": {accountID: "111111111111", peerings: []domain.VPCPeeringData{peering}},
			"222222222222": {accountID: "222222222222", peerings: []domain.VPCPeeringData{peering}},
		},
	}

	summary, err := NewMapper(provider, accounts, baselines).Discover(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ByConnectionType["peering"] != 2 {
		t.Fatalf("expected 2 directed peering edges after dedup, got %d", summary.ByConnectionType["peering"])
	}
	for _, e := range summary.Patterns {
		if e.UseCase != "shared-db" {
			t.Errorf("expected use case from Purpose tag, got %s", e.UseCase)
		}
	}
}

func TestDiscover_VPNAndEndpoints(t *testing.T) {
	accounts, baselines := testAccounts()
	provider := &mockProvider{
		hub: &mockClient{},
		clients: map[string]*mockClient{
			"111111111111": {
				accountID: "111111111111",
				vpns: []domain.VPNConnectionData{
					{ID: "vpn-1", State: "available", TunnelsUp: 2, TunnelsTotal: 2},
				},
				endpoints: []domain.VPCEndpointData{
					{ID: "vpce-1", VPCID: "vpc-prod", ServiceName: "com.amazonaws.us-west-2.s3", State: "available"},
				},
			},
		},
	}

	summary, err := NewMapper(provider, accounts, baselines).Discover(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var vpnEdge, epEdge *domain.ConnectivityEdge
	for i := range summary.Patterns {
		switch summary.Patterns[i].ConnectionType {
		case domain.ConnectionVPN:
			vpnEdge = &summary.Patterns[i]
		case domain.ConnectionPrivateLink:
			epEdge = &summary.Patterns[i]
		}
	}

	if vpnEdge == nil {
		t.Fatal("vpn edge missing")
	}
	if vpnEdge.DestVPCID != "on-premises" || vpnEdge.DestAccountName != "On-Premises" {
		t.Errorf("unexpected vpn destination %+v", vpnEdge)
	}
	if vpnEdge.SourceVPCID != "vpc-prod" {
		t.Errorf("vpn source should fall back to the account baseline vpc, got %s", vpnEdge.SourceVPCID)
	}
	if vpnEdge.UseCase != "hybrid-connectivity" {
		t.Errorf("unexpected vpn use case %s", vpnEdge.UseCase)
	}

	if epEdge == nil {
		t.Fatal("endpoint edge missing")
	}
	if epEdge.DestAccountName != "com.amazonaws.us-west-2.s3" || epEdge.UseCase != "service-access" {
		t.Errorf("unexpected endpoint edge %+v", epEdge)
	}
}

func TestDiscover_EndpointServicesInventoriedWithoutEdges(t *testing.T) {
	accounts, baselines := testAccounts()
	client := &mockClient{
		accountID: "111111111111",
		services: []domain.EndpointServiceData{
			{ServiceName: "com.example.vpce-svc-1", ServiceID: "vpce-svc-1"},
		},
	}
	provider := &mockProvider{
		hub:     &mockClient{},
		clients: map[string]*mockClient{"111111111111": client},
	}

	summary, err := NewMapper(provider, accounts, baselines).Discover(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.servicesCalls == 0 {
		t.Error("endpoint services were never enumerated")
	}
	for _, e := range summary.Patterns {
		if e.ConnectionType == domain.ConnectionPrivateLink {
			t.Errorf("provider-side service produced an edge: %+v", e)
		}
	}
}

func TestDiscover_DirectConnect(t *testing.T) {
	accounts, baselines := testAccounts()
	provider := &mockProvider{
		hub: &mockClient{},
		clients: map[string]*mockClient{
			"111111111111": {
				accountID:  "111111111111",
				dxGateways: []domain.DXGatewayData{{ID: "dxgw-1", State: "available"}},
				dxAssocs: map[string][]domain.DXGatewayAssociationData{
					"dxgw-1": {{DXGatewayID: "dxgw-1", VirtualGatewayID: "vgw-1", State: "associated"}},
				},
				vgws: map[string]*domain.VirtualPrivateGatewayData{
					"vgw-1": {ID: "vgw-1", VPCID: "vpc-prod", State: "attached"},
				},
			},
		},
	}

	summary, err := NewMapper(provider, accounts, baselines).Discover(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ByConnectionType["dx"] != 1 {
		t.Fatalf("expected 1 dx edge, got %+v", summary.ByConnectionType)
	}
	edge := summary.Patterns[0]
	if edge.SourceVPCID != "vpc-prod" || edge.DestVPCID != "on-premises" {
		t.Errorf("unexpected dx edge endpoints %+v", edge)
	}
	if edge.ConnectionID != "dxgw-1" || !edge.Expected {
		t.Errorf("unexpected dx edge %+v", edge)
	}
}

func TestEnrichTraffic_MatchesByCIDR(t *testing.T) {
	accounts, baselines := testAccounts()
	provider := &mockProvider{
		hub: &mockClient{},
		clients: map[string]*mockClient{
			"111111111111": {
				accountID: "111111111111",
				flows: map[string][]domain.FlowRecord{
					"/aws/vpc/flowlogs/vpc-prod": {
						{SrcAddr: "10.0.1.5", DstAddr: "10.1.2.9", DstPort: 443, Protocol: "6", Packets: 1200},
						{SrcAddr: "10.0.1.5", DstAddr: "8.8.8.8", DstPort: 53, Protocol: "17", Packets: 10},
					},
				},
			},
		},
	}

	m := NewMapper(provider, accounts, baselines)
	summary := &domain.ConnectivitySummary{
		Patterns: []domain.ConnectivityEdge{
			{SourceVPCID: "vpc-prod", DestVPCID: "vpc-staging", ConnectionType: domain.ConnectionTGW, Expected: true},
		},
	}
	m.EnrichTraffic(context.Background(), summary)

	edge := summary.Patterns[0]
	if !edge.TrafficObserved {
		t.Fatal("expected traffic observed")
	}
	if len(edge.PortsObserved) != 1 || edge.PortsObserved[0] != 443 {
		t.Errorf("unexpected ports %v", edge.PortsObserved)
	}
	if len(edge.ProtocolsObserved) != 1 || edge.ProtocolsObserved[0] != "tcp" {
		t.Errorf("unexpected protocols %v", edge.ProtocolsObserved)
	}
	if edge.PacketCount != 1200 {
		t.Errorf("unexpected packet count %d", edge.PacketCount)
	}
}
