package baseline

import (
	"context"
	"testing"

	"github.com/arjale/netpath/internal/domain"
)

// mockClient overrides only the methods a test exercises; anything else
// panics through the embedded nil interface.
type mockClient struct {
	domain.CloudClient

	accountID   string
	vpcs        []domain.VPCData
	subnets     map[string][]domain.SubnetData
	routeTables map[string][]domain.RouteTableData
	groups      map[string][]domain.SecurityGroupData
	nacls       map[string][]domain.NACLData
	attachments    map[string]*domain.TGWAttachmentData
	vpcAttachments map[string][]domain.TGWAttachmentData
	tgwTables      []domain.TGWRouteTableData
}

func (m *mockClient) AccountID() string { return m.accountID }
func (m *mockClient) Region() string    { return "us-west-2" }

func (m *mockClient) ListVPCs(ctx context.Context, onlyNonDefault bool) ([]domain.VPCData, error) {
	if !onlyNonDefault {
		return m.vpcs, nil
	}
	var out []domain.VPCData
	for _, v := range m.vpcs {
		if !v.IsDefault {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockClient) GetVPC(ctx context.Context, vpcID string) (*domain.VPCData, error) {
	for i := range m.vpcs {
		if m.vpcs[i].ID == vpcID {
			return &m.vpcs[i], nil
		}
	}
	return nil, domain.ErrNoAccounts
}

func (m *mockClient) ListSubnets(ctx context.Context, vpcID string) ([]domain.SubnetData, error) {
	return m.subnets[vpcID], nil
}

func (m *mockClient) ListRouteTables(ctx context.Context, vpcID string) ([]domain.RouteTableData, error) {
	return m.routeTables[vpcID], nil
}

func (m *mockClient) ListSecurityGroups(ctx context.Context, vpcID string) ([]domain.SecurityGroupData, error) {
	return m.groups[vpcID], nil
}

func (m *mockClient) ListNetworkACLs(ctx context.Context, vpcID string) ([]domain.NACLData, error) {
	return m.nacls[vpcID], nil
}

func (m *mockClient) GetTGWAttachmentForVPC(ctx context.Context, vpcID, tgwID string) (*domain.TGWAttachmentData, error) {
	return m.attachments[vpcID], nil
}

func (m *mockClient) ListTGWAttachmentsForVPC(ctx context.Context, vpcID string) ([]domain.TGWAttachmentData, error) {
	return m.vpcAttachments[vpcID], nil
}

func (m *mockClient) ListTGWRouteTables(ctx context.Context, tgwID string) ([]domain.TGWRouteTableData, error) {
	return m.tgwTables, nil
}

func newTestClient() *mockClient {
	return &mockClient{
		accountID: "111111111111",
		vpcs: []domain.VPCData{
			{ID: "vpc-default", CIDRBlock: "172.31.0.0/16", IsDefault: true},
			{ID: "vpc-prod", CIDRBlock: "10.0.0.0/16", DNSSupport: true, DNSHostnames: true},
		},
		subnets: map[string][]domain.SubnetData{
			"vpc-prod": {
				{ID: "subnet-1", CIDRBlock: "10.0.1.0/24", AvailabilityZone: "us-west-2a"},
				{ID: "subnet-2", CIDRBlock: "10.0.2.0/24", AvailabilityZone: "us-west-2b"},
			},
		},
		routeTables: map[string][]domain.RouteTableData{
			"vpc-prod": {
				{
					ID:   "rtb-1",
					Main: true,
					Routes: []domain.Route{
						{DestinationCIDR: "10.0.0.0/16", TargetType: "local", TargetID: "local", State: "active"},
						{DestinationCIDR: "0.0.0.0/0", TargetType: "transit-gateway", TargetID: "tgw-1", State: "active"},
					},
				},
			},
		},
		groups: map[string][]domain.SecurityGroupData{
			"vpc-prod": {
				{ID: "sg-default", Name: "default", InboundRules: []domain.SecurityGroupRule{
					{Protocol: "-1"},
				}},
				{ID: "sg-app", Name: "app", InboundRules: []domain.SecurityGroupRule{
					{Protocol: "tcp", FromPort: 443, ToPort: 443, CIDRBlocks: []string{"10.0.0.0/8"}},
				}},
			},
		},
		nacls: map[string][]domain.NACLData{
			"vpc-prod": {
				{ID: "acl-default", IsDefault: true, InboundRules: []domain.NACLRule{
					{RuleNumber: 100, Action: "allow"}, {RuleNumber: 32767, Action: "deny"},
				}},
				{ID: "acl-custom", InboundRules: []domain.NACLRule{
					{RuleNumber: 100, Protocol: "6", Action: "allow", FromPort: 443, ToPort: 443},
					{RuleNumber: 200, Protocol: "6", Action: "allow", FromPort: 80, ToPort: 80},
					{RuleNumber: 32767, Action: "deny"},
				}},
			},
		},
	}
}

func TestCollect_PicksFirstNonDefaultVPC(t *testing.T) {
	c := NewCollector(newTestClient())

	b, err := c.Collect(context.Background(), domain.AccountConfig{
		AccountID:   "111111111111",
		AccountName: "prod",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.VPC.VPCID != "vpc-prod" {
		t.Errorf("expected vpc-prod, got %s", b.VPC.VPCID)
	}
	if b.VPC.SubnetCount != 2 {
		t.Errorf("expected 2 subnets, got %d", b.VPC.SubnetCount)
	}
	if len(b.VPC.AvailabilityZones) != 2 {
		t.Errorf("expected 2 AZs, got %v", b.VPC.AvailabilityZones)
	}
}

func TestCollect_SkipsDefaultSecurityGroup(t *testing.T) {
	c := NewCollector(newTestClient())

	b, err := c.Collect(context.Background(), domain.AccountConfig{AccountID: "111111111111"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.SecurityGroups) != 1 || b.SecurityGroups[0].GroupName != "app" {
		t.Errorf("expected only the app group, got %+v", b.SecurityGroups)
	}
	if len(b.AllowedPorts) != 1 {
		t.Fatalf("expected 1 allowed port rule, got %d", len(b.AllowedPorts))
	}
	if b.AllowedPorts[0].Description != "SG:app" {
		t.Errorf("unexpected description %s", b.AllowedPorts[0].Description)
	}
}

func TestCollect_SkipsUntouchedDefaultNACL(t *testing.T) {
	c := NewCollector(newTestClient())

	b, err := c.Collect(context.Background(), domain.AccountConfig{AccountID: "111111111111"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.NetworkACLs) != 1 || b.NetworkACLs[0].NACLID != "acl-custom" {
		t.Errorf("expected only acl-custom, got %+v", b.NetworkACLs)
	}
}

func TestCollect_TGWBaselineBestEffort(t *testing.T) {
	client := newTestClient()
	client.attachments = map[string]*domain.TGWAttachmentData{
		"vpc-prod": {ID: "tgw-attach-1", State: "available", SubnetIDs: []string{"subnet-1"}},
	}
	client.tgwTables = []domain.TGWRouteTableData{{ID: "tgw-rtb-1"}}

	b, err := NewCollector(client).Collect(context.Background(), domain.AccountConfig{
		AccountID: "111111111111",
		TGWID:     "tgw-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.TransitGateway == nil {
		t.Fatal("expected transit gateway baseline")
	}
	if b.TransitGateway.AttachmentID != "tgw-attach-1" {
		t.Errorf("unexpected attachment %s", b.TransitGateway.AttachmentID)
	}
	if b.TransitGateway.RouteTableID != "tgw-rtb-1" {
		t.Errorf("unexpected route table %s", b.TransitGateway.RouteTableID)
	}
}

func TestCollect_TGWBaselineWithoutConfiguredID(t *testing.T) {
	client := newTestClient()
	client.vpcAttachments = map[string][]domain.TGWAttachmentData{
		"vpc-prod": {
			{ID: "tgw-attach-1", TransitGatewayID: "tgw-auto", State: "available", SubnetIDs: []string{"subnet-1"}},
		},
	}

	b, err := NewCollector(client).Collect(context.Background(), domain.AccountConfig{
		AccountID: "111111111111",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.TransitGateway == nil {
		t.Fatal("expected transit gateway baseline from the VPC's attachment")
	}
	if b.TransitGateway.TGWID != "tgw-auto" {
		t.Errorf("expected tgw id from the attachment, got %s", b.TransitGateway.TGWID)
	}
	if b.TransitGateway.AttachmentID != "tgw-attach-1" {
		t.Errorf("unexpected attachment %s", b.TransitGateway.AttachmentID)
	}
}

func TestCollect_NoAttachmentLeavesTGWNil(t *testing.T) {
	b, err := NewCollector(newTestClient()).Collect(context.Background(), domain.AccountConfig{
		AccountID: "111111111111",
		TGWID:     "tgw-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.TransitGateway != nil {
		t.Errorf("expected nil transit gateway baseline, got %+v", b.TransitGateway)
	}
}
