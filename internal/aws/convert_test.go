package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

func TestToVPCData_SecondaryCIDRs(t *testing.T) {
	vpc := &ec2types.Vpc{
		VpcId:     aws.String("vpc-1"),
		CidrBlock: aws.String("10.0.0.0/16"),
		OwnerId:   aws.String("111111111111"),
		IsDefault: aws.Bool(false),
		CidrBlockAssociationSet: []ec2types.VpcCidrBlockAssociation{
			{
				CidrBlock:      aws.String("10.0.0.0/16"),
				CidrBlockState: &ec2types.VpcCidrBlockState{State: ec2types.VpcCidrBlockStateCodeAssociated},
			},
			{
				CidrBlock:      aws.String("10.1.0.0/16"),
				CidrBlockState: &ec2types.VpcCidrBlockState{State: ec2types.VpcCidrBlockStateCodeAssociated},
			},
			{
				CidrBlock:      aws.String("10.2.0.0/16"),
				CidrBlockState: &ec2types.VpcCidrBlockState{State: ec2types.VpcCidrBlockStateCodeDisassociated},
			},
		},
		Tags: []ec2types.Tag{{Key: aws.String("Name"), Value: aws.String("prod")}},
	}

	data := toVPCData(vpc)
	if data.CIDRBlock != "10.0.0.0/16" {
		t.Errorf("unexpected primary cidr %s", data.CIDRBlock)
	}
	if len(data.SecondaryCIDRs) != 1 || data.SecondaryCIDRs[0] != "10.1.0.0/16" {
		t.Errorf("unexpected secondary cidrs %v", data.SecondaryCIDRs)
	}
	if data.Name != "prod" {
		t.Errorf("unexpected name %s", data.Name)
	}
}

func TestRouteTarget_Priority(t *testing.T) {
	cases := []struct {
		name     string
		route    ec2types.Route
		wantType string
		wantID   string
	}{
		{
			name:     "internet gateway",
			route:    ec2types.Route{GatewayId: aws.String("igw-1")},
			wantType: "gateway",
			wantID:   "igw-1",
		},
		{
			name: "transit gateway over nat",
			route: ec2types.Route{
				TransitGatewayId: aws.String("tgw-1"),
				NatGatewayId:     aws.String("nat-1"),
			},
			wantType: "transit-gateway",
			wantID:   "tgw-1",
		},
		{
			name:     "peering",
			route:    ec2types.Route{VpcPeeringConnectionId: aws.String("pcx-1")},
			wantType: "vpc-peering",
			wantID:   "pcx-1",
		},
		{
			name:     "local gateway id",
			route:    ec2types.Route{GatewayId: aws.String("local")},
			wantType: "local",
			wantID:   "local",
		},
		{
			name:     "empty route",
			route:    ec2types.Route{},
			wantType: "local",
			wantID:   "local",
		},
	}
	for _, tc := range cases {
		gotType, gotID := routeTarget(&tc.route)
		if gotType != tc.wantType || gotID != tc.wantID {
			t.Errorf("%s: routeTarget = (%s, %s), want (%s, %s)",
				tc.name, gotType, gotID, tc.wantType, tc.wantID)
		}
	}
}

func TestToRouteTableData_MainAndAssociations(t *testing.T) {
	rt := &ec2types.RouteTable{
		RouteTableId: aws.String("rtb-1"),
		VpcId:        aws.String("vpc-1"),
		Associations: []ec2types.RouteTableAssociation{
			{Main: aws.Bool(true)},
			{SubnetId: aws.String("subnet-1")},
		},
		Routes: []ec2types.Route{
			{DestinationCidrBlock: aws.String("0.0.0.0/0"), GatewayId: aws.String("igw-1"), State: ec2types.RouteStateActive},
		},
	}

	data := toRouteTableData(rt)
	if !data.Main {
		t.Error("expected main route table")
	}
	if len(data.AssociatedSubnets) != 1 || data.AssociatedSubnets[0] != "subnet-1" {
		t.Errorf("unexpected associations %v", data.AssociatedSubnets)
	}
	if data.Routes[0].State != "active" {
		t.Errorf("unexpected route state %s", data.Routes[0].State)
	}
}

func TestToVPNConnectionData_Tunnels(t *testing.T) {
	vpn := &ec2types.VpnConnection{
		VpnConnectionId: aws.String("vpn-1"),
		VpnGatewayId:    aws.String("vgw-1"),
		State:           ec2types.VpnStateAvailable,
		VgwTelemetry: []ec2types.VgwTelemetry{
			{Status: ec2types.TelemetryStatusUp},
			{Status: ec2types.TelemetryStatusDown},
		},
	}

	data := toVPNConnectionData(vpn)
	if data.TunnelsUp != 1 || data.TunnelsTotal != 2 {
		t.Errorf("tunnels = %d/%d, want 1/2", data.TunnelsUp, data.TunnelsTotal)
	}
	if data.State != "available" {
		t.Errorf("unexpected state %s", data.State)
	}
}

func TestToVPCPeeringData(t *testing.T) {
	pcx := &ec2types.VpcPeeringConnection{
		VpcPeeringConnectionId: aws.String("pcx-1"),
		RequesterVpcInfo: &ec2types.VpcPeeringConnectionVpcInfo{
			VpcId:     aws.String("vpc-a"),
			OwnerId:   aws.String("111111111111"),
			CidrBlock: aws.String("10.0.0.0/16"),
		},
		AccepterVpcInfo: &ec2types.VpcPeeringConnectionVpcInfo{
			VpcId:     aws.String("vpc-b"),
			OwnerId:   aws.String("222222222222"),
			CidrBlock: aws.String("10.1.0.0/16"),
		},
		Status: &ec2types.VpcPeeringConnectionStateReason{Code: ec2types.VpcPeeringConnectionStateReasonCodeActive},
		Tags:   []ec2types.Tag{{Key: aws.String("UseCase"), Value: aws.String("shared-services")}},
	}

	data := toVPCPeeringData(pcx)
	if data.RequesterVPC != "vpc-a" || data.AccepterVPC != "vpc-b" {
		t.Errorf("unexpected vpcs %s -> %s", data.RequesterVPC, data.AccepterVPC)
	}
	if data.Status != "active" {
		t.Errorf("unexpected status %s", data.Status)
	}
	if data.Tags["UseCase"] != "shared-services" {
		t.Errorf("unexpected tags %v", data.Tags)
	}
}

func TestToTGWAttachmentData_ApplianceMode(t *testing.T) {
	att := &ec2types.TransitGatewayVpcAttachment{
		TransitGatewayAttachmentId: aws.String("tgw-attach-1"),
		TransitGatewayId:           aws.String("tgw-1"),
		VpcId:                      aws.String("vpc-1"),
		VpcOwnerId:                 aws.String("111111111111"),
		State:                      ec2types.TransitGatewayAttachmentStateAvailable,
		Options: &ec2types.TransitGatewayVpcAttachmentOptions{
			ApplianceModeSupport: ec2types.ApplianceModeSupportValueEnable,
		},
	}

	data := toTGWAttachmentData(att)
	if !data.ApplianceMode {
		t.Error("expected appliance mode enabled")
	}
	if data.OwnerID != "111111111111" {
		t.Errorf("unexpected owner %s", data.OwnerID)
	}
}
