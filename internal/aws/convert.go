package aws

import (
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/arjale/netpath/internal/domain"
)

func toVPCData(vpc *ec2types.Vpc) *domain.VPCData {
	var secondary []string
	primary := derefString(vpc.CidrBlock)
	for _, assoc := range vpc.CidrBlockAssociationSet {
		if assoc.CidrBlockState == nil || assoc.CidrBlockState.State != ec2types.VpcCidrBlockStateCodeAssociated {
			continue
		}
		cidr := derefString(assoc.CidrBlock)
		if cidr != "" && cidr != primary {
			secondary = append(secondary, cidr)
		}
	}
	return &domain.VPCData{
		ID:             derefString(vpc.VpcId),
		Name:           tagValue(vpc.Tags, "Name"),
		OwnerID:        derefString(vpc.OwnerId),
		CIDRBlock:      primary,
		SecondaryCIDRs: secondary,
		IsDefault:      derefBool(vpc.IsDefault),
	}
}

func toSubnetData(subnet *ec2types.Subnet) domain.SubnetData {
	return domain.SubnetData{
		ID:               derefString(subnet.SubnetId),
		VPCID:            derefString(subnet.VpcId),
		CIDRBlock:        derefString(subnet.CidrBlock),
		AvailabilityZone: derefString(subnet.AvailabilityZone),
	}
}

func toRouteTableData(rt *ec2types.RouteTable) domain.RouteTableData {
	data := domain.RouteTableData{
		ID:    derefString(rt.RouteTableId),
		VPCID: derefString(rt.VpcId),
	}
	for _, assoc := range rt.Associations {
		if derefBool(assoc.Main) {
			data.Main = true
		}
		if assoc.SubnetId != nil {
			data.AssociatedSubnets = append(data.AssociatedSubnets, *assoc.SubnetId)
		}
	}
	for _, r := range rt.Routes {
		targetType, targetID := routeTarget(&r)
		data.Routes = append(data.Routes, domain.Route{
			DestinationCIDR:         derefString(r.DestinationCidrBlock),
			DestinationPrefixListID: derefString(r.DestinationPrefixListId),
			TargetType:              targetType,
			TargetID:                targetID,
			State:                   string(r.State),
		})
	}
	return data
}

// routeTarget resolves a route's forwarding target, preferring the most
// specific gateway attribute the API populates.
func routeTarget(r *ec2types.Route) (targetType, targetID string) {
	switch {
	case r.GatewayId != nil && *r.GatewayId != "local":
		return "gateway", *r.GatewayId
	case r.TransitGatewayId != nil:
		return "transit-gateway", *r.TransitGatewayId
	case r.NatGatewayId != nil:
		return "nat-gateway", *r.NatGatewayId
	case r.VpcPeeringConnectionId != nil:
		return "vpc-peering", *r.VpcPeeringConnectionId
	case r.NetworkInterfaceId != nil:
		return "network-interface", *r.NetworkInterfaceId
	default:
		return "local", "local"
	}
}

func toSecurityGroupData(sg *ec2types.SecurityGroup) domain.SecurityGroupData {
	return domain.SecurityGroupData{
		ID:            derefString(sg.GroupId),
		Name:          derefString(sg.GroupName),
		VPCID:         derefString(sg.VpcId),
		InboundRules:  toSecurityGroupRules(sg.IpPermissions),
		OutboundRules: toSecurityGroupRules(sg.IpPermissionsEgress),
	}
}

func toSecurityGroupRules(perms []ec2types.IpPermission) []domain.SecurityGroupRule {
	var rules []domain.SecurityGroupRule
	for _, perm := range perms {
		var cidrs []string
		for _, r := range perm.IpRanges {
			if r.CidrIp != nil {
				cidrs = append(cidrs, *r.CidrIp)
			}
		}
		var peers []string
		for _, pair := range perm.UserIdGroupPairs {
			if pair.GroupId != nil {
				peers = append(peers, *pair.GroupId)
			}
		}
		rules = append(rules, domain.SecurityGroupRule{
			Protocol:                 derefString(perm.IpProtocol),
			FromPort:                 int(derefInt32(perm.FromPort)),
			ToPort:                   int(derefInt32(perm.ToPort)),
			CIDRBlocks:               cidrs,
			ReferencedSecurityGroups: peers,
		})
	}
	return rules
}

func toNACLData(nacl *ec2types.NetworkAcl) domain.NACLData {
	data := domain.NACLData{
		ID:        derefString(nacl.NetworkAclId),
		VPCID:     derefString(nacl.VpcId),
		IsDefault: derefBool(nacl.IsDefault),
	}
	for _, assoc := range nacl.Associations {
		if assoc.SubnetId != nil {
			data.AssociatedSubnets = append(data.AssociatedSubnets, *assoc.SubnetId)
		}
	}
	for _, entry := range nacl.Entries {
		rule := domain.NACLRule{
			RuleNumber: int(derefInt32(entry.RuleNumber)),
			Protocol:   derefString(entry.Protocol),
			CIDRBlock:  derefString(entry.CidrBlock),
			Action:     string(entry.RuleAction),
		}
		if entry.PortRange != nil {
			rule.FromPort = int(derefInt32(entry.PortRange.From))
			rule.ToPort = int(derefInt32(entry.PortRange.To))
		}
		if derefBool(entry.Egress) {
			data.OutboundRules = append(data.OutboundRules, rule)
		} else {
			data.InboundRules = append(data.InboundRules, rule)
		}
	}
	return data
}

func toTGWAttachmentData(att *ec2types.TransitGatewayVpcAttachment) domain.TGWAttachmentData {
	applianceMode := false
	if att.Options != nil {
		applianceMode = att.Options.ApplianceModeSupport == ec2types.ApplianceModeSupportValueEnable
	}
	return domain.TGWAttachmentData{
		ID:               derefString(att.TransitGatewayAttachmentId),
		TransitGatewayID: derefString(att.TransitGatewayId),
		VPCID:            derefString(att.VpcId),
		OwnerID:          derefString(att.VpcOwnerId),
		State:            string(att.State),
		SubnetIDs:        att.SubnetIds,
		ApplianceMode:    applianceMode,
	}
}

func toVPCPeeringData(pcx *ec2types.VpcPeeringConnection) domain.VPCPeeringData {
	data := domain.VPCPeeringData{
		ID:   derefString(pcx.VpcPeeringConnectionId),
		Tags: tagMap(pcx.Tags),
	}
	if pcx.RequesterVpcInfo != nil {
		data.RequesterVPC = derefString(pcx.RequesterVpcInfo.VpcId)
		data.RequesterOwner = derefString(pcx.RequesterVpcInfo.OwnerId)
		data.RequesterCIDR = derefString(pcx.RequesterVpcInfo.CidrBlock)
	}
	if pcx.AccepterVpcInfo != nil {
		data.AccepterVPC = derefString(pcx.AccepterVpcInfo.VpcId)
		data.AccepterOwner = derefString(pcx.AccepterVpcInfo.OwnerId)
		data.AccepterCIDR = derefString(pcx.AccepterVpcInfo.CidrBlock)
	}
	if pcx.Status != nil {
		data.Status = string(pcx.Status.Code)
	}
	return data
}

func toVPNConnectionData(vpn *ec2types.VpnConnection) domain.VPNConnectionData {
	data := domain.VPNConnectionData{
		ID:    derefString(vpn.VpnConnectionId),
		VGWID: derefString(vpn.VpnGatewayId),
		TGWID: derefString(vpn.TransitGatewayId),
		State: string(vpn.State),
	}
	for _, t := range vpn.VgwTelemetry {
		data.TunnelsTotal++
		if t.Status == ec2types.TelemetryStatusUp {
			data.TunnelsUp++
		}
	}
	return data
}

func toVPCEndpointData(ep *ec2types.VpcEndpoint) domain.VPCEndpointData {
	return domain.VPCEndpointData{
		ID:          derefString(ep.VpcEndpointId),
		VPCID:       derefString(ep.VpcId),
		ServiceName: derefString(ep.ServiceName),
		Type:        string(ep.VpcEndpointType),
		State:       string(ep.State),
	}
}

func toENIData(eni *ec2types.NetworkInterface) domain.ENIData {
	return domain.ENIData{
		ID:          derefString(eni.NetworkInterfaceId),
		VPCID:       derefString(eni.VpcId),
		SubnetID:    derefString(eni.SubnetId),
		OwnerID:     derefString(eni.OwnerId),
		Description: derefString(eni.Description),
		Status:      string(eni.Status),
		PrivateIP:   derefString(eni.PrivateIpAddress),
	}
}

func toInsightsPathData(p *ec2types.NetworkInsightsPath) domain.NetworkInsightsPathData {
	return domain.NetworkInsightsPathData{
		ID:              derefString(p.NetworkInsightsPathId),
		Name:            tagValue(p.Tags, "Name"),
		SourceARN:       derefString(p.Source),
		DestinationARN:  derefString(p.Destination),
		Protocol:        string(p.Protocol),
		DestinationPort: int(derefInt32(p.DestinationPort)),
	}
}

func toInsightsAnalysisData(a *ec2types.NetworkInsightsAnalysis) domain.NetworkInsightsAnalysisData {
	data := domain.NetworkInsightsAnalysisData{
		ID:               derefString(a.NetworkInsightsAnalysisId),
		PathID:           derefString(a.NetworkInsightsPathId),
		Status:           string(a.Status),
		StatusMessage:    derefString(a.StatusMessage),
		NetworkPathFound: derefBool(a.NetworkPathFound),
	}
	for _, e := range a.Explanations {
		if e.ExplanationCode != nil {
			data.Explanations = append(data.Explanations, *e.ExplanationCode)
		}
	}
	return data
}

func tagValue(tags []ec2types.Tag, key string) string {
	for _, tag := range tags {
		if derefString(tag.Key) == key {
			return derefString(tag.Value)
		}
	}
	return ""
}

func tagMap(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[derefString(tag.Key)] = derefString(tag.Value)
	}
	return m
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt32(i *int32) int32 {
	if i == nil {
		return 0
	}
	return *i
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
