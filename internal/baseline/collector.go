package baseline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
)

// Collector captures the network baseline of a single account.
type Collector struct {
	client domain.CloudClient
}

func NewCollector(client domain.CloudClient) *Collector {
	return &Collector{client: client}
}

// Collect builds the account baseline. The VPC comes from the account
// config when set, otherwise the first non-default VPC is used. Transit
// gateway details are best effort and left nil when unavailable.
func (c *Collector) Collect(ctx context.Context, account domain.AccountConfig) (*domain.AccountBaseline, error) {
	vpc, err := c.resolveVPC(ctx, account.VPCID)
	if err != nil {
		return nil, err
	}

	b := &domain.AccountBaseline{
		AccountID:    account.AccountID,
		AccountName:  account.AccountName,
		Region:       c.client.Region(),
		DiscoveredAt: time.Now().UTC().Format(time.RFC3339),
	}

	subnets, err := c.client.ListSubnets(ctx, vpc.ID)
	if err != nil {
		return nil, fmt.Errorf("collect subnets for %s: %w", vpc.ID, err)
	}
	b.VPC = buildVPCBaseline(vpc, subnets)

	routeTables, err := c.client.ListRouteTables(ctx, vpc.ID)
	if err != nil {
		return nil, fmt.Errorf("collect route tables for %s: %w", vpc.ID, err)
	}
	b.RouteTables = buildRouteTableBaselines(routeTables)

	groups, err := c.client.ListSecurityGroups(ctx, vpc.ID)
	if err != nil {
		return nil, fmt.Errorf("collect security groups for %s: %w", vpc.ID, err)
	}
	b.SecurityGroups = buildSecurityGroupBaselines(groups)
	b.AllowedPorts = buildAllowedPorts(groups)

	nacls, err := c.client.ListNetworkACLs(ctx, vpc.ID)
	if err != nil {
		return nil, fmt.Errorf("collect network acls for %s: %w", vpc.ID, err)
	}
	b.NetworkACLs = buildNACLBaselines(nacls)

	b.TransitGateway = c.collectTGWBaseline(ctx, vpc.ID, account.TGWID)

	return b, nil
}

func (c *Collector) resolveVPC(ctx context.Context, vpcID string) (*domain.VPCData, error) {
	if vpcID != "" {
		return c.client.GetVPC(ctx, vpcID)
	}

	vpcs, err := c.client.ListVPCs(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list vpcs: %w", err)
	}
	if len(vpcs) == 0 {
		return nil, fmt.Errorf("account %s has no non-default vpc", c.client.AccountID())
	}
	return c.client.GetVPC(ctx, vpcs[0].ID)
}

// collectTGWBaseline never fails the account; attachment or route-table
// lookups that error leave the baseline without a transit gateway entry.
// Without a configured transit gateway id the VPC's first available
// attachment decides which gateway the baseline records.
func (c *Collector) collectTGWBaseline(ctx context.Context, vpcID, tgwID string) *domain.TransitGatewayBaseline {
	var att *domain.TGWAttachmentData
	var err error
	if tgwID != "" {
		att, err = c.client.GetTGWAttachmentForVPC(ctx, vpcID, tgwID)
	} else {
		var attachments []domain.TGWAttachmentData
		attachments, err = c.client.ListTGWAttachmentsForVPC(ctx, vpcID)
		if err == nil && len(attachments) > 0 {
			att = &attachments[0]
			tgwID = att.TransitGatewayID
		}
	}
	if err != nil || att == nil {
		logging.Debug("no transit gateway attachment found",
			"vpc_id", vpcID, "tgw_id", tgwID)
		return nil
	}

	tgwb := &domain.TransitGatewayBaseline{
		TGWID:           tgwID,
		AttachmentID:    att.ID,
		AttachmentState: att.State,
		SubnetIDs:       att.SubnetIDs,
		ApplianceMode:   att.ApplianceMode,
	}

	if tables, err := c.client.ListTGWRouteTables(ctx, tgwID); err == nil && len(tables) > 0 {
		tgwb.RouteTableID = tables[0].ID
	}
	return tgwb
}

func buildVPCBaseline(vpc *domain.VPCData, subnets []domain.SubnetData) domain.VPCBaseline {
	cidrs := make([]string, 0, len(subnets))
	azSet := make(map[string]struct{})
	for _, s := range subnets {
		cidrs = append(cidrs, s.CIDRBlock)
		azSet[s.AvailabilityZone] = struct{}{}
	}
	azs := make([]string, 0, len(azSet))
	for az := range azSet {
		azs = append(azs, az)
	}
	sort.Strings(azs)

	return domain.VPCBaseline{
		VPCID:             vpc.ID,
		CIDRBlock:         vpc.CIDRBlock,
		DNSSupport:        vpc.DNSSupport,
		DNSHostnames:      vpc.DNSHostnames,
		SubnetCount:       len(subnets),
		SubnetCIDRs:       cidrs,
		AvailabilityZones: azs,
		SecondaryCIDRs:    vpc.SecondaryCIDRs,
	}
}

func buildRouteTableBaselines(tables []domain.RouteTableData) []domain.RouteTableBaseline {
	out := make([]domain.RouteTableBaseline, 0, len(tables))
	for _, rt := range tables {
		rtb := domain.RouteTableBaseline{
			RouteTableID:      rt.ID,
			Main:              rt.Main,
			AssociatedSubnets: rt.AssociatedSubnets,
		}
		for _, r := range rt.Routes {
			dest := r.DestinationCIDR
			if dest == "" {
				dest = r.DestinationPrefixListID
			}
			rtb.Routes = append(rtb.Routes, domain.RouteBaseline{
				Destination: dest,
				Target:      routeTarget(r),
				State:       r.State,
			})
		}
		out = append(out, rtb)
	}
	return out
}

func routeTarget(r domain.Route) string {
	if r.TargetType == "local" || r.TargetID == "" {
		return "local"
	}
	return r.TargetID
}

func buildSecurityGroupBaselines(groups []domain.SecurityGroupData) []domain.SecurityGroupBaseline {
	var out []domain.SecurityGroupBaseline
	for _, sg := range groups {
		if sg.Name == "default" {
			continue
		}
		out = append(out, domain.SecurityGroupBaseline{
			GroupID:      sg.ID,
			GroupName:    sg.Name,
			IngressRules: toRuleBaselines(sg.InboundRules),
			EgressRules:  toRuleBaselines(sg.OutboundRules),
		})
	}
	return out
}

func toRuleBaselines(rules []domain.SecurityGroupRule) []domain.SecurityGroupRuleBaseline {
	out := make([]domain.SecurityGroupRuleBaseline, 0, len(rules))
	for _, r := range rules {
		out = append(out, domain.SecurityGroupRuleBaseline{
			Protocol:   r.Protocol,
			FromPort:   r.FromPort,
			ToPort:     r.ToPort,
			CIDRBlocks: r.CIDRBlocks,
			PeerGroups: r.ReferencedSecurityGroups,
		})
	}
	return out
}

func buildNACLBaselines(nacls []domain.NACLData) []domain.NACLBaseline {
	var out []domain.NACLBaseline
	for _, nacl := range nacls {
		// Untouched default ACLs carry only the allow-all and deny-all
		// entries and add nothing to the baseline.
		if nacl.IsDefault && len(nacl.InboundRules) <= 2 {
			continue
		}
		out = append(out, domain.NACLBaseline{
			NACLID:            nacl.ID,
			IngressRules:      toNACLRuleBaselines(nacl.InboundRules),
			EgressRules:       toNACLRuleBaselines(nacl.OutboundRules),
			AssociatedSubnets: nacl.AssociatedSubnets,
		})
	}
	return out
}

func toNACLRuleBaselines(rules []domain.NACLRule) []domain.NACLRuleBaseline {
	out := make([]domain.NACLRuleBaseline, 0, len(rules))
	for _, r := range rules {
		out = append(out, domain.NACLRuleBaseline{
			RuleNumber: r.RuleNumber,
			Protocol:   r.Protocol,
			Action:     r.Action,
			CIDRBlock:  r.CIDRBlock,
			FromPort:   r.FromPort,
			ToPort:     r.ToPort,
		})
	}
	return out
}

// buildAllowedPorts flattens ingress rules across every non-default group
// into the account's allowed-port list.
func buildAllowedPorts(groups []domain.SecurityGroupData) []domain.AllowedPortRule {
	var out []domain.AllowedPortRule
	for _, sg := range groups {
		if sg.Name == "default" {
			continue
		}
		for _, r := range sg.InboundRules {
			out = append(out, domain.AllowedPortRule{
				Protocol:    r.Protocol,
				FromPort:    r.FromPort,
				ToPort:      r.ToPort,
				CIDRBlocks:  r.CIDRBlocks,
				Description: fmt.Sprintf("SG:%s", sg.Name),
			})
		}
	}
	return out
}
