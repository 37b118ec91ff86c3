package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/arjale/netpath/internal/domain"
)

func (c *Client) ListVPCs(ctx context.Context, onlyNonDefault bool) ([]domain.VPCData, error) {
	key := c.cacheKey("vpcs", fmt.Sprintf("nondefault=%t", onlyNonDefault))
	if v, ok := c.cache.get(key); ok {
		return v.([]domain.VPCData), nil
	}

	input := &ec2.DescribeVpcsInput{}
	if onlyNonDefault {
		input.Filters = []ec2types.Filter{
			{Name: aws.String("is-default"), Values: []string{"false"}},
		}
	}
	paginator := ec2.NewDescribeVpcsPaginator(c.ec2Client, input)
	vpcs, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeVpcsOutput, error) { return paginator.NextPage(ctx) },
		func(out *ec2.DescribeVpcsOutput) []ec2types.Vpc { return out.Vpcs },
	)
	if err != nil {
		return nil, fmt.Errorf("describe vpcs: %w", err)
	}

	data := make([]domain.VPCData, 0, len(vpcs))
	for i := range vpcs {
		data = append(data, *toVPCData(&vpcs[i]))
	}
	c.cache.set(key, data)
	return data, nil
}

// GetVPC also resolves the DNS attributes, which DescribeVpcs does not
// return.
func (c *Client) GetVPC(ctx context.Context, vpcID string) (*domain.VPCData, error) {
	key := c.cacheKey("vpc", vpcID)
	if v, ok := c.cache.get(key); ok {
		return v.(*domain.VPCData), nil
	}

	out, err := c.ec2Client.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{VpcIds: []string{vpcID}})
	if err != nil {
		return nil, fmt.Errorf("describe vpc %s: %w", vpcID, err)
	}
	if len(out.Vpcs) == 0 {
		return nil, fmt.Errorf("vpc %s not found", vpcID)
	}
	data := toVPCData(&out.Vpcs[0])

	support, err := c.ec2Client.DescribeVpcAttribute(ctx, &ec2.DescribeVpcAttributeInput{
		VpcId:     aws.String(vpcID),
		Attribute: ec2types.VpcAttributeNameEnableDnsSupport,
	})
	if err == nil && support.EnableDnsSupport != nil {
		data.DNSSupport = derefBool(support.EnableDnsSupport.Value)
	}
	hostnames, err := c.ec2Client.DescribeVpcAttribute(ctx, &ec2.DescribeVpcAttributeInput{
		VpcId:     aws.String(vpcID),
		Attribute: ec2types.VpcAttributeNameEnableDnsHostnames,
	})
	if err == nil && hostnames.EnableDnsHostnames != nil {
		data.DNSHostnames = derefBool(hostnames.EnableDnsHostnames.Value)
	}

	c.cache.set(key, data)
	return data, nil
}

func (c *Client) ListSubnets(ctx context.Context, vpcID string) ([]domain.SubnetData, error) {
	key := c.cacheKey("subnets", vpcID)
	if v, ok := c.cache.get(key); ok {
		return v.([]domain.SubnetData), nil
	}

	paginator := ec2.NewDescribeSubnetsPaginator(c.ec2Client, &ec2.DescribeSubnetsInput{
		Filters: vpcFilter(vpcID),
	})
	subnets, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeSubnetsOutput, error) { return paginator.NextPage(ctx) },
		func(out *ec2.DescribeSubnetsOutput) []ec2types.Subnet { return out.Subnets },
	)
	if err != nil {
		return nil, fmt.Errorf("describe subnets for %s: %w", vpcID, err)
	}

	data := make([]domain.SubnetData, 0, len(subnets))
	for i := range subnets {
		data = append(data, toSubnetData(&subnets[i]))
	}
	c.cache.set(key, data)
	return data, nil
}

func (c *Client) ListRouteTables(ctx context.Context, vpcID string) ([]domain.RouteTableData, error) {
	key := c.cacheKey("route-tables", vpcID)
	if v, ok := c.cache.get(key); ok {
		return v.([]domain.RouteTableData), nil
	}

	paginator := ec2.NewDescribeRouteTablesPaginator(c.ec2Client, &ec2.DescribeRouteTablesInput{
		Filters: vpcFilter(vpcID),
	})
	tables, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeRouteTablesOutput, error) { return paginator.NextPage(ctx) },
		func(out *ec2.DescribeRouteTablesOutput) []ec2types.RouteTable { return out.RouteTables },
	)
	if err != nil {
		return nil, fmt.Errorf("describe route tables for %s: %w", vpcID, err)
	}

	data := make([]domain.RouteTableData, 0, len(tables))
	for i := range tables {
		data = append(data, toRouteTableData(&tables[i]))
	}
	c.cache.set(key, data)
	return data, nil
}

func (c *Client) ListSecurityGroups(ctx context.Context, vpcID string) ([]domain.SecurityGroupData, error) {
	key := c.cacheKey("security-groups", vpcID)
	if v, ok := c.cache.get(key); ok {
		return v.([]domain.SecurityGroupData), nil
	}

	paginator := ec2.NewDescribeSecurityGroupsPaginator(c.ec2Client, &ec2.DescribeSecurityGroupsInput{
		Filters: vpcFilter(vpcID),
	})
	groups, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeSecurityGroupsOutput, error) { return paginator.NextPage(ctx) },
		func(out *ec2.DescribeSecurityGroupsOutput) []ec2types.SecurityGroup { return out.SecurityGroups },
	)
	if err != nil {
		return nil, fmt.Errorf("describe security groups for %s: %w", vpcID, err)
	}

	data := make([]domain.SecurityGroupData, 0, len(groups))
	for i := range groups {
		data = append(data, toSecurityGroupData(&groups[i]))
	}
	c.cache.set(key, data)
	return data, nil
}

func (c *Client) ListNetworkACLs(ctx context.Context, vpcID string) ([]domain.NACLData, error) {
	key := c.cacheKey("nacls", vpcID)
	if v, ok := c.cache.get(key); ok {
		return v.([]domain.NACLData), nil
	}

	paginator := ec2.NewDescribeNetworkAclsPaginator(c.ec2Client, &ec2.DescribeNetworkAclsInput{
		Filters: vpcFilter(vpcID),
	})
	nacls, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeNetworkAclsOutput, error) { return paginator.NextPage(ctx) },
		func(out *ec2.DescribeNetworkAclsOutput) []ec2types.NetworkAcl { return out.NetworkAcls },
	)
	if err != nil {
		return nil, fmt.Errorf("describe network acls for %s: %w", vpcID, err)
	}

	data := make([]domain.NACLData, 0, len(nacls))
	for i := range nacls {
		data = append(data, toNACLData(&nacls[i]))
	}
	c.cache.set(key, data)
	return data, nil
}

func (c *Client) ListVPCPeerings(ctx context.Context, statuses ...string) ([]domain.VPCPeeringData, error) {
	input := &ec2.DescribeVpcPeeringConnectionsInput{}
	if len(statuses) > 0 {
		input.Filters = []ec2types.Filter{
			{Name: aws.String("status-code"), Values: statuses},
		}
	}
	paginator := ec2.NewDescribeVpcPeeringConnectionsPaginator(c.ec2Client, input)
	peerings, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeVpcPeeringConnectionsOutput, error) {
			return paginator.NextPage(ctx)
		},
		func(out *ec2.DescribeVpcPeeringConnectionsOutput) []ec2types.VpcPeeringConnection {
			return out.VpcPeeringConnections
		},
	)
	if err != nil {
		return nil, fmt.Errorf("describe vpc peering connections: %w", err)
	}

	data := make([]domain.VPCPeeringData, 0, len(peerings))
	for i := range peerings {
		data = append(data, toVPCPeeringData(&peerings[i]))
	}
	return data, nil
}

func (c *Client) GetVPCPeering(ctx context.Context, peeringID string) (*domain.VPCPeeringData, error) {
	out, err := c.ec2Client.DescribeVpcPeeringConnections(ctx, &ec2.DescribeVpcPeeringConnectionsInput{
		VpcPeeringConnectionIds: []string{peeringID},
	})
	if err != nil {
		return nil, fmt.Errorf("describe vpc peering %s: %w", peeringID, err)
	}
	if len(out.VpcPeeringConnections) == 0 {
		return nil, fmt.Errorf("vpc peering %s not found", peeringID)
	}
	data := toVPCPeeringData(&out.VpcPeeringConnections[0])
	return &data, nil
}

func (c *Client) ListVPCEndpoints(ctx context.Context) ([]domain.VPCEndpointData, error) {
	paginator := ec2.NewDescribeVpcEndpointsPaginator(c.ec2Client, &ec2.DescribeVpcEndpointsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-endpoint-type"), Values: []string{"Interface"}},
		},
	})
	endpoints, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeVpcEndpointsOutput, error) { return paginator.NextPage(ctx) },
		func(out *ec2.DescribeVpcEndpointsOutput) []ec2types.VpcEndpoint { return out.VpcEndpoints },
	)
	if err != nil {
		return nil, fmt.Errorf("describe vpc endpoints: %w", err)
	}

	data := make([]domain.VPCEndpointData, 0, len(endpoints))
	for i := range endpoints {
		data = append(data, toVPCEndpointData(&endpoints[i]))
	}
	return data, nil
}

func (c *Client) GetVPCEndpoint(ctx context.Context, endpointID string) (*domain.VPCEndpointData, error) {
	out, err := c.ec2Client.DescribeVpcEndpoints(ctx, &ec2.DescribeVpcEndpointsInput{
		VpcEndpointIds: []string{endpointID},
	})
	if err != nil {
		return nil, fmt.Errorf("describe vpc endpoint %s: %w", endpointID, err)
	}
	if len(out.VpcEndpoints) == 0 {
		return nil, fmt.Errorf("vpc endpoint %s not found", endpointID)
	}
	data := toVPCEndpointData(&out.VpcEndpoints[0])
	return &data, nil
}

func (c *Client) GetVPCEndpointENIs(ctx context.Context, endpointID string) ([]string, error) {
	out, err := c.ec2Client.DescribeVpcEndpoints(ctx, &ec2.DescribeVpcEndpointsInput{
		VpcEndpointIds: []string{endpointID},
	})
	if err != nil {
		return nil, fmt.Errorf("describe vpc endpoint %s: %w", endpointID, err)
	}
	if len(out.VpcEndpoints) == 0 {
		return nil, fmt.Errorf("vpc endpoint %s not found", endpointID)
	}
	return out.VpcEndpoints[0].NetworkInterfaceIds, nil
}

func (c *Client) ListEndpointServices(ctx context.Context) ([]domain.EndpointServiceData, error) {
	paginator := ec2.NewDescribeVpcEndpointServiceConfigurationsPaginator(c.ec2Client,
		&ec2.DescribeVpcEndpointServiceConfigurationsInput{})
	services, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeVpcEndpointServiceConfigurationsOutput, error) {
			return paginator.NextPage(ctx)
		},
		func(out *ec2.DescribeVpcEndpointServiceConfigurationsOutput) []ec2types.ServiceConfiguration {
			return out.ServiceConfigurations
		},
	)
	if err != nil {
		return nil, fmt.Errorf("describe vpc endpoint services: %w", err)
	}

	data := make([]domain.EndpointServiceData, 0, len(services))
	for _, svc := range services {
		data = append(data, domain.EndpointServiceData{
			ServiceID:   derefString(svc.ServiceId),
			ServiceName: derefString(svc.ServiceName),
			State:       string(svc.ServiceState),
		})
	}
	return data, nil
}

// ListNetworkInterfaces returns the in-use ENIs of a VPC.
func (c *Client) ListNetworkInterfaces(ctx context.Context, vpcID string) ([]domain.ENIData, error) {
	key := c.cacheKey("enis", vpcID)
	if v, ok := c.cache.get(key); ok {
		return v.([]domain.ENIData), nil
	}

	paginator := ec2.NewDescribeNetworkInterfacesPaginator(c.ec2Client, &ec2.DescribeNetworkInterfacesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("status"), Values: []string{"in-use"}},
		},
	})
	enis, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeNetworkInterfacesOutput, error) { return paginator.NextPage(ctx) },
		func(out *ec2.DescribeNetworkInterfacesOutput) []ec2types.NetworkInterface { return out.NetworkInterfaces },
	)
	if err != nil {
		return nil, fmt.Errorf("describe network interfaces for %s: %w", vpcID, err)
	}

	data := make([]domain.ENIData, 0, len(enis))
	for i := range enis {
		data = append(data, toENIData(&enis[i]))
	}
	c.cache.set(key, data)
	return data, nil
}

func (c *Client) GetNetworkInterface(ctx context.Context, eniID string) (*domain.ENIData, error) {
	out, err := c.ec2Client.DescribeNetworkInterfaces(ctx, &ec2.DescribeNetworkInterfacesInput{
		NetworkInterfaceIds: []string{eniID},
	})
	if err != nil {
		return nil, fmt.Errorf("describe network interface %s: %w", eniID, err)
	}
	if len(out.NetworkInterfaces) == 0 {
		return nil, fmt.Errorf("network interface %s not found", eniID)
	}
	data := toENIData(&out.NetworkInterfaces[0])
	return &data, nil
}

func vpcFilter(vpcID string) []ec2types.Filter {
	return []ec2types.Filter{
		{Name: aws.String("vpc-id"), Values: []string{vpcID}},
	}
}
