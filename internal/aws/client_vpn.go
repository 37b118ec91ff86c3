package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/arjale/netpath/internal/domain"
)

// ListVPNConnections returns the available site-to-site VPN connections.
// The attached VPC is resolved through the virtual private gateway when
// one is present; resolution failures leave VPCID empty.
func (c *Client) ListVPNConnections(ctx context.Context) ([]domain.VPNConnectionData, error) {
	out, err := c.ec2Client.DescribeVpnConnections(ctx, &ec2.DescribeVpnConnectionsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("state"), Values: []string{"available"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("describe vpn connections: %w", err)
	}

	data := make([]domain.VPNConnectionData, 0, len(out.VpnConnections))
	for i := range out.VpnConnections {
		vpn := toVPNConnectionData(&out.VpnConnections[i])
		if vpn.VGWID != "" {
			if vgw, err := c.GetVirtualPrivateGateway(ctx, vpn.VGWID); err == nil {
				vpn.VPCID = vgw.VPCID
			}
		}
		data = append(data, vpn)
	}
	return data, nil
}

func (c *Client) GetVPNConnection(ctx context.Context, vpnID string) (*domain.VPNConnectionData, error) {
	out, err := c.ec2Client.DescribeVpnConnections(ctx, &ec2.DescribeVpnConnectionsInput{
		VpnConnectionIds: []string{vpnID},
	})
	if err != nil {
		return nil, fmt.Errorf("describe vpn connection %s: %w", vpnID, err)
	}
	if len(out.VpnConnections) == 0 {
		return nil, fmt.Errorf("vpn connection %s not found", vpnID)
	}
	data := toVPNConnectionData(&out.VpnConnections[0])
	return &data, nil
}

func (c *Client) GetVirtualPrivateGateway(ctx context.Context, vgwID string) (*domain.VirtualPrivateGatewayData, error) {
	key := c.cacheKey("vgw", vgwID)
	if v, ok := c.cache.get(key); ok {
		return v.(*domain.VirtualPrivateGatewayData), nil
	}

	out, err := c.ec2Client.DescribeVpnGateways(ctx, &ec2.DescribeVpnGatewaysInput{
		VpnGatewayIds: []string{vgwID},
	})
	if err != nil {
		return nil, fmt.Errorf("describe vpn gateway %s: %w", vgwID, err)
	}
	if len(out.VpnGateways) == 0 {
		return nil, fmt.Errorf("vpn gateway %s not found", vgwID)
	}

	vgw := &out.VpnGateways[0]
	data := &domain.VirtualPrivateGatewayData{
		ID:    derefString(vgw.VpnGatewayId),
		State: string(vgw.State),
	}
	for _, att := range vgw.VpcAttachments {
		if att.State == ec2types.AttachmentStatusAttached {
			data.VPCID = derefString(att.VpcId)
			break
		}
	}
	c.cache.set(key, data)
	return data, nil
}
