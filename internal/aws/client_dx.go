package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/directconnect"

	"github.com/arjale/netpath/internal/domain"
)

func (c *Client) ListDXGateways(ctx context.Context) ([]domain.DXGatewayData, error) {
	key := c.cacheKey("dx-gateways")
	if v, ok := c.cache.get(key); ok {
		return v.([]domain.DXGatewayData), nil
	}

	var data []domain.DXGatewayData
	input := &directconnect.DescribeDirectConnectGatewaysInput{}
	for {
		out, err := c.dxClient.DescribeDirectConnectGateways(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("describe direct connect gateways: %w", err)
		}
		for _, gw := range out.DirectConnectGateways {
			data = append(data, domain.DXGatewayData{
				ID:           derefString(gw.DirectConnectGatewayId),
				Name:         derefString(gw.DirectConnectGatewayName),
				OwnerAccount: derefString(gw.OwnerAccount),
				State:        string(gw.DirectConnectGatewayState),
			})
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	c.cache.set(key, data)
	return data, nil
}

func (c *Client) ListDXGatewayAssociations(ctx context.Context, dxgwID string) ([]domain.DXGatewayAssociationData, error) {
	var data []domain.DXGatewayAssociationData
	input := &directconnect.DescribeDirectConnectGatewayAssociationsInput{
		DirectConnectGatewayId: aws.String(dxgwID),
	}
	for {
		out, err := c.dxClient.DescribeDirectConnectGatewayAssociations(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("describe direct connect gateway associations for %s: %w", dxgwID, err)
		}
		for _, assoc := range out.DirectConnectGatewayAssociations {
			data = append(data, domain.DXGatewayAssociationData{
				DXGatewayID:      derefString(assoc.DirectConnectGatewayId),
				VirtualGatewayID: derefString(assoc.VirtualGatewayId),
				State:            string(assoc.AssociationState),
			})
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return data, nil
}

func (c *Client) ListDXVirtualInterfaces(ctx context.Context) ([]domain.DXVirtualInterfaceData, error) {
	out, err := c.dxClient.DescribeVirtualInterfaces(ctx, &directconnect.DescribeVirtualInterfacesInput{})
	if err != nil {
		return nil, fmt.Errorf("describe virtual interfaces: %w", err)
	}

	data := make([]domain.DXVirtualInterfaceData, 0, len(out.VirtualInterfaces))
	for _, vif := range out.VirtualInterfaces {
		data = append(data, domain.DXVirtualInterfaceData{
			ID:           derefString(vif.VirtualInterfaceId),
			Type:         derefString(vif.VirtualInterfaceType),
			State:        string(vif.VirtualInterfaceState),
			DXGatewayID:  derefString(vif.DirectConnectGatewayId),
			ConnectionID: derefString(vif.ConnectionId),
		})
	}
	return data, nil
}
