package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"golang.org/x/sync/errgroup"

	"github.com/arjale/netpath/internal/domain"
)

func (c *Client) GetTransitGateway(ctx context.Context, tgwID string) (*domain.TransitGatewayData, error) {
	key := c.cacheKey("tgw", tgwID)
	if v, ok := c.cache.get(key); ok {
		return v.(*domain.TransitGatewayData), nil
	}

	out, err := c.ec2Client.DescribeTransitGateways(ctx, &ec2.DescribeTransitGatewaysInput{
		TransitGatewayIds: []string{tgwID},
	})
	if err != nil {
		return nil, fmt.Errorf("describe transit gateway %s: %w", tgwID, err)
	}
	if len(out.TransitGateways) == 0 {
		return nil, fmt.Errorf("transit gateway %s not found", tgwID)
	}

	tgw := &out.TransitGateways[0]
	name := tagValue(tgw.Tags, "Name")
	if name == "" {
		name = tgwID
	}
	data := &domain.TransitGatewayData{
		ID:      derefString(tgw.TransitGatewayId),
		Name:    name,
		OwnerID: derefString(tgw.OwnerId),
		State:   string(tgw.State),
	}
	c.cache.set(key, data)
	return data, nil
}

// ListTGWVPCAttachments returns the available VPC attachments of a
// transit gateway.
func (c *Client) ListTGWVPCAttachments(ctx context.Context, tgwID string) ([]domain.TGWAttachmentData, error) {
	return c.listAttachments(ctx, []ec2types.Filter{
		{Name: aws.String("transit-gateway-id"), Values: []string{tgwID}},
		{Name: aws.String("state"), Values: []string{"available"}},
	})
}

// ListTGWAttachmentsForVPC returns the available attachments of a VPC,
// regardless of which transit gateway they belong to.
func (c *Client) ListTGWAttachmentsForVPC(ctx context.Context, vpcID string) ([]domain.TGWAttachmentData, error) {
	return c.listAttachments(ctx, []ec2types.Filter{
		{Name: aws.String("vpc-id"), Values: []string{vpcID}},
		{Name: aws.String("state"), Values: []string{"available"}},
	})
}

func (c *Client) GetTGWAttachmentForVPC(ctx context.Context, vpcID, tgwID string) (*domain.TGWAttachmentData, error) {
	attachments, err := c.listAttachments(ctx, []ec2types.Filter{
		{Name: aws.String("vpc-id"), Values: []string{vpcID}},
		{Name: aws.String("transit-gateway-id"), Values: []string{tgwID}},
		{Name: aws.String("state"), Values: []string{"available"}},
	})
	if err != nil {
		return nil, err
	}
	if len(attachments) == 0 {
		return nil, nil
	}
	return &attachments[0], nil
}

func (c *Client) listAttachments(ctx context.Context, filters []ec2types.Filter) ([]domain.TGWAttachmentData, error) {
	paginator := ec2.NewDescribeTransitGatewayVpcAttachmentsPaginator(c.ec2Client,
		&ec2.DescribeTransitGatewayVpcAttachmentsInput{Filters: filters})
	attachments, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeTransitGatewayVpcAttachmentsOutput, error) {
			return paginator.NextPage(ctx)
		},
		func(out *ec2.DescribeTransitGatewayVpcAttachmentsOutput) []ec2types.TransitGatewayVpcAttachment {
			return out.TransitGatewayVpcAttachments
		},
	)
	if err != nil {
		return nil, fmt.Errorf("describe tgw vpc attachments: %w", err)
	}

	data := make([]domain.TGWAttachmentData, 0, len(attachments))
	for i := range attachments {
		data = append(data, toTGWAttachmentData(&attachments[i]))
	}
	return data, nil
}

// ListTGWRouteTables returns the route tables of a transit gateway with
// their VPC associations and active routes resolved. Table contents are
// fetched concurrently.
func (c *Client) ListTGWRouteTables(ctx context.Context, tgwID string) ([]domain.TGWRouteTableData, error) {
	key := c.cacheKey("tgw-route-tables", tgwID)
	if v, ok := c.cache.get(key); ok {
		return v.([]domain.TGWRouteTableData), nil
	}

	paginator := ec2.NewDescribeTransitGatewayRouteTablesPaginator(c.ec2Client,
		&ec2.DescribeTransitGatewayRouteTablesInput{
			Filters: []ec2types.Filter{
				{Name: aws.String("transit-gateway-id"), Values: []string{tgwID}},
			},
		})
	tables, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeTransitGatewayRouteTablesOutput, error) {
			return paginator.NextPage(ctx)
		},
		func(out *ec2.DescribeTransitGatewayRouteTablesOutput) []ec2types.TransitGatewayRouteTable {
			return out.TransitGatewayRouteTables
		},
	)
	if err != nil {
		return nil, fmt.Errorf("describe tgw route tables for %s: %w", tgwID, err)
	}

	results := make([]domain.TGWRouteTableData, len(tables))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(10)

	for i, rt := range tables {
		i, rt := i, rt
		g.Go(func() error {
			rtID := derefString(rt.TransitGatewayRouteTableId)

			var routes []domain.TGWRoute
			var associations []domain.TGWAssociation

			innerG, innerCtx := errgroup.WithContext(gCtx)
			innerG.Go(func() error {
				var err error
				routes, err = c.searchActiveTGWRoutes(innerCtx, rtID)
				return err
			})
			innerG.Go(func() error {
				var err error
				associations, err = c.fetchTGWAssociations(innerCtx, rtID)
				return err
			})
			if err := innerG.Wait(); err != nil {
				return err
			}

			results[i] = domain.TGWRouteTableData{
				ID:               rtID,
				TransitGatewayID: tgwID,
				Associations:     associations,
				Routes:           routes,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.cache.set(key, results)
	return results, nil
}

func (c *Client) fetchTGWAssociations(ctx context.Context, rtID string) ([]domain.TGWAssociation, error) {
	paginator := ec2.NewGetTransitGatewayRouteTableAssociationsPaginator(c.ec2Client,
		&ec2.GetTransitGatewayRouteTableAssociationsInput{
			TransitGatewayRouteTableId: aws.String(rtID),
		})
	raw, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.GetTransitGatewayRouteTableAssociationsOutput, error) {
			return paginator.NextPage(ctx)
		},
		func(out *ec2.GetTransitGatewayRouteTableAssociationsOutput) []ec2types.TransitGatewayRouteTableAssociation {
			return out.Associations
		},
	)
	if err != nil {
		return nil, fmt.Errorf("get tgw route table associations for %s: %w", rtID, err)
	}

	var associations []domain.TGWAssociation
	for _, a := range raw {
		associations = append(associations, domain.TGWAssociation{
			AttachmentID: derefString(a.TransitGatewayAttachmentId),
			ResourceID:   derefString(a.ResourceId),
			ResourceType: string(a.ResourceType),
			State:        string(a.State),
		})
	}
	return associations, nil
}

func (c *Client) searchActiveTGWRoutes(ctx context.Context, rtID string) ([]domain.TGWRoute, error) {
	out, err := c.ec2Client.SearchTransitGatewayRoutes(ctx, &ec2.SearchTransitGatewayRoutesInput{
		TransitGatewayRouteTableId: aws.String(rtID),
		Filters: []ec2types.Filter{
			{Name: aws.String("state"), Values: []string{"active"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search tgw routes for %s: %w", rtID, err)
	}

	var routes []domain.TGWRoute
	for _, r := range out.Routes {
		route := domain.TGWRoute{
			DestinationCIDR: derefString(r.DestinationCidrBlock),
			State:           string(r.State),
			Type:            string(r.Type),
		}
		for _, att := range r.TransitGatewayAttachments {
			route.Attachments = append(route.Attachments, domain.TGWRouteAttachment{
				AttachmentID: derefString(att.TransitGatewayAttachmentId),
				ResourceID:   derefString(att.ResourceId),
				ResourceType: string(att.ResourceType),
			})
		}
		routes = append(routes, route)
	}
	return routes, nil
}
