package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/arjale/netpath/internal/domain"
)

// maxPathNameLength is the EC2 limit on a Name tag value.
const maxPathNameLength = 255

// PathExists reports whether a Network Insights Path still exists. A
// not-found API error is a negative answer, not a failure.
func (c *Client) PathExists(ctx context.Context, pathID string) (bool, error) {
	_, err := c.ec2Client.DescribeNetworkInsightsPaths(ctx, &ec2.DescribeNetworkInsightsPathsInput{
		NetworkInsightsPathIds: []string{pathID},
	})
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("describe network insights path %s: %w", pathID, err)
	}
	return true, nil
}

// FindNetworkInsightsPaths lists every path between the given source and
// destination resources. Protocol and port matching is left to the caller
// since the API cannot filter on them.
func (c *Client) FindNetworkInsightsPaths(ctx context.Context, sourceARN, destARN string) ([]domain.NetworkInsightsPathData, error) {
	paginator := ec2.NewDescribeNetworkInsightsPathsPaginator(c.ec2Client, &ec2.DescribeNetworkInsightsPathsInput{})

	paths, err := CollectPages(
		ctx,
		paginator.HasMorePages,
		func(ctx context.Context) (*ec2.DescribeNetworkInsightsPathsOutput, error) {
			return paginator.NextPage(ctx)
		},
		func(out *ec2.DescribeNetworkInsightsPathsOutput) []ec2types.NetworkInsightsPath {
			return out.NetworkInsightsPaths
		},
	)
	if err != nil {
		return nil, fmt.Errorf("describe network insights paths: %w", err)
	}

	var data []domain.NetworkInsightsPathData
	for i := range paths {
		p := toInsightsPathData(&paths[i])
		if p.SourceARN == sourceARN && p.DestinationARN == destARN {
			data = append(data, p)
		}
	}
	return data, nil
}

func (c *Client) CreateNetworkInsightsPath(ctx context.Context, input domain.CreatePathInput) (*domain.NetworkInsightsPathData, error) {
	name := input.Name
	if len(name) > maxPathNameLength {
		name = name[:maxPathNameLength]
	}

	tags := []ec2types.Tag{
		{Key: aws.String("Name"), Value: aws.String(name)},
	}
	for k, v := range input.Tags {
		tags = append(tags, ec2types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	req := &ec2.CreateNetworkInsightsPathInput{
		Source:      aws.String(input.SourceARN),
		Destination: aws.String(input.DestinationARN),
		Protocol:    ec2types.Protocol(input.Protocol),
		TagSpecifications: []ec2types.TagSpecification{
			{
				ResourceType: ec2types.ResourceTypeNetworkInsightsPath,
				Tags:         tags,
			},
		},
	}
	// The API rejects a destination port for protocols without one.
	proto := strings.ToLower(input.Protocol)
	if (proto == "tcp" || proto == "udp") && input.DestinationPort > 0 {
		req.DestinationPort = aws.Int32(int32(input.DestinationPort))
	}

	out, err := c.ec2Client.CreateNetworkInsightsPath(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create network insights path: %w", err)
	}
	data := toInsightsPathData(out.NetworkInsightsPath)
	return &data, nil
}

func (c *Client) StartNetworkInsightsAnalysis(ctx context.Context, pathID string) (*domain.NetworkInsightsAnalysisData, error) {
	out, err := c.ec2Client.StartNetworkInsightsAnalysis(ctx, &ec2.StartNetworkInsightsAnalysisInput{
		NetworkInsightsPathId: aws.String(pathID),
	})
	if err != nil {
		return nil, fmt.Errorf("start network insights analysis for %s: %w", pathID, err)
	}
	data := toInsightsAnalysisData(out.NetworkInsightsAnalysis)
	return &data, nil
}

func (c *Client) GetNetworkInsightsAnalysis(ctx context.Context, analysisID string) (*domain.NetworkInsightsAnalysisData, error) {
	out, err := c.ec2Client.DescribeNetworkInsightsAnalyses(ctx, &ec2.DescribeNetworkInsightsAnalysesInput{
		NetworkInsightsAnalysisIds: []string{analysisID},
	})
	if err != nil {
		return nil, fmt.Errorf("describe network insights analysis %s: %w", analysisID, err)
	}
	if len(out.NetworkInsightsAnalyses) == 0 {
		return nil, fmt.Errorf("network insights analysis %s not found", analysisID)
	}
	data := toInsightsAnalysisData(&out.NetworkInsightsAnalyses[0])
	return &data, nil
}
