package domain

import (
	"context"
	"time"
)

type AWSCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

// SessionProvider hands out per-account API clients, caching credentials
// underneath. Invalidate drops a cached client after its credentials expire
// mid-run.
type SessionProvider interface {
	GetClient(ctx context.Context, accountID string) (CloudClient, error)
	GetHubClient(ctx context.Context) (CloudClient, error)
	Invalidate(accountID string)
}

// CreatePathInput describes a Network Insights Path to create.
type CreatePathInput struct {
	Name            string
	SourceARN       string
	DestinationARN  string
	Protocol        string
	DestinationPort int
	Tags            map[string]string
}

// CloudClient is the provider surface the discovery and testing layers
// depend on. One instance is scoped to a single account and region.
type CloudClient interface {
	AccountID() string
	Region() string

	ListVPCs(ctx context.Context, onlyNonDefault bool) ([]VPCData, error)
	GetVPC(ctx context.Context, vpcID string) (*VPCData, error)
	ListSubnets(ctx context.Context, vpcID string) ([]SubnetData, error)
	ListRouteTables(ctx context.Context, vpcID string) ([]RouteTableData, error)
	ListSecurityGroups(ctx context.Context, vpcID string) ([]SecurityGroupData, error)
	ListNetworkACLs(ctx context.Context, vpcID string) ([]NACLData, error)

	GetTransitGateway(ctx context.Context, tgwID string) (*TransitGatewayData, error)
	ListTGWVPCAttachments(ctx context.Context, tgwID string) ([]TGWAttachmentData, error)
	GetTGWAttachmentForVPC(ctx context.Context, vpcID, tgwID string) (*TGWAttachmentData, error)
	ListTGWAttachmentsForVPC(ctx context.Context, vpcID string) ([]TGWAttachmentData, error)
	ListTGWRouteTables(ctx context.Context, tgwID string) ([]TGWRouteTableData, error)

	ListVPCPeerings(ctx context.Context, statuses ...string) ([]VPCPeeringData, error)
	GetVPCPeering(ctx context.Context, peeringID string) (*VPCPeeringData, error)

	ListVPNConnections(ctx context.Context) ([]VPNConnectionData, error)
	GetVPNConnection(ctx context.Context, vpnID string) (*VPNConnectionData, error)
	GetVirtualPrivateGateway(ctx context.Context, vgwID string) (*VirtualPrivateGatewayData, error)

	ListVPCEndpoints(ctx context.Context) ([]VPCEndpointData, error)
	GetVPCEndpoint(ctx context.Context, endpointID string) (*VPCEndpointData, error)
	GetVPCEndpointENIs(ctx context.Context, endpointID string) ([]string, error)
	ListEndpointServices(ctx context.Context) ([]EndpointServiceData, error)

	ListNetworkInterfaces(ctx context.Context, vpcID string) ([]ENIData, error)
	GetNetworkInterface(ctx context.Context, eniID string) (*ENIData, error)

	PathExists(ctx context.Context, pathID string) (bool, error)
	FindNetworkInsightsPaths(ctx context.Context, sourceARN, destARN string) ([]NetworkInsightsPathData, error)
	CreateNetworkInsightsPath(ctx context.Context, input CreatePathInput) (*NetworkInsightsPathData, error)
	StartNetworkInsightsAnalysis(ctx context.Context, pathID string) (*NetworkInsightsAnalysisData, error)
	GetNetworkInsightsAnalysis(ctx context.Context, analysisID string) (*NetworkInsightsAnalysisData, error)

	QueryFlowLogs(ctx context.Context, logGroup string, lookback time.Duration) ([]FlowRecord, error)

	ListDXGateways(ctx context.Context) ([]DXGatewayData, error)
	ListDXGatewayAssociations(ctx context.Context, dxgwID string) ([]DXGatewayAssociationData, error)
	ListDXVirtualInterfaces(ctx context.Context) ([]DXVirtualInterfaceData, error)
}
