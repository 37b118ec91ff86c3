package domain

type VPCData struct {
	ID             string
	Name           string
	OwnerID        string
	CIDRBlock      string
	SecondaryCIDRs []string
	DNSSupport     bool
	DNSHostnames   bool
	IsDefault      bool
}

type SubnetData struct {
	ID               string
	VPCID            string
	CIDRBlock        string
	AvailabilityZone string
}

type Route struct {
	DestinationCIDR         string
	DestinationPrefixListID string
	TargetType              string
	TargetID                string
	State                   string
}

type RouteTableData struct {
	ID                string
	VPCID             string
	Main              bool
	AssociatedSubnets []string
	Routes            []Route
}

type SecurityGroupRule struct {
	Protocol                 string
	FromPort                 int
	ToPort                   int
	CIDRBlocks               []string
	ReferencedSecurityGroups []string
}

type SecurityGroupData struct {
	ID            string
	Name          string
	VPCID         string
	InboundRules  []SecurityGroupRule
	OutboundRules []SecurityGroupRule
}

type NACLRule struct {
	RuleNumber int
	Protocol   string
	FromPort   int
	ToPort     int
	CIDRBlock  string
	Action     string
}

type NACLData struct {
	ID                string
	VPCID             string
	IsDefault         bool
	AssociatedSubnets []string
	InboundRules      []NACLRule
	OutboundRules     []NACLRule
}

type TransitGatewayData struct {
	ID      string
	Name    string
	OwnerID string
	State   string
}

type TGWAttachmentData struct {
	ID               string
	TransitGatewayID string
	VPCID            string
	OwnerID          string
	State            string
	SubnetIDs        []string
	ApplianceMode    bool
}

type TGWRouteAttachment struct {
	AttachmentID string
	ResourceID   string
	ResourceType string
}

type TGWRoute struct {
	DestinationCIDR string
	State           string
	Type            string
	Attachments     []TGWRouteAttachment
}

type TGWAssociation struct {
	AttachmentID string
	ResourceID   string
	ResourceType string
	State        string
}

type TGWRouteTableData struct {
	ID               string
	TransitGatewayID string
	Associations     []TGWAssociation
	Routes           []TGWRoute
}

type VPCPeeringData struct {
	ID             string
	RequesterVPC   string
	RequesterOwner string
	RequesterCIDR  string
	AccepterVPC    string
	AccepterOwner  string
	AccepterCIDR   string
	Status         string
	Tags           map[string]string
}

type VirtualPrivateGatewayData struct {
	ID    string
	VPCID string
	State string
}

type VPNConnectionData struct {
	ID           string
	VGWID        string
	TGWID        string
	VPCID        string
	State        string
	TunnelsUp    int
	TunnelsTotal int
}

type VPCEndpointData struct {
	ID          string
	VPCID       string
	ServiceName string
	Type        string
	State       string
}

type EndpointServiceData struct {
	ServiceID   string
	ServiceName string
	State       string
}

type ENIData struct {
	ID          string
	VPCID       string
	SubnetID    string
	OwnerID     string
	Description string
	Status      string
	PrivateIP   string
}

// FlowRecord is one aggregated row from a flow-log traffic query.
type FlowRecord struct {
	SrcAddr  string
	DstAddr  string
	DstPort  int
	Protocol string
	Packets  int64
}

type NetworkInsightsPathData struct {
	ID              string
	Name            string
	SourceARN       string
	DestinationARN  string
	Protocol        string
	DestinationPort int
}

type NetworkInsightsAnalysisData struct {
	ID               string
	PathID           string
	Status           string
	StatusMessage    string
	NetworkPathFound bool
	Explanations     []string
}

type DXGatewayData struct {
	ID           string
	Name         string
	OwnerAccount string
	State        string
}

type DXGatewayAssociationData struct {
	DXGatewayID      string
	VirtualGatewayID string
	State            string
}

type DXVirtualInterfaceData struct {
	ID           string
	Type         string
	State        string
	DXGatewayID  string
	ConnectionID string
}
