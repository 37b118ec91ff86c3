package domain

type Phase string

const (
	PhaseDiscover       Phase = "discover"
	PhaseExportTestPlan Phase = "export-test-plan"
	PhaseRunTestPlan    Phase = "run-test-plan"
	PhasePreRelease     Phase = "pre-release"
	PhasePostRelease    Phase = "post-release"
)

type ConnectionType string

const (
	ConnectionTGW           ConnectionType = "transit_gateway"
	ConnectionPeering       ConnectionType = "vpc_peering"
	ConnectionVPN           ConnectionType = "vpn"
	ConnectionDirectConnect ConnectionType = "direct_connect"
	ConnectionPrivateLink   ConnectionType = "privatelink"
)

// NormalizeConnectionType maps user-facing names and short aliases onto
// canonical connection types.
func NormalizeConnectionType(s string) (ConnectionType, bool) {
	switch s {
	case "tgw", "transit-gateway", "transit_gateway":
		return ConnectionTGW, true
	case "pcx", "peering", "vpc_peering":
		return ConnectionPeering, true
	case "vpn":
		return ConnectionVPN, true
	case "dx", "direct-connect", "direct_connect":
		return ConnectionDirectConnect, true
	case "vpce", "privatelink":
		return ConnectionPrivateLink, true
	}
	return "", false
}

// CountKey is the short label a connection type is counted under in the
// golden path's by_connection_type summary.
func (c ConnectionType) CountKey() string {
	switch c {
	case ConnectionTGW:
		return "tgw"
	case ConnectionPeering:
		return "peering"
	case ConnectionDirectConnect:
		return "dx"
	default:
		return string(c)
	}
}

type TestStatus string

const (
	StatusPass TestStatus = "PASS"
	StatusFail TestStatus = "FAIL"
	StatusWarn TestStatus = "WARN"
	StatusSkip TestStatus = "SKIP"
)

type AccountConfig struct {
	AccountID      string   `yaml:"account_id" json:"account_id"`
	AccountName    string   `yaml:"account_name" json:"account_name"`
	VPCID          string   `yaml:"vpc_id,omitempty" json:"vpc_id,omitempty"`
	Region         string   `yaml:"region,omitempty" json:"region,omitempty"`
	TGWID          string   `yaml:"tgw_id,omitempty" json:"tgw_id,omitempty"`
	ExpectedRoutes []string `yaml:"expected_routes,omitempty" json:"expected_routes,omitempty"`
	TestPorts      []int    `yaml:"test_ports,omitempty" json:"test_ports,omitempty"`
}

type AccountsFile struct {
	Accounts []AccountConfig `yaml:"accounts"`
}

type VPCBaseline struct {
	VPCID             string   `yaml:"vpc_id" json:"vpc_id"`
	CIDRBlock         string   `yaml:"cidr_block" json:"cidr_block"`
	DNSSupport        bool     `yaml:"dns_support" json:"dns_support"`
	DNSHostnames      bool     `yaml:"dns_hostnames" json:"dns_hostnames"`
	SubnetCount       int      `yaml:"subnet_count" json:"subnet_count"`
	SubnetCIDRs       []string `yaml:"subnet_cidrs" json:"subnet_cidrs"`
	AvailabilityZones []string `yaml:"availability_zones" json:"availability_zones"`
	SecondaryCIDRs    []string `yaml:"cidr_block_associations,omitempty" json:"cidr_block_associations,omitempty"`
}

type TransitGatewayBaseline struct {
	TGWID           string   `yaml:"tgw_id" json:"tgw_id"`
	AttachmentID    string   `yaml:"tgw_attachment_id" json:"tgw_attachment_id"`
	AttachmentState string   `yaml:"attachment_state" json:"attachment_state"`
	SubnetIDs       []string `yaml:"subnet_ids" json:"subnet_ids"`
	RouteTableID    string   `yaml:"route_table_id,omitempty" json:"route_table_id,omitempty"`
	ApplianceMode   bool     `yaml:"appliance_mode" json:"appliance_mode"`
}

type RouteBaseline struct {
	Destination string `yaml:"destination" json:"destination"`
	Target      string `yaml:"target" json:"target"`
	State       string `yaml:"state" json:"state"`
}

type RouteTableBaseline struct {
	RouteTableID      string          `yaml:"route_table_id" json:"route_table_id"`
	Main              bool            `yaml:"main" json:"main"`
	Routes            []RouteBaseline `yaml:"routes" json:"routes"`
	AssociatedSubnets []string        `yaml:"associated_subnets" json:"associated_subnets"`
}

type SecurityGroupRuleBaseline struct {
	Protocol   string   `yaml:"protocol" json:"protocol"`
	FromPort   int      `yaml:"from_port" json:"from_port"`
	ToPort     int      `yaml:"to_port" json:"to_port"`
	CIDRBlocks []string `yaml:"cidr_blocks" json:"cidr_blocks"`
	PeerGroups []string `yaml:"peer_sgs,omitempty" json:"peer_sgs,omitempty"`
}

type SecurityGroupBaseline struct {
	GroupID      string                      `yaml:"group_id" json:"group_id"`
	GroupName    string                      `yaml:"group_name" json:"group_name"`
	IngressRules []SecurityGroupRuleBaseline `yaml:"ingress_rules" json:"ingress_rules"`
	EgressRules  []SecurityGroupRuleBaseline `yaml:"egress_rules" json:"egress_rules"`
}

type NACLRuleBaseline struct {
	RuleNumber int    `yaml:"rule_number" json:"rule_number"`
	Protocol   string `yaml:"protocol" json:"protocol"`
	Action     string `yaml:"action" json:"action"`
	CIDRBlock  string `yaml:"cidr_block,omitempty" json:"cidr_block,omitempty"`
	FromPort   int    `yaml:"from_port,omitempty" json:"from_port,omitempty"`
	ToPort     int    `yaml:"to_port,omitempty" json:"to_port,omitempty"`
}

type NACLBaseline struct {
	NACLID            string             `yaml:"nacl_id" json:"nacl_id"`
	IngressRules      []NACLRuleBaseline `yaml:"ingress_rules" json:"ingress_rules"`
	EgressRules       []NACLRuleBaseline `yaml:"egress_rules" json:"egress_rules"`
	AssociatedSubnets []string           `yaml:"associated_subnets" json:"associated_subnets"`
}

// AllowedPortRule is a flattened security group ingress rule; its
// Description carries the owning group's name.
type AllowedPortRule struct {
	Protocol    string   `yaml:"protocol" json:"protocol"`
	FromPort    int      `yaml:"from_port" json:"from_port"`
	ToPort      int      `yaml:"to_port" json:"to_port"`
	CIDRBlocks  []string `yaml:"cidr_blocks" json:"cidr_blocks"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

type AccountBaseline struct {
	AccountID      string                  `yaml:"account_id" json:"account_id"`
	AccountName    string                  `yaml:"account_name" json:"account_name"`
	Region         string                  `yaml:"region" json:"region"`
	VPC            VPCBaseline             `yaml:"vpc" json:"vpc"`
	TransitGateway *TransitGatewayBaseline `yaml:"transit_gateway" json:"transit_gateway"`
	RouteTables    []RouteTableBaseline    `yaml:"route_tables" json:"route_tables"`
	SecurityGroups []SecurityGroupBaseline `yaml:"security_groups" json:"security_groups"`
	NetworkACLs    []NACLBaseline          `yaml:"network_acls" json:"network_acls"`
	AllowedPorts   []AllowedPortRule       `yaml:"allowed_ports" json:"allowed_ports"`
	DiscoveredAt   string                  `yaml:"discovered_at" json:"discovered_at"`
}

type VPCExpectation struct {
	DNSSupport           bool `yaml:"dns_support" json:"dns_support"`
	DNSHostnames         bool `yaml:"dns_hostnames" json:"dns_hostnames"`
	MinSubnets           int  `yaml:"min_subnets" json:"min_subnets"`
	MinAvailabilityZones int  `yaml:"min_availability_zones" json:"min_availability_zones"`
}

type TGWExpectation struct {
	Required      bool   `yaml:"required" json:"required"`
	ExpectedState string `yaml:"expected_state" json:"expected_state"`
	ApplianceMode bool   `yaml:"appliance_mode" json:"appliance_mode"`
}

type RouteExpectation struct {
	ExpectedDestinations []string `yaml:"expected_destinations" json:"expected_destinations"`
	Description          string   `yaml:"description" json:"description"`
}

type SecurityExpectation struct {
	CommonIngressPatterns []string `yaml:"common_ingress_patterns" json:"common_ingress_patterns"`
}

type ExpectedConfiguration struct {
	VPC            VPCExpectation      `yaml:"vpc" json:"vpc"`
	TransitGateway TGWExpectation      `yaml:"transit_gateway" json:"transit_gateway"`
	Routes         RouteExpectation    `yaml:"routes" json:"routes"`
	Security       SecurityExpectation `yaml:"security" json:"security"`
}

// ConnectivityEdge is one discovered directed VPC-to-VPC path.
type ConnectivityEdge struct {
	SourceVPCID       string         `yaml:"source_vpc_id" json:"source_vpc_id"`
	SourceAccountID   string         `yaml:"source_account_id" json:"source_account_id"`
	SourceAccountName string         `yaml:"source_account_name" json:"source_account_name"`
	DestVPCID         string         `yaml:"dest_vpc_id" json:"dest_vpc_id"`
	DestAccountID     string         `yaml:"dest_account_id" json:"dest_account_id"`
	DestAccountName   string         `yaml:"dest_account_name" json:"dest_account_name"`
	ConnectionType    ConnectionType `yaml:"connection_type" json:"connection_type"`
	ConnectionID      string         `yaml:"connection_id" json:"connection_id"`
	Expected          bool           `yaml:"expected_reachable" json:"expected_reachable"`
	TrafficObserved   bool           `yaml:"traffic_observed" json:"traffic_observed"`
	ProtocolsObserved []string       `yaml:"protocols_observed,omitempty" json:"protocols_observed,omitempty"`
	PortsObserved     []int          `yaml:"ports_observed,omitempty" json:"ports_observed,omitempty"`
	PortsAllowed      []int          `yaml:"ports_allowed,omitempty" json:"ports_allowed,omitempty"`
	FirstSeen         string         `yaml:"first_seen,omitempty" json:"first_seen,omitempty"`
	LastSeen          string         `yaml:"last_seen,omitempty" json:"last_seen,omitempty"`
	PacketCount       int64          `yaml:"packet_count,omitempty" json:"packet_count,omitempty"`
	UseCase           string         `yaml:"use_case" json:"use_case"`
}

type ConnectivitySummary struct {
	Patterns         []ConnectivityEdge `yaml:"patterns" json:"patterns"`
	TGWID            string             `yaml:"tgw_id,omitempty" json:"tgw_id,omitempty"`
	TotalPaths       int                `yaml:"total_paths" json:"total_paths"`
	ActivePaths      int                `yaml:"active_paths" json:"active_paths"`
	ByConnectionType map[string]int     `yaml:"by_connection_type" json:"by_connection_type"`
}

type GoldenPath struct {
	Version               string                `yaml:"version" json:"version"`
	GeneratedAt           string                `yaml:"generated_at" json:"generated_at"`
	BasedOnAccounts       int                   `yaml:"based_on_accounts" json:"based_on_accounts"`
	ThresholdPercentage   int                   `yaml:"threshold_percentage" json:"threshold_percentage"`
	ExpectedConfiguration ExpectedConfiguration `yaml:"expected_configuration" json:"expected_configuration"`
	Connectivity          *ConnectivitySummary  `yaml:"connectivity,omitempty" json:"connectivity,omitempty"`
	AccountBaselines      []*AccountBaseline    `yaml:"account_baselines" json:"account_baselines"`
}

type TestPlanFilters struct {
	ConnectionTypes []string `yaml:"connection_types,omitempty" json:"connection_types,omitempty"`
	OnlyActive      bool     `yaml:"only_active,omitempty" json:"only_active,omitempty"`
	Ports           []int    `yaml:"ports,omitempty" json:"ports,omitempty"`
}

type TestPlanEntry struct {
	ID             string         `yaml:"id" json:"id"`
	Enabled        bool           `yaml:"enabled" json:"enabled"`
	SourceVPC      string         `yaml:"source_vpc" json:"source_vpc"`
	SourceAccount  string         `yaml:"source_account" json:"source_account"`
	DestVPC        string         `yaml:"dest_vpc" json:"dest_vpc"`
	DestAccount    string         `yaml:"dest_account" json:"dest_account"`
	ConnectionType ConnectionType `yaml:"connection_type" json:"connection_type"`
	ConnectionID   string         `yaml:"connection_id" json:"connection_id"`
	Protocol       string         `yaml:"protocol" json:"protocol"`
	Port           int            `yaml:"port,omitempty" json:"port,omitempty"`
	Description    string         `yaml:"description" json:"description"`
	Notes          string         `yaml:"notes,omitempty" json:"notes,omitempty"`
}

type TestPlan struct {
	Version          string           `yaml:"version" json:"version"`
	GeneratedAt      string           `yaml:"generated_at" json:"generated_at"`
	SourceGoldenPath string           `yaml:"source_golden_path" json:"source_golden_path"`
	Filters          *TestPlanFilters `yaml:"filters" json:"filters"`
	Tests            []TestPlanEntry  `yaml:"tests" json:"tests"`
}

type TestCase struct {
	Name       string            `yaml:"name" json:"name"`
	Status     TestStatus        `yaml:"result" json:"result"`
	Message    string            `yaml:"message" json:"message"`
	DurationMS int64             `yaml:"duration_ms" json:"duration_ms"`
	Metadata   map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

type TestSummary struct {
	Phase           Phase      `yaml:"phase" json:"phase"`
	SourceFile      string     `yaml:"source_file,omitempty" json:"source_file,omitempty"`
	StartTime       string     `yaml:"start_time" json:"start_time"`
	EndTime         string     `yaml:"end_time" json:"end_time"`
	DurationSeconds float64    `yaml:"duration_seconds" json:"duration_seconds"`
	TotalTests      int        `yaml:"total_tests" json:"total_tests"`
	Passed          int        `yaml:"passed" json:"passed"`
	Failed          int        `yaml:"failed" json:"failed"`
	Warnings        int        `yaml:"warnings" json:"warnings"`
	Skipped         int        `yaml:"skipped" json:"skipped"`
	Results         []TestCase `yaml:"results" json:"results"`
}
