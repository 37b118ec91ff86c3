package reachability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arjale/netpath/internal/aws"
	"github.com/arjale/netpath/internal/domain"
)

// Tester executes test plan entries against the Reachability Analyzer
// and the connection state APIs.
type Tester struct {
	provider domain.SessionProvider

	mu        sync.Mutex
	pathCache map[string]string
	group     singleflight.Group
}

func NewTester(provider domain.SessionProvider) *Tester {
	return &Tester{
		provider:  provider,
		pathCache: make(map[string]string),
	}
}

// Run executes one test plan entry and always returns a result; API
// failures surface as FAIL rather than aborting the run.
func (t *Tester) Run(ctx context.Context, entry domain.TestPlanEntry) domain.TestCase {
	started := time.Now()

	// Plans are hand-editable, so short aliases like "pcx" are accepted.
	connType := entry.ConnectionType
	if normalized, ok := domain.NormalizeConnectionType(string(connType)); ok {
		connType = normalized
	}

	var result domain.TestCase
	switch connType {
	case domain.ConnectionTGW:
		result = t.testTGW(ctx, entry)
	case domain.ConnectionPeering:
		result = t.testPeering(ctx, entry)
	case domain.ConnectionVPN:
		result = t.testVPN(ctx, entry)
	case domain.ConnectionPrivateLink:
		result = t.testPrivateLink(ctx, entry)
	case domain.ConnectionDirectConnect:
		result = t.testDirectConnect(ctx, entry)
	default:
		result = domain.TestCase{
			Name:    fmt.Sprintf("Unknown-%s", entry.ConnectionType),
			Status:  domain.StatusSkip,
			Message: fmt.Sprintf("unsupported connection type %q", entry.ConnectionType),
		}
	}

	result.DurationMS = time.Since(started).Milliseconds()
	if result.Metadata == nil {
		result.Metadata = map[string]string{}
	}
	result.Metadata["test_id"] = entry.ID
	result.Metadata["connection_id"] = entry.ConnectionID
	return result
}

func (t *Tester) testTGW(ctx context.Context, entry domain.TestPlanEntry) domain.TestCase {
	name := fmt.Sprintf("TGW-%s:%s", entry.Protocol, portLabel(entry.Port))

	var srcAtt, dstAtt *domain.TGWAttachmentData
	var region string
	err := t.callWithRetry(ctx, entry.SourceAccount, func(client domain.CloudClient) error {
		region = client.Region()
		var err error
		if srcAtt, err = client.GetTGWAttachmentForVPC(ctx, entry.SourceVPC, entry.ConnectionID); err != nil {
			return err
		}
		dstAtt, err = client.GetTGWAttachmentForVPC(ctx, entry.DestVPC, entry.ConnectionID)
		return err
	})
	if err != nil {
		return failure(name, err)
	}
	if srcAtt == nil || dstAtt == nil {
		return domain.TestCase{Name: name, Status: domain.StatusSkip, Message: "TGW attachments not found"}
	}

	srcARN := attachmentARN(region, srcAtt)
	dstARN := attachmentARN(region, dstAtt)
	return t.testPath(ctx, entry, name, srcARN, dstARN)
}

func (t *Tester) testPeering(ctx context.Context, entry domain.TestPlanEntry) domain.TestCase {
	name := fmt.Sprintf("Peering-%s:%s", entry.Protocol, portLabel(entry.Port))

	var peering *domain.VPCPeeringData
	var srcENI, dstENI *domain.ENIData
	var region string
	err := t.callWithRetry(ctx, entry.SourceAccount, func(client domain.CloudClient) error {
		region = client.Region()
		var err error
		if peering, err = client.GetVPCPeering(ctx, entry.ConnectionID); err != nil {
			return err
		}
		if peering.Status != "active" {
			return nil
		}
		if srcENI, err = pickENI(ctx, client, entry.SourceVPC); err != nil {
			return err
		}
		dstENI, err = pickENI(ctx, client, entry.DestVPC)
		return err
	})
	if err != nil {
		if aws.IsNotFound(err) {
			return domain.TestCase{Name: name, Status: domain.StatusSkip, Message: "Peering connection not found"}
		}
		return failure(name, err)
	}
	if peering.Status != "active" {
		return domain.TestCase{
			Name:    name,
			Status:  domain.StatusFail,
			Message: fmt.Sprintf("Peering status: %s (expected: active)", peering.Status),
		}
	}
	if srcENI == nil || dstENI == nil {
		return domain.TestCase{
			Name:    name,
			Status:  domain.StatusWarn,
			Message: "No suitable ENIs found for testing. Peering is active but cannot test reachability.",
		}
	}

	return t.testPath(ctx, entry, name, eniARN(region, srcENI), eniARN(region, dstENI))
}

func (t *Tester) testVPN(ctx context.Context, entry domain.TestPlanEntry) domain.TestCase {
	const name = "VPN-Tunnel-Status"

	var vpn *domain.VPNConnectionData
	err := t.callWithRetry(ctx, entry.SourceAccount, func(client domain.CloudClient) error {
		var err error
		vpn, err = client.GetVPNConnection(ctx, entry.ConnectionID)
		return err
	})
	if err != nil {
		if aws.IsNotFound(err) {
			return domain.TestCase{Name: name, Status: domain.StatusSkip, Message: "VPN connection not found"}
		}
		return failure(name, err)
	}

	switch {
	case vpn.State == "available" && vpn.TunnelsUp > 0:
		return domain.TestCase{
			Name:    name,
			Status:  domain.StatusPass,
			Message: fmt.Sprintf("VPN available, %d/%d tunnels UP", vpn.TunnelsUp, vpn.TunnelsTotal),
		}
	case vpn.State == "available":
		return domain.TestCase{
			Name:    name,
			Status:  domain.StatusWarn,
			Message: "VPN available but all tunnels DOWN",
		}
	default:
		return domain.TestCase{
			Name:    name,
			Status:  domain.StatusFail,
			Message: fmt.Sprintf("VPN state: %s", vpn.State),
		}
	}
}

func (t *Tester) testPrivateLink(ctx context.Context, entry domain.TestPlanEntry) domain.TestCase {
	port := entry.Port
	if port == 0 {
		port = 443
	}
	name := fmt.Sprintf("PrivateLink-tcp:%d", port)

	var endpoint *domain.VPCEndpointData
	var endpointENI, srcENI *domain.ENIData
	var region string
	err := t.callWithRetry(ctx, entry.SourceAccount, func(client domain.CloudClient) error {
		region = client.Region()
		var err error
		if endpoint, err = client.GetVPCEndpoint(ctx, entry.ConnectionID); err != nil {
			return err
		}
		if !strings.EqualFold(endpoint.State, "available") {
			return nil
		}
		eniIDs, err := client.GetVPCEndpointENIs(ctx, entry.ConnectionID)
		if err != nil {
			return err
		}
		if len(eniIDs) == 0 {
			return nil
		}
		if endpointENI, err = client.GetNetworkInterface(ctx, eniIDs[0]); err != nil {
			return err
		}
		srcENI, err = pickENI(ctx, client, entry.SourceVPC)
		return err
	})
	if err != nil {
		if aws.IsNotFound(err) {
			return domain.TestCase{Name: name, Status: domain.StatusSkip, Message: "VPC Endpoint not found"}
		}
		return failure(name, err)
	}
	if !strings.EqualFold(endpoint.State, "available") {
		return domain.TestCase{
			Name:    name,
			Status:  domain.StatusFail,
			Message: fmt.Sprintf("VPC Endpoint state: %s", endpoint.State),
		}
	}
	if endpointENI == nil {
		return domain.TestCase{Name: name, Status: domain.StatusFail, Message: "VPC Endpoint has no ENIs"}
	}
	if srcENI == nil {
		return domain.TestCase{
			Name:    name,
			Status:  domain.StatusWarn,
			Message: "No source ENI found for testing. Endpoint is available but cannot test reachability.",
		}
	}

	pathEntry := entry
	pathEntry.Protocol = "tcp"
	pathEntry.Port = port
	return t.testPath(ctx, pathEntry, name, eniARN(region, srcENI), eniARN(region, endpointENI))
}

func (t *Tester) testDirectConnect(ctx context.Context, entry domain.TestPlanEntry) domain.TestCase {
	const name = "DX-Status"

	var vifs []domain.DXVirtualInterfaceData
	err := t.callWithRetry(ctx, entry.SourceAccount, func(client domain.CloudClient) error {
		var err error
		vifs, err = client.ListDXVirtualInterfaces(ctx)
		return err
	})
	if err != nil {
		return failure(name, err)
	}
	if len(vifs) == 0 {
		return domain.TestCase{Name: name, Status: domain.StatusSkip, Message: "No Direct Connect virtual interfaces found"}
	}

	available := 0
	for _, vif := range vifs {
		if vif.State == "available" {
			available++
		}
	}
	if available == 0 {
		return domain.TestCase{
			Name:    name,
			Status:  domain.StatusFail,
			Message: fmt.Sprintf("0/%d virtual interfaces available", len(vifs)),
		}
	}
	return domain.TestCase{
		Name:    name,
		Status:  domain.StatusPass,
		Message: fmt.Sprintf("%d/%d virtual interfaces available", available, len(vifs)),
	}
}

// testPath drives a Reachability Analyzer run between two resource ARNs.
func (t *Tester) testPath(ctx context.Context, entry domain.TestPlanEntry, name, srcARN, dstARN string) domain.TestCase {
	// Protocol-level entries probe with TCP and no destination port
	// since the analyzer has no all-protocols mode.
	protocol := entry.Protocol
	port := entry.Port
	if protocol == "-1" || protocol == "" {
		protocol = "tcp"
		port = 0
	}

	var analysis *domain.NetworkInsightsAnalysisData
	err := t.callWithRetry(ctx, entry.SourceAccount, func(client domain.CloudClient) error {
		pathID, err := t.ensurePath(ctx, client, entry, srcARN, dstARN, protocol, port)
		if err != nil {
			return err
		}
		analysis, err = t.runAnalysis(ctx, client, pathID)
		return err
	})
	if err != nil {
		return failure(name, err)
	}

	meta := map[string]string{
		"analysis_id": analysis.ID,
		"path_id":     analysis.PathID,
	}
	if len(analysis.Explanations) > 0 {
		meta["explanations"] = strings.Join(analysis.Explanations, ",")
	}

	switch analysis.Status {
	case "succeeded":
		if analysis.NetworkPathFound {
			return domain.TestCase{
				Name:     name,
				Status:   domain.StatusPass,
				Message:  fmt.Sprintf("Path found: %s -> %s", entry.SourceVPC, entry.DestVPC),
				Metadata: meta,
			}
		}
		return domain.TestCase{
			Name:     name,
			Status:   domain.StatusFail,
			Message:  fmt.Sprintf("Path not found: %s -> %s", entry.SourceVPC, entry.DestVPC),
			Metadata: meta,
		}
	case "failed":
		return domain.TestCase{
			Name:     name,
			Status:   domain.StatusFail,
			Message:  fmt.Sprintf("Analysis failed: %s", analysis.StatusMessage),
			Metadata: meta,
		}
	default:
		return domain.TestCase{
			Name:     name,
			Status:   domain.StatusFail,
			Message:  fmt.Sprintf("Analysis ended in state %s", analysis.Status),
			Metadata: meta,
		}
	}
}

// pickENI chooses an interface to anchor a path test, preferring Lambda
// interfaces since they are long lived.
func pickENI(ctx context.Context, client domain.CloudClient, vpcID string) (*domain.ENIData, error) {
	enis, err := client.ListNetworkInterfaces(ctx, vpcID)
	if err != nil {
		return nil, err
	}
	if len(enis) == 0 {
		return nil, nil
	}
	for i := range enis {
		if strings.Contains(strings.ToLower(enis[i].Description), "lambda") {
			return &enis[i], nil
		}
	}
	return &enis[0], nil
}

func attachmentARN(region string, att *domain.TGWAttachmentData) string {
	return fmt.Sprintf("arn:aws:ec2:%s:%s:transit-gateway-attachment/%s", region, att.OwnerID, att.ID)
}

func eniARN(region string, eni *domain.ENIData) string {
	return fmt.Sprintf("arn:aws:ec2:%s:%s:network-interface/%s", region, eni.OwnerID, eni.ID)
}

func portLabel(port int) string {
	if port == 0 {
		return "all"
	}
	return fmt.Sprintf("%d", port)
}

func failure(name string, err error) domain.TestCase {
	return domain.TestCase{Name: name, Status: domain.StatusFail, Message: err.Error()}
}
