package connectivity

import (
	"context"
	"fmt"
	"net/netip"
	"sort"
	"time"

	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
)

const flowLogLookback = 24 * time.Hour

// EnrichTraffic overlays observed flow-log traffic onto the discovered
// edges. Each source account's flow-log group is queried and destination
// VPCs are resolved by CIDR containment. Missing log groups are skipped.
func (m *Mapper) EnrichTraffic(ctx context.Context, summary *domain.ConnectivitySummary) {
	index := m.buildCIDRIndex()

	type flowKey struct {
		srcVPC string
		dstVPC string
	}
	type flowAgg struct {
		ports     map[int]struct{}
		protocols map[string]struct{}
		packets   int64
	}
	flows := make(map[flowKey]*flowAgg)

	for _, acct := range m.accounts {
		b, ok := m.baselines[acct.AccountID]
		if !ok {
			continue
		}
		client, err := m.provider.GetClient(ctx, acct.AccountID)
		if err != nil {
			logging.Warn("skipping flow log query", "account_id", acct.AccountID, "error", err)
			continue
		}

		logGroup := fmt.Sprintf("/aws/vpc/flowlogs/%s", b.VPC.VPCID)
		records, err := client.QueryFlowLogs(ctx, logGroup, flowLogLookback)
		if err != nil {
			logging.Warn("flow log query failed",
				"account_id", acct.AccountID, "log_group", logGroup, "error", err)
			continue
		}

		for _, rec := range records {
			dstVPC := index.resolve(rec.DstAddr)
			if dstVPC == "" || dstVPC == b.VPC.VPCID {
				continue
			}
			key := flowKey{srcVPC: b.VPC.VPCID, dstVPC: dstVPC}
			agg := flows[key]
			if agg == nil {
				agg = &flowAgg{ports: make(map[int]struct{}), protocols: make(map[string]struct{})}
				flows[key] = agg
			}
			if rec.DstPort > 0 {
				agg.ports[rec.DstPort] = struct{}{}
			}
			agg.protocols[protocolName(rec.Protocol)] = struct{}{}
			agg.packets += rec.Packets
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range summary.Patterns {
		e := &summary.Patterns[i]
		agg, ok := flows[flowKey{srcVPC: e.SourceVPCID, dstVPC: e.DestVPCID}]
		if !ok {
			continue
		}
		e.TrafficObserved = true
		e.PortsObserved = sortedPorts(agg.ports)
		e.ProtocolsObserved = sortedStrings(agg.protocols)
		e.PacketCount = agg.packets
		if e.FirstSeen == "" {
			e.FirstSeen = now
		}
		e.LastSeen = now
	}
}

type cidrIndex struct {
	prefixes []netip.Prefix
	vpcIDs   []string
}

func (m *Mapper) buildCIDRIndex() *cidrIndex {
	idx := &cidrIndex{}
	add := func(vpcID, cidr string) {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			return
		}
		idx.prefixes = append(idx.prefixes, p)
		idx.vpcIDs = append(idx.vpcIDs, vpcID)
	}
	for _, b := range m.baselines {
		add(b.VPC.VPCID, b.VPC.CIDRBlock)
		for _, cidr := range b.VPC.SecondaryCIDRs {
			add(b.VPC.VPCID, cidr)
		}
	}
	return idx
}

func (idx *cidrIndex) resolve(addr string) string {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return ""
	}
	for i, p := range idx.prefixes {
		if p.Contains(ip) {
			return idx.vpcIDs[i]
		}
	}
	return ""
}

// protocolName maps flow-log protocol numbers onto names.
func protocolName(proto string) string {
	switch proto {
	case "6":
		return "tcp"
	case "17":
		return "udp"
	case "1":
		return "icmp"
	}
	return proto
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
