package reachability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
)

const analysisTimeout = 300 * time.Second

var analysisPollInterval = 5 * time.Second

// ensurePath returns a Network Insights Path for the tuple, reusing one
// when it already exists. Lookups and creation for the same tuple are
// collapsed through singleflight so concurrent tests never race to
// create duplicates.
func (t *Tester) ensurePath(ctx context.Context, client domain.CloudClient, entry domain.TestPlanEntry, srcARN, dstARN, protocol string, port int) (string, error) {
	key := fmt.Sprintf("%s|%s|%s|%d", srcARN, dstARN, protocol, port)

	v, err, _ := t.group.Do(key, func() (any, error) {
		t.mu.Lock()
		cached, ok := t.pathCache[key]
		t.mu.Unlock()

		if ok {
			exists, err := client.PathExists(ctx, cached)
			if err != nil {
				return "", err
			}
			if exists {
				return cached, nil
			}
			t.mu.Lock()
			delete(t.pathCache, key)
			t.mu.Unlock()
		}

		pathID, err := t.findOrCreatePath(ctx, client, entry, srcARN, dstARN, protocol, port)
		if err != nil {
			return "", err
		}

		t.mu.Lock()
		t.pathCache[key] = pathID
		t.mu.Unlock()
		return pathID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (t *Tester) findOrCreatePath(ctx context.Context, client domain.CloudClient, entry domain.TestPlanEntry, srcARN, dstARN, protocol string, port int) (string, error) {
	existing, err := client.FindNetworkInsightsPaths(ctx, srcARN, dstARN)
	if err != nil {
		return "", err
	}
	for _, p := range existing {
		if !strings.EqualFold(p.Protocol, protocol) {
			continue
		}
		// Port disambiguates only for protocols that carry one.
		if (protocol == "tcp" || protocol == "udp") && p.DestinationPort != port {
			continue
		}
		logging.Debug("reusing network insights path", "path_id", p.ID)
		return p.ID, nil
	}

	connType := entry.ConnectionType
	if normalized, ok := domain.NormalizeConnectionType(string(connType)); ok {
		connType = normalized
	}
	created, err := client.CreateNetworkInsightsPath(ctx, domain.CreatePathInput{
		Name:            pathName(entry, connType, protocol, port),
		SourceARN:       srcARN,
		DestinationARN:  dstARN,
		Protocol:        protocol,
		DestinationPort: port,
		Tags: map[string]string{
			"ManagedBy":      "netpath",
			"Protocol":       protocol,
			"SourceAccount":  entry.SourceAccount,
			"DestAccount":    entry.DestAccount,
			"ConnectionType": string(connType),
			"ConnectionID":   entry.ConnectionID,
		},
	})
	if err != nil {
		return "", err
	}
	logging.Debug("created network insights path", "path_id", created.ID)
	return created.ID, nil
}

// pathName builds a readable Name tag carrying the accounts, connection
// type, and protocol:port of the tested edge. The client truncates it to
// the tag-length limit.
func pathName(entry domain.TestPlanEntry, connType domain.ConnectionType, protocol string, port int) string {
	return fmt.Sprintf("netpath-%s-to-%s-%s-%s:%s",
		entry.SourceAccount, entry.DestAccount, connType.CountKey(), protocol, portLabel(port))
}

// runAnalysis starts an analysis on the path and polls it to completion.
func (t *Tester) runAnalysis(ctx context.Context, client domain.CloudClient, pathID string) (*domain.NetworkInsightsAnalysisData, error) {
	analysis, err := client.StartNetworkInsightsAnalysis(ctx, pathID)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(analysisTimeout)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(analysisPollInterval):
		}

		current, err := client.GetNetworkInsightsAnalysis(ctx, analysis.ID)
		if err != nil {
			return nil, err
		}
		if current.Status != "running" {
			return current, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("analysis %s still running after %s", analysis.ID, analysisTimeout)
		}
	}
}
