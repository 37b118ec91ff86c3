package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
	"github.com/arjale/netpath/internal/reporting"
	"github.com/arjale/netpath/internal/store"
)

// RunTestPlan executes an exported test plan. Disabled entries count as
// skipped. The returned summary's failure count drives the exit code.
func (o *Orchestrator) RunTestPlan(ctx context.Context) (*domain.TestSummary, error) {
	p, err := store.LoadTestPlan(o.opts.TestPlanPath)
	if err != nil {
		return nil, err
	}
	logging.Info("running test plan", "path", o.opts.TestPlanPath, "tests", len(p.Tests))

	summary := o.execute(ctx, domain.PhaseRunTestPlan, p.Tests)
	summary.SourceFile = o.opts.TestPlanPath
	o.report(ctx, summary)
	return summary, nil
}

// RunPhase executes the release verification tests derived directly from
// the golden path. Pre-release validates that the tests can be built and
// reports them skipped; post-release runs them for real.
func (o *Orchestrator) RunPhase(ctx context.Context, phase domain.Phase) (*domain.TestSummary, error) {
	gp, err := store.LoadGoldenPath(o.opts.GoldenPathPath)
	if err != nil {
		return nil, err
	}
	if gp.Connectivity == nil {
		return nil, fmt.Errorf("%s: %w", o.opts.GoldenPathPath, domain.ErrNoGoldenPath)
	}

	entries := phaseEntries(gp)
	logging.Info("running phase tests", "phase", phase, "tests", len(entries))

	summary := o.execute(ctx, phase, entries)
	o.report(ctx, summary)
	return summary, nil
}

// phaseEntries expands each expected-reachable edge into a protocol-level
// probe plus one TCP test per observed port.
func phaseEntries(gp *domain.GoldenPath) []domain.TestPlanEntry {
	var entries []domain.TestPlanEntry
	add := func(e domain.TestPlanEntry) {
		e.ID = fmt.Sprintf("test-%03d", len(entries)+1)
		e.Enabled = true
		entries = append(entries, e)
	}

	for _, edge := range gp.Connectivity.Patterns {
		if !edge.Expected {
			continue
		}
		base := domain.TestPlanEntry{
			SourceVPC:      edge.SourceVPCID,
			SourceAccount:  edge.SourceAccountID,
			DestVPC:        edge.DestVPCID,
			DestAccount:    edge.DestAccountID,
			ConnectionType: edge.ConnectionType,
			ConnectionID:   edge.ConnectionID,
		}

		proto := base
		proto.Protocol = "-1"
		proto.Description = fmt.Sprintf("Protocol-level: %s -> %s", edge.SourceVPCID, edge.DestVPCID)
		add(proto)

		if edge.TrafficObserved {
			for _, port := range edge.PortsObserved {
				t := base
				t.Protocol = "tcp"
				t.Port = port
				t.Description = fmt.Sprintf("TCP:%d %s -> %s", port, edge.SourceVPCID, edge.DestVPCID)
				add(t)
			}
		}
	}
	return entries
}

func (o *Orchestrator) execute(ctx context.Context, phase domain.Phase, entries []domain.TestPlanEntry) *domain.TestSummary {
	start := time.Now()
	summary := &domain.TestSummary{
		Phase:     phase,
		StartTime: start.UTC().Format(time.RFC3339),
	}

	skipAll := o.opts.DryRun || phase == domain.PhasePreRelease
	var tester interface {
		Run(context.Context, domain.TestPlanEntry) domain.TestCase
	}
	if !skipAll {
		tester = o.tester()
	}

	for _, entry := range entries {
		var tc domain.TestCase
		switch {
		case !entry.Enabled:
			tc = domain.TestCase{
				Name:    entry.ID,
				Status:  domain.StatusSkip,
				Message: "test disabled in plan",
			}
		case skipAll:
			tc = domain.TestCase{
				Name:    entry.ID,
				Status:  domain.StatusSkip,
				Message: "execution skipped, validation only",
			}
		default:
			tc = tester.Run(ctx, entry)
			logging.Info("test finished",
				"test_id", entry.ID, "name", tc.Name, "result", tc.Status)
		}
		summary.Results = append(summary.Results, tc)
	}

	end := time.Now()
	summary.EndTime = end.UTC().Format(time.RFC3339)
	summary.DurationSeconds = end.Sub(start).Seconds()
	summary.TotalTests = len(summary.Results)
	for _, tc := range summary.Results {
		switch tc.Status {
		case domain.StatusPass:
			summary.Passed++
		case domain.StatusFail:
			summary.Failed++
		case domain.StatusWarn:
			summary.Warnings++
		case domain.StatusSkip:
			summary.Skipped++
		}
	}
	return summary
}

func (o *Orchestrator) report(ctx context.Context, summary *domain.TestSummary) {
	reporting.PrintSummary(o.out, summary)
	if o.opts.PublishResults && o.reporter != nil {
		o.reporter.PublishMetrics(ctx, summary)
		o.reporter.UploadResults(ctx, summary)
	}
}
