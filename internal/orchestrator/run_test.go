package orchestrator

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/store"
)

func testGoldenPath() *domain.GoldenPath {
	return &domain.GoldenPath{
		Version: "1.0",
		Connectivity: &domain.ConnectivitySummary{
			Patterns: []domain.ConnectivityEdge{
				{
					SourceVPCID:     "vpc-a",
					SourceAccountID: "111111111111",
					DestVPCID:       "vpc-b",
					DestAccountID:   "222222222222",
					ConnectionType:  domain.ConnectionTGW,
					ConnectionID:    "tgw-1",
					Expected:        true,
					TrafficObserved: true,
					PortsObserved:   []int{443, 8443},
				},
				{
					SourceVPCID:    "vpc-a",
					DestVPCID:      "vpc-c",
					ConnectionType: domain.ConnectionPeering,
					ConnectionID:   "pcx-1",
					Expected:       true,
				},
				{
					SourceVPCID:    "vpc-a",
					DestVPCID:      "vpc-d",
					ConnectionType: domain.ConnectionPeering,
					ConnectionID:   "pcx-2",
					Expected:       false,
				},
			},
		},
	}
}

func TestPhaseEntries_Expansion(t *testing.T) {
	entries := phaseEntries(testGoldenPath())

	// Edge one: protocol probe plus two observed ports. Edge two:
	// protocol probe only. Edge three is not expected reachable.
	require.Len(t, entries, 4)

	assert.Equal(t, "test-001", entries[0].ID)
	assert.Equal(t, "-1", entries[0].Protocol)
	assert.Equal(t, "Protocol-level: vpc-a -> vpc-b", entries[0].Description)

	assert.Equal(t, "tcp", entries[1].Protocol)
	assert.Equal(t, 443, entries[1].Port)
	assert.Equal(t, "tcp", entries[2].Protocol)
	assert.Equal(t, 8443, entries[2].Port)

	assert.Equal(t, "-1", entries[3].Protocol)
	assert.Equal(t, "vpc-c", entries[3].DestVPC)

	for _, e := range entries {
		assert.True(t, e.Enabled)
	}
}

func TestExecute_PreReleaseSkipsExecution(t *testing.T) {
	o := New(nil, nil, Options{})
	o.out = io.Discard

	entries := phaseEntries(testGoldenPath())
	summary := o.execute(context.Background(), domain.PhasePreRelease, entries)

	assert.Equal(t, domain.PhasePreRelease, summary.Phase)
	assert.Equal(t, len(entries), summary.TotalTests)
	assert.Equal(t, len(entries), summary.Skipped)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Passed)
	assert.NotEmpty(t, summary.StartTime)
	assert.NotEmpty(t, summary.EndTime)
}

func TestExecute_DisabledTestsCountSkipped(t *testing.T) {
	o := New(nil, nil, Options{DryRun: true})
	o.out = io.Discard

	entries := []domain.TestPlanEntry{
		{ID: "test-001", Enabled: false},
		{ID: "test-002", Enabled: true},
	}
	summary := o.execute(context.Background(), domain.PhaseRunTestPlan, entries)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, "test disabled in plan", summary.Results[0].Message)
	assert.Equal(t, 2, summary.Skipped)
}

func TestRunTestPlan_SummaryPhase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, store.SaveYAML(path, &domain.TestPlan{
		Version: "1.0",
		Tests: []domain.TestPlanEntry{
			{ID: "test-001", Enabled: true, ConnectionType: domain.ConnectionVPN},
		},
	}))

	o := New(nil, nil, Options{TestPlanPath: path, DryRun: true})
	o.out = io.Discard

	summary, err := o.RunTestPlan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseRunTestPlan, summary.Phase)
	assert.Equal(t, path, summary.SourceFile)
	assert.Equal(t, 1, summary.Skipped)
}

func TestNew_DefaultsParallelism(t *testing.T) {
	o := New(nil, nil, Options{Parallel: 0})
	assert.Equal(t, 3, o.opts.Parallel)
}
