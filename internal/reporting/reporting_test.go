package reporting

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arjale/netpath/internal/domain"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &domain.TestSummary{
		Phase:           domain.PhasePostRelease,
		TotalTests:      3,
		Passed:          1,
		Failed:          1,
		Skipped:         1,
		DurationSeconds: 12.5,
		Results: []domain.TestCase{
			{Name: "VPN-Tunnel-Status", Status: domain.StatusPass, Message: "VPN available, 2/2 tunnels UP"},
			{Name: "TGW-tcp:443", Status: domain.StatusFail, Message: "Path not found: vpc-a -> vpc-b"},
			{Name: "Peering-tcp:443", Status: domain.StatusSkip, Message: "Peering connection not found"},
		},
	})

	out := buf.String()
	if !strings.Contains(out, strings.Repeat("=", 80)) {
		t.Error("expected separator line")
	}
	if !strings.Contains(out, "Test Summary (post-release)") {
		t.Errorf("missing header in output:\n%s", out)
	}
	if !strings.Contains(out, "Failed:   1") {
		t.Errorf("missing failed count in output:\n%s", out)
	}
	if !strings.Contains(out, "TGW-tcp:443: Path not found: vpc-a -> vpc-b") {
		t.Errorf("failures section missing in output:\n%s", out)
	}
}

func TestPrintSummary_NoFailuresSection(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &domain.TestSummary{
		Phase:      domain.PhasePreRelease,
		TotalTests: 1,
		Skipped:    1,
		Results: []domain.TestCase{
			{Name: "test-001", Status: domain.StatusSkip},
		},
	})

	if strings.Contains(buf.String(), "Failures:") {
		t.Error("failures section should be omitted when nothing failed")
	}
}
