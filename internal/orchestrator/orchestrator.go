package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arjale/netpath/internal/baseline"
	"github.com/arjale/netpath/internal/connectivity"
	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
	"github.com/arjale/netpath/internal/plan"
	"github.com/arjale/netpath/internal/reachability"
	"github.com/arjale/netpath/internal/reporting"
	"github.com/arjale/netpath/internal/store"
)

// Options carries the run-wide settings shared by every phase.
type Options struct {
	Region         string
	AccountsFile   string
	TGWID          string
	GoldenPathPath string
	TestPlanPath   string
	OutputDir      string
	S3Bucket       string
	PublishResults bool
	Parallel       int
	DryRun         bool
}

// Orchestrator wires discovery, plan generation, and test execution.
type Orchestrator struct {
	provider domain.SessionProvider
	reporter *reporting.Reporter
	opts     Options
	out      io.Writer
}

func New(provider domain.SessionProvider, reporter *reporting.Reporter, opts Options) *Orchestrator {
	if opts.Parallel <= 0 {
		opts.Parallel = 3
	}
	return &Orchestrator{
		provider: provider,
		reporter: reporter,
		opts:     opts,
		out:      os.Stdout,
	}
}

// Discover collects every account's baseline, derives the golden path,
// maps connectivity, and writes the artifacts. Accounts that fail
// collection are logged and excluded rather than failing the run.
func (o *Orchestrator) Discover(ctx context.Context) error {
	accounts, err := store.LoadAccounts(o.opts.AccountsFile)
	if err != nil {
		return err
	}
	logging.Info("starting discovery", "accounts", len(accounts), "region", o.opts.Region)

	var mu sync.Mutex
	baselines := make(map[string]*domain.AccountBaseline)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Parallel)
	for _, acct := range accounts {
		acct := acct
		if acct.TGWID == "" {
			acct.TGWID = o.opts.TGWID
		}
		g.Go(func() error {
			client, err := o.provider.GetClient(gctx, acct.AccountID)
			if err != nil {
				logging.Warn("skipping account", "account_id", acct.AccountID, "error", err)
				return nil
			}
			b, err := baseline.NewCollector(client).Collect(gctx, acct)
			if err != nil {
				logging.Warn("baseline collection failed",
					"account_id", acct.AccountID, "error", err)
				return nil
			}
			mu.Lock()
			baselines[acct.AccountID] = b
			mu.Unlock()
			logging.Info("collected baseline", "account_id", acct.AccountID, "vpc_id", b.VPC.VPCID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(baselines) == 0 {
		// Zero usable accounts is a degraded result, not a process failure.
		logging.Warn("no account baselines collected, nothing to export")
		return nil
	}

	ordered := make([]*domain.AccountBaseline, 0, len(baselines))
	for _, acct := range accounts {
		if b, ok := baselines[acct.AccountID]; ok {
			ordered = append(ordered, b)
		}
	}

	gp := baseline.Aggregate(ordered)

	tgwID := o.opts.TGWID
	if tgwID == "" {
		tgwID = firstTGWID(accounts)
	}

	mapper := connectivity.NewMapper(o.provider, accounts, baselines)
	summary, err := mapper.Discover(ctx, tgwID)
	if err != nil {
		return fmt.Errorf("connectivity discovery: %w", err)
	}
	mapper.EnrichTraffic(ctx, summary)
	gp.Connectivity = summary

	if o.opts.DryRun {
		logging.Info("dry run, skipping artifact export",
			"baselines", len(ordered), "paths", summary.TotalPaths)
		return nil
	}

	if err := store.ExportBaselines(o.opts.OutputDir, ordered); err != nil {
		return err
	}
	if _, err := store.BackupIfExists(o.opts.GoldenPathPath); err != nil {
		return err
	}
	if err := store.SaveGoldenPath(o.opts.GoldenPathPath, gp); err != nil {
		return err
	}
	logging.Info("discovery complete",
		"golden_path", o.opts.GoldenPathPath,
		"baselines", len(ordered),
		"connectivity_paths", summary.TotalPaths)
	return nil
}

// ExportTestPlan derives a test plan from the on-disk golden path.
func (o *Orchestrator) ExportTestPlan(ctx context.Context, opts plan.Options) error {
	gp, err := store.LoadGoldenPath(o.opts.GoldenPathPath)
	if err != nil {
		return err
	}

	p, err := plan.Build(gp, o.opts.GoldenPathPath, opts)
	if err != nil {
		return err
	}
	if o.opts.DryRun {
		logging.Info("dry run, not writing test plan", "tests", len(p.Tests))
		return nil
	}

	if _, err := store.BackupIfExists(o.opts.TestPlanPath); err != nil {
		return err
	}
	if err := store.SaveYAML(o.opts.TestPlanPath, p); err != nil {
		return err
	}
	logging.Info("exported test plan", "path", o.opts.TestPlanPath, "tests", len(p.Tests))
	return nil
}

func (o *Orchestrator) tester() *reachability.Tester {
	return reachability.NewTester(o.provider)
}

func firstTGWID(accounts []domain.AccountConfig) string {
	for _, acct := range accounts {
		if acct.TGWID != "" {
			return acct.TGWID
		}
	}
	return ""
}
