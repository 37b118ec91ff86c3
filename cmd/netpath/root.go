package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arjale/netpath/internal/aws"
	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
	"github.com/arjale/netpath/internal/orchestrator"
	"github.com/arjale/netpath/internal/plan"
	"github.com/arjale/netpath/internal/reporting"
)

type rootFlags struct {
	profile        string
	profilePattern string
	role           string
	region         string

	accountsFile   string
	goldenPath     string
	testPlan       string
	outputDir      string
	tgwID          string
	s3Bucket       string
	publishResults bool
	parallel       int
	dryRun         bool
	verbose        bool

	connectionTypes      []string
	onlyActive           bool
	ports                []int
	testPorts            []int
	includeProtocolLevel bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "netpath",
		Short: "Cross-account VPC topology discovery and reachability verification",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.verbose {
				logging.SetVerbose()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.profile, "profile", "", "AWS shared config profile")
	pf.StringVar(&flags.profilePattern, "profile-pattern", "", "per-account profile pattern, {account_id} is substituted")
	pf.StringVar(&flags.role, "role", aws.DefaultRoleName, "cross-account role name to assume")
	pf.StringVar(&flags.region, "region", "us-west-2", "AWS region")
	pf.StringVar(&flags.accountsFile, "accounts-file", "config/accounts.yaml", "account inventory file")
	pf.StringVar(&flags.goldenPath, "golden-path", "./golden_path.yaml", "golden path file")
	pf.StringVar(&flags.testPlan, "test-plan", "./test_plan.yaml", "test plan file")
	pf.StringVar(&flags.outputDir, "output-dir", "./output", "directory for per-account baseline exports")
	pf.StringVar(&flags.tgwID, "tgw-id", "", "transit gateway to map, defaults to the first configured account's")
	pf.StringVar(&flags.s3Bucket, "s3-bucket", "", "bucket for result uploads")
	pf.BoolVar(&flags.publishResults, "publish-results", false, "publish metrics and upload results")
	pf.IntVar(&flags.parallel, "parallel", 3, "concurrent account workers")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "resolve everything but change nothing")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newDiscoverCmd(flags),
		newExportTestPlanCmd(flags),
		newRunTestPlanCmd(flags),
		newPhaseCmd(flags, domain.PhasePreRelease,
			"Validate release tests against the golden path without executing them"),
		newPhaseCmd(flags, domain.PhasePostRelease,
			"Execute release verification tests derived from the golden path"),
	)
	return root
}

func newDiscoverCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   string(domain.PhaseDiscover),
		Short: "Collect account baselines, derive the golden path, and map connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator(cmd, flags)
			if err != nil {
				return err
			}
			return o.Discover(cmd.Context())
		},
	}
}

func newExportTestPlanCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(domain.PhaseExportTestPlan),
		Short: "Derive an executable test plan from the golden path",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Plan export is a pure file transform and needs no credentials.
			o := orchestrator.New(nil, nil, orchestratorOptions(flags))
			return o.ExportTestPlan(cmd.Context(), plan.Options{
				ConnectionTypes:      flags.connectionTypes,
				OnlyActive:           flags.onlyActive,
				Ports:                flags.ports,
				TestPorts:            flags.testPorts,
				IncludeProtocolLevel: flags.includeProtocolLevel,
			})
		},
	}
	cmd.Flags().StringSliceVar(&flags.connectionTypes, "connection-types", nil, "restrict to connection types (tgw, pcx, vpn, vpce, dx)")
	cmd.Flags().BoolVar(&flags.onlyActive, "only-active", false, "only edges with observed traffic")
	cmd.Flags().IntSliceVar(&flags.ports, "ports", nil, "restrict to these ports, intersected with allowed ports")
	cmd.Flags().IntSliceVar(&flags.testPorts, "test-ports", nil, "force these ports, bypassing the allowed-port intersection")
	cmd.Flags().BoolVar(&flags.includeProtocolLevel, "include-protocol-level", false, "add a protocol-level test per edge")
	return cmd
}

func newRunTestPlanCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   string(domain.PhaseRunTestPlan),
		Short: "Execute an exported test plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator(cmd, flags)
			if err != nil {
				return err
			}
			summary, err := o.RunTestPlan(cmd.Context())
			if err != nil {
				return err
			}
			return exitStatus(summary)
		},
	}
}

func newPhaseCmd(flags *rootFlags, phase domain.Phase, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(phase),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := buildOrchestrator(cmd, flags)
			if err != nil {
				return err
			}
			summary, err := o.RunPhase(cmd.Context(), phase)
			if err != nil {
				return err
			}
			return exitStatus(summary)
		},
	}
}

func buildOrchestrator(cmd *cobra.Command, flags *rootFlags) (*orchestrator.Orchestrator, error) {
	ctx := cmd.Context()

	provider, err := aws.NewSessionFactory(ctx, aws.SessionOptions{
		Region:         flags.region,
		Profile:        flags.profile,
		ProfilePattern: flags.profilePattern,
		RoleName:       flags.role,
	})
	if err != nil {
		return nil, err
	}

	var reporter *reporting.Reporter
	if flags.publishResults {
		reporter, err = reporting.NewReporter(ctx, flags.region, flags.s3Bucket)
		if err != nil {
			return nil, err
		}
	}
	return orchestrator.New(provider, reporter, orchestratorOptions(flags)), nil
}

func orchestratorOptions(flags *rootFlags) orchestrator.Options {
	return orchestrator.Options{
		Region:         flags.region,
		AccountsFile:   flags.accountsFile,
		TGWID:          flags.tgwID,
		GoldenPathPath: flags.goldenPath,
		TestPlanPath:   flags.testPlan,
		OutputDir:      flags.outputDir,
		S3Bucket:       flags.s3Bucket,
		PublishResults: flags.publishResults,
		Parallel:       flags.parallel,
		DryRun:         flags.dryRun,
	}
}

// exitStatus turns failed tests into a non-zero exit.
func exitStatus(summary *domain.TestSummary) error {
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d tests failed", summary.Failed, summary.TotalTests)
	}
	return nil
}
