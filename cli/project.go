package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/goal-planner/api"
	"github.com/warp/goal-planner/bcb"
	"github.com/warp/goal-planner/config"
	"github.com/warp/goal-planner/indicators"
	"github.com/warp/goal-planner/planning"
)

type projectOptions struct {
	planPath string
	initial  float64
	monthly  float64
	gap      int
	target   float64
	rate     float64
	basis    string
	baseURL  string
}

// NewProjectCommand creates the project command.
func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &projectOptions{}

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project how long it takes to reach a savings goal",
		Long: `Project month by month until the balance reaches the target.

Parameters come from flags, a YAML plan file (--plan), or both; flags win.
Without --rate (or annual_real_rate in the plan) the current Selic/IPCA
real yield is fetched from the central bank.`,
		Example: `  planner project --initial 6000 --monthly 1000 --gap 2 --target 1000000 --rate 0.03
  planner project --plan plan.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(cmd, rootOpts, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.planPath, "plan", "", "YAML plan file")
	f.Float64Var(&opts.initial, "initial", 0, "initial balance")
	f.Float64Var(&opts.monthly, "monthly", 0, "monthly contribution")
	f.IntVar(&opts.gap, "gap", 0, "months without contribution per year (0-11)")
	f.Float64Var(&opts.target, "target", 0, "target balance")
	f.Float64Var(&opts.rate, "rate", 0, "annual real rate as a fraction (0.03 = 3%)")
	f.StringVar(&opts.basis, "basis", string(indicators.BasisNet), "live rate basis when --rate is not set (net|gross)")
	f.StringVar(&opts.baseURL, "base-url", config.DefaultBCBBaseURL, "central bank SGS API root")

	return cmd
}

func runProject(cmd *cobra.Command, rootOpts *RootOptions, opts *projectOptions) error {
	plan := &PlanFile{}
	if opts.planPath != "" {
		loaded, err := LoadPlanFile(opts.planPath)
		if err != nil {
			return err
		}
		plan = loaded
	}
	opts.applyFlags(cmd, plan)

	params, err := plan.Parameters()
	if err != nil {
		return err
	}

	basis, err := indicators.ParseYieldBasis(firstNonEmpty(plan.YieldBasis, opts.basis))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	source := api.RateSourceRequest
	if !plan.HasRate() {
		log := rootOpts.newLogger(cmd.ErrOrStderr())
		svc := indicators.NewService(bcb.NewClient(opts.baseURL, config.DefaultHTTPTimeout, log), nil, log)
		snap, err := svc.Current(ctx)
		if err != nil {
			return fmt.Errorf("no rate given and live indicators failed: %w", err)
		}
		params.AnnualRealRate = snap.Rate(basis)
		source = api.RateSourceIndicators
	}

	result, err := planning.Project(ctx, params)
	if err != nil {
		return err
	}

	resp := api.NewProjectionResponse(result, params.AnnualRealRate, basis, source)
	if rootOpts.JSON {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	return writeProjectionText(cmd.OutOrStdout(), resp)
}

// applyFlags copies explicitly set flags over the plan file values.
func (o *projectOptions) applyFlags(cmd *cobra.Command, plan *PlanFile) {
	f := cmd.Flags()
	if f.Changed("initial") {
		plan.InitialBalance = &o.initial
	}
	if f.Changed("monthly") {
		plan.MonthlyContribution = &o.monthly
	}
	if f.Changed("gap") {
		plan.NonContributionMonthsPerYear = &o.gap
	}
	if f.Changed("target") {
		plan.TargetBalance = &o.target
	}
	if f.Changed("rate") {
		plan.AnnualRealRate = &o.rate
	}
	if f.Changed("basis") {
		plan.YieldBasis = o.basis
	}
}

func writeProjectionText(w io.Writer, resp api.ProjectionResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tStart\tContributions\tInterest\tEnd\t")
	for _, s := range resp.YearlySummaries {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			s.Year, s.BalanceAtYearStart, s.ContributionsInYear, s.InterestEarnedInYear, s.BalanceAtYearEnd)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	source := resp.RateSource
	if resp.YieldBasis != "" {
		source = resp.YieldBasis + ", " + source
	}
	_, err := fmt.Fprintf(w, "\nReal rate:      %.4f%% (%s)\nMonths to goal: %d\nYears to goal:  %.1f\nFinal balance:  %.2f\n",
		planning.FractionToPercent(resp.AnnualRealRate), source,
		resp.MonthsToGoal, resp.YearsToGoal, resp.FinalBalance)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
