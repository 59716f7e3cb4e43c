package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/warp/goal-planner/api"
	"github.com/warp/goal-planner/planning"
)

// NewYieldCommand creates the yield command.
func NewYieldCommand(rootOpts *RootOptions) *cobra.Command {
	var nominal, inflation float64

	cmd := &cobra.Command{
		Use:     "yield",
		Short:   "Compute real and net real yield",
		Example: "  planner yield --nominal 0.105 --inflation 0.0468",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for name, v := range map[string]float64{"nominal": nominal, "inflation": inflation} {
				if math.IsNaN(v) || math.IsInf(v, 0) || v <= -1 {
					return fmt.Errorf("--%s must be a finite rate greater than -1", name)
				}
			}

			dto := api.YieldDTO{
				Nominal:      nominal,
				Inflation:    inflation,
				RealYield:    planning.RealYield(nominal, inflation),
				NetRealYield: planning.NetRealYield(nominal, inflation),
				NetNominal:   planning.NetNominal(nominal),
			}
			if rootOpts.JSON {
				return writeJSON(cmd.OutOrStdout(), dto)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(),
				"Nominal:        %.4f%%\nInflation:      %.4f%%\nReal yield:     %.4f%%\nNet nominal:    %.4f%%\nNet real yield: %.4f%%\n",
				planning.FractionToPercent(dto.Nominal), planning.FractionToPercent(dto.Inflation),
				planning.FractionToPercent(dto.RealYield), planning.FractionToPercent(dto.NetNominal),
				planning.FractionToPercent(dto.NetRealYield))
			return err
		},
	}

	cmd.Flags().Float64Var(&nominal, "nominal", 0, "nominal annual rate as a fraction")
	cmd.Flags().Float64Var(&inflation, "inflation", 0, "annual inflation as a fraction")
	_ = cmd.MarkFlagRequired("nominal")
	_ = cmd.MarkFlagRequired("inflation")

	return cmd
}
