package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/goal-planner/api"
	"github.com/warp/goal-planner/bcb"
	"github.com/warp/goal-planner/config"
	"github.com/warp/goal-planner/indicators"
	"github.com/warp/goal-planner/planning"
)

// NewIndicatorsCommand creates the indicators command.
func NewIndicatorsCommand(rootOpts *RootOptions) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "indicators",
		Short: "Fetch the latest Selic and IPCA from the central bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := rootOpts.newLogger(cmd.ErrOrStderr())
			svc := indicators.NewService(bcb.NewClient(baseURL, config.DefaultHTTPTimeout, log), nil, log)

			snap, _, err := svc.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			if rootOpts.JSON {
				return writeJSON(cmd.OutOrStdout(), api.NewIndicatorsDTO(*snap))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"Selic:          %.2f%% (%s)\nIPCA 12m:       %.2f%% (%s)\nReal yield:     %.4f%%\nNet real yield: %.4f%%\n",
				planning.FractionToPercent(snap.Selic), snap.SelicReferenceDate.Format("2006-01-02"),
				planning.FractionToPercent(snap.IPCA), snap.IPCAReferenceDate.Format("2006-01-02"),
				planning.FractionToPercent(snap.RealYield), planning.FractionToPercent(snap.NetRealYield))
			return err
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", config.DefaultBCBBaseURL, "central bank SGS API root")

	return cmd
}
