package main

import (
	"context"

	"github.com/spf13/cobra"

	"cpamm/internal/service"
)

func newLockCmd(locked bool) *cobra.Command {
	use, short := "lock", "Halt trading on a pool"
	if !locked {
		use, short = "unlock", "Resume trading on a pool"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := poolFlag(cmd)
			if err != nil {
				return err
			}
			caller, err := addressFlag(cmd, "caller")
			if err != nil {
				return err
			}
			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				return svc.SetLock(ctx, pool, caller, locked)
			})
		},
	}
	addPoolFlags(cmd)
	cmd.Flags().String("caller", "", "pool authority address")
	return cmd
}

func newCollectFeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect-fees",
		Short: "Pay accrued protocol fees to the authority",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := poolFlag(cmd)
			if err != nil {
				return err
			}
			caller, err := addressFlag(cmd, "caller")
			if err != nil {
				return err
			}
			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				return svc.CollectProtocolFees(ctx, pool, caller)
			})
		},
	}
	addPoolFlags(cmd)
	cmd.Flags().String("caller", "", "pool authority address")
	return cmd
}
