package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cpamm/internal/service"
)

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Add liquidity and mint shares",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := poolFlag(cmd)
			if err != nil {
				return err
			}
			provider, err := addressFlag(cmd, "provider")
			if err != nil {
				return err
			}
			shares, err := uint64Flag(cmd, "shares")
			if err != nil {
				return err
			}
			maxX, err := uint64Flag(cmd, "max-x")
			if err != nil {
				return err
			}
			maxY, err := uint64Flag(cmd, "max-y")
			if err != nil {
				return err
			}
			bootstrap, err := cmd.Flags().GetBool("bootstrap")
			if err != nil {
				return fmt.Errorf("read --bootstrap: %w", err)
			}

			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				return svc.Deposit(ctx, service.DepositRequest{
					Pool:      pool,
					Provider:  provider,
					Shares:    shares,
					MaxX:      maxX,
					MaxY:      maxY,
					Bootstrap: bootstrap,
				})
			})
		},
	}
	addPoolFlags(cmd)
	cmd.Flags().String("provider", "", "liquidity provider address")
	cmd.Flags().Uint64("shares", 0, "shares to mint (minimum shares for a bootstrap deposit)")
	cmd.Flags().Uint64("max-x", 0, "maximum token X to pay (exact amount for a bootstrap deposit)")
	cmd.Flags().Uint64("max-y", 0, "maximum token Y to pay (exact amount for a bootstrap deposit)")
	cmd.Flags().Bool("bootstrap", false, "seed an empty pool")
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn shares for a slice of both reserves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := poolFlag(cmd)
			if err != nil {
				return err
			}
			provider, err := addressFlag(cmd, "provider")
			if err != nil {
				return err
			}
			shares, err := uint64Flag(cmd, "shares")
			if err != nil {
				return err
			}
			minX, err := uint64Flag(cmd, "min-x")
			if err != nil {
				return err
			}
			minY, err := uint64Flag(cmd, "min-y")
			if err != nil {
				return err
			}

			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				return svc.Withdraw(ctx, service.WithdrawRequest{
					Pool:     pool,
					Provider: provider,
					Shares:   shares,
					MinX:     minX,
					MinY:     minY,
				})
			})
		},
	}
	addPoolFlags(cmd)
	cmd.Flags().String("provider", "", "liquidity provider address")
	cmd.Flags().Uint64("shares", 0, "shares to burn")
	cmd.Flags().Uint64("min-x", 0, "minimum token X to receive")
	cmd.Flags().Uint64("min-y", 0, "minimum token Y to receive")
	return cmd
}
