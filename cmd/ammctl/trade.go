package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cpamm/internal/amm"
	"cpamm/internal/service"
)

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Trade one token for the other",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := poolFlag(cmd)
			if err != nil {
				return err
			}
			trader, err := addressFlag(cmd, "trader")
			if err != nil {
				return err
			}
			side, err := sideFlag(cmd)
			if err != nil {
				return err
			}
			amountIn, err := uint64Flag(cmd, "amount-in")
			if err != nil {
				return err
			}
			minOut, err := uint64Flag(cmd, "min-out")
			if err != nil {
				return err
			}

			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				return svc.Swap(ctx, service.SwapRequest{
					Pool:     pool,
					Trader:   trader,
					Side:     side,
					AmountIn: amountIn,
					MinOut:   minOut,
				})
			})
		},
	}
	addPoolFlags(cmd)
	cmd.Flags().String("trader", "", "trader address")
	cmd.Flags().String("side", "x", "token paid in (x or y)")
	cmd.Flags().Uint64("amount-in", 0, "amount paid in")
	cmd.Flags().Uint64("min-out", 0, "minimum amount to receive")
	return cmd
}

type inputQuote struct {
	Side      amm.Side `json:"side"`
	AmountOut uint64   `json:"amount_out"`
	AmountIn  uint64   `json:"amount_in"`
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview a swap without committing it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := poolFlag(cmd)
			if err != nil {
				return err
			}
			side, err := sideFlag(cmd)
			if err != nil {
				return err
			}
			amountIn, err := uint64Flag(cmd, "amount-in")
			if err != nil {
				return err
			}
			amountOut, err := uint64Flag(cmd, "amount-out")
			if err != nil {
				return err
			}
			if (amountIn == 0) == (amountOut == 0) {
				return fmt.Errorf("exactly one of --amount-in or --amount-out is required")
			}

			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				if amountIn != 0 {
					return svc.QuoteSwap(ctx, pool, side, amountIn)
				}
				in, err := svc.QuoteIn(ctx, pool, side, amountOut)
				if err != nil {
					return nil, err
				}
				return inputQuote{Side: side, AmountOut: amountOut, AmountIn: in}, nil
			})
		},
	}
	addPoolFlags(cmd)
	cmd.Flags().String("side", "x", "token paid in (x or y)")
	cmd.Flags().Uint64("amount-in", 0, "amount paid in")
	cmd.Flags().Uint64("amount-out", 0, "amount wanted out")
	return cmd
}

func sideFlag(cmd *cobra.Command) (amm.Side, error) {
	raw, _ := cmd.Flags().GetString("side")
	return amm.ParseSide(raw)
}
