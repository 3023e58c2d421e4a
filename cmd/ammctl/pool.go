package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"cpamm/internal/identity"
	"cpamm/internal/service"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := uint64Flag(cmd, "seed")
			if err != nil {
				return err
			}
			fee, err := cmd.Flags().GetUint16("fee-bps")
			if err != nil {
				return fmt.Errorf("read --fee-bps: %w", err)
			}
			protocolFee, err := cmd.Flags().GetUint16("protocol-fee-bps")
			if err != nil {
				return fmt.Errorf("read --protocol-fee-bps: %w", err)
			}
			authRaw, _ := cmd.Flags().GetString("authority")

			authority, err := identity.ParseOptionalAddress(authRaw)
			if err != nil {
				return err
			}
			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				return svc.InitPool(ctx, service.InitRequest{
					Seed:           seed,
					FeeBps:         fee,
					ProtocolFeeBps: protocolFee,
					Authority:      authority,
				})
			})
		},
	}
	cmd.Flags().Uint64("seed", 0, "pool seed")
	cmd.Flags().Uint16("fee-bps", 30, "swap fee in basis points")
	cmd.Flags().Uint16("protocol-fee-bps", 0, "share of the swap fee kept for the authority, in basis points")
	cmd.Flags().String("authority", "", "authority address (empty for none)")
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a pool snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := poolFlag(cmd)
			if err != nil {
				return err
			}
			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				return svc.Pool(ctx, pool)
			})
		},
	}
	addPoolFlags(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored pools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				return svc.Pools(ctx)
			})
		},
	}
}

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Print the shares an owner holds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := poolFlag(cmd)
			if err != nil {
				return err
			}
			owner, err := addressFlag(cmd, "owner")
			if err != nil {
				return err
			}
			return runWithService(cmd, func(ctx context.Context, svc *service.Service) (interface{}, error) {
				return svc.Position(ctx, pool, owner)
			})
		},
	}
	addPoolFlags(cmd)
	cmd.Flags().String("owner", "", "owner address")
	return cmd
}

func newAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Derive the pool and share-mint addresses for a seed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := uint64Flag(cmd, "seed")
			if err != nil {
				return err
			}
			pool := identity.PoolAddress(seed)
			return printJSON(map[string]string{
				"pool":    pool.Hex(),
				"lp_mint": identity.LPMintAddress(pool).Hex(),
			})
		},
	}
	cmd.Flags().Uint64("seed", 0, "pool seed")
	return cmd
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().Uint64("seed", 0, "pool seed, used when --pool is empty")
}

// poolFlag resolves --pool, falling back to the address derived from --seed.
func poolFlag(cmd *cobra.Command) (common.Address, error) {
	raw, _ := cmd.Flags().GetString("pool")
	if raw != "" {
		return identity.ParseAddress(raw)
	}
	if !cmd.Flags().Changed("seed") {
		return common.Address{}, fmt.Errorf("--pool or --seed is required")
	}
	seed, err := uint64Flag(cmd, "seed")
	if err != nil {
		return common.Address{}, err
	}
	return identity.PoolAddress(seed), nil
}

// uint64Flag reads a uint64 flag, naming the flag in the error.
func uint64Flag(cmd *cobra.Command, name string) (uint64, error) {
	v, err := cmd.Flags().GetUint64(name)
	if err != nil {
		return 0, fmt.Errorf("read --%s: %w", name, err)
	}
	return v, nil
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return common.Address{}, fmt.Errorf("--%s is required", name)
	}
	return identity.ParseAddress(raw)
}
