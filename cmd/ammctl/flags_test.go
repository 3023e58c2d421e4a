package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"cpamm/internal/identity"
)

func TestUint64FlagReportsMissingFlag(t *testing.T) {
	cmd := newSwapCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--amount-in", "100"}))

	v, err := uint64Flag(cmd, "amount-in")
	require.NoError(t, err)
	require.Equal(t, uint64(100), v)

	_, err = uint64Flag(cmd, "max-x")
	require.ErrorContains(t, err, "--max-x")

	wrongType := &cobra.Command{Use: "t"}
	wrongType.Flags().String("shares", "", "")
	_, err = uint64Flag(wrongType, "shares")
	require.Error(t, err)
}

func TestPoolFlagFallsBackToSeed(t *testing.T) {
	cmd := newDepositCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--seed", "7"}))
	pool, err := poolFlag(cmd)
	require.NoError(t, err)
	require.Equal(t, identity.PoolAddress(7), pool)

	empty := newDepositCmd()
	_, err = poolFlag(empty)
	require.Error(t, err)
}

func TestDepositRejectsUnregisteredFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "deposit", RunE: newDepositCmd().RunE}
	addPoolFlags(cmd)
	cmd.Flags().String("provider", "", "")
	cmd.SetArgs([]string{"--seed", "1", "--provider", "0x1111111111111111111111111111111111111111"})

	err := cmd.Execute()
	require.ErrorContains(t, err, "--shares")
}
