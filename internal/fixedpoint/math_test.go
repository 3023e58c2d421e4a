package fixedpoint

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name     string
		a, b, d  uint64
		rounding Rounding
		want     uint64
		wantErr  error
	}{
		{name: "exact", a: 100, b: 1500, d: 1500, rounding: RoundUp, want: 100},
		{name: "round up", a: 100, b: 1500, d: 1414, rounding: RoundUp, want: 107},
		{name: "round down", a: 100, b: 1500, d: 1414, rounding: RoundDown, want: 106},
		{name: "round up y", a: 100, b: 3000, d: 1414, rounding: RoundUp, want: 213},
		{name: "swap output", a: 1000, b: 2000, d: 1097, rounding: RoundDown, want: 1823},
		{name: "wide intermediate", a: math.MaxUint64, b: math.MaxUint64, d: math.MaxUint64, rounding: RoundDown, want: math.MaxUint64},
		{name: "result overflow", a: math.MaxUint64, b: 2, d: 1, rounding: RoundDown, wantErr: ErrOverflow},
		{name: "round up overflow", a: math.MaxUint64, b: math.MaxUint64, d: math.MaxUint64 - 1, rounding: RoundUp, wantErr: ErrOverflow},
		{name: "zero denominator", a: 1, b: 1, d: 0, rounding: RoundDown, wantErr: ErrDivideByZero},
		{name: "zero numerator", a: 0, b: 7, d: 3, rounding: RoundUp, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MulDiv(tc.a, tc.b, tc.d, tc.rounding)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestIsqrtKnownValues(t *testing.T) {
	cases := map[uint64]uint64{
		0:         0,
		1:         1,
		2:         1,
		3:         1,
		4:         2,
		15:        3,
		16:        4,
		2_000_000: 1414,
	}
	for n, want := range cases {
		got, err := Isqrt(uint256.NewInt(n))
		require.NoError(t, err)
		require.Equalf(t, want, got, "isqrt(%d)", n)
	}

	require.Equal(t, uint64(1414), IsqrtProduct(1000, 2000))
	require.Equal(t, uint64(math.MaxUint64), IsqrtProduct(math.MaxUint64, math.MaxUint64))
}

func TestIsqrtLargeInputOverflows(t *testing.T) {
	n := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	_, err := Isqrt(n)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestIsqrtBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64().Draw(t, "a")
		b := rapid.Uint64().Draw(t, "b")
		n := Product(a, b)

		root := IsqrtProduct(a, b)
		r := uint256.NewInt(root)
		sq := new(uint256.Int).Mul(r, r)
		if sq.Gt(n) {
			t.Fatalf("isqrt(%s)=%d squared exceeds n", n, root)
		}
		next := new(uint256.Int).AddUint64(r, 1)
		nextSq := new(uint256.Int).Mul(next, next)
		if !n.Lt(nextSq) {
			t.Fatalf("isqrt(%s)=%d is not the floor root", n, root)
		}
	})
}

func TestMulDivRoundingGap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64Range(0, math.MaxUint32).Draw(t, "a")
		b := rapid.Uint64Range(0, math.MaxUint32).Draw(t, "b")
		d := rapid.Uint64Range(1, math.MaxUint32).Draw(t, "d")

		down, err := MulDiv(a, b, d, RoundDown)
		if err != nil {
			t.Fatalf("round down: %v", err)
		}
		up, err := MulDiv(a, b, d, RoundUp)
		if err != nil {
			t.Fatalf("round up: %v", err)
		}
		if (a*b)%d == 0 {
			if up != down {
				t.Fatalf("exact division rounded differently: %d != %d", up, down)
			}
		} else if up != down+1 {
			t.Fatalf("round up %d is not round down %d + 1", up, down)
		}
	})
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := Add(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrOverflow)
	sum, err := Add(2, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(5), sum)

	_, err = Sub(1, 2)
	require.ErrorIs(t, err, ErrOverflow)
	diff, err := Sub(5, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(3), diff)

	_, err = Mul(math.MaxUint64, 2)
	require.ErrorIs(t, err, ErrOverflow)
	prod, err := Mul(0, math.MaxUint64)
	require.NoError(t, err)
	require.Zero(t, prod)
}
