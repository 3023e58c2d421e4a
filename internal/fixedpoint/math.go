package fixedpoint

import (
	"errors"
	"math"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when a result does not fit in 64 bits.
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrDivideByZero is returned when a denominator is zero.
	ErrDivideByZero = errors.New("divide by zero")
)

// Rounding selects the direction of an integer division.
type Rounding uint8

const (
	RoundDown Rounding = iota
	RoundUp
)

func (r Rounding) String() string {
	if r == RoundUp {
		return "up"
	}
	return "down"
}

// MulDiv returns a*b/denom computed with a 256-bit intermediate.
func MulDiv(a, b, denom uint64, rounding Rounding) (uint64, error) {
	if denom == 0 {
		return 0, ErrDivideByZero
	}

	x := uint256.NewInt(a)
	y := uint256.NewInt(b)
	d := uint256.NewInt(denom)

	q, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return 0, ErrOverflow
	}

	if rounding == RoundUp {
		product := new(uint256.Int).Mul(x, y)
		rem := new(uint256.Int).Mod(product, d)
		if !rem.IsZero() {
			q.AddUint64(q, 1)
		}
	}

	if !q.IsUint64() {
		return 0, ErrOverflow
	}
	return q.Uint64(), nil
}

// Isqrt returns floor(sqrt(n)). The result is only guaranteed to fit in
// 64 bits when n < 2^128.
func Isqrt(n *uint256.Int) (uint64, error) {
	if n == nil || n.IsZero() {
		return 0, nil
	}

	// Newton iteration seeded above the root; x_{k+1} = (x_k + n/x_k) / 2
	// decreases monotonically until it reaches floor(sqrt(n)).
	x := new(uint256.Int).Lsh(uint256.NewInt(1), uint((n.BitLen()+1)/2))
	y := new(uint256.Int)
	for {
		y.Div(n, x)
		y.Add(y, x)
		y.Rsh(y, 1)
		if !y.Lt(x) {
			break
		}
		x.Set(y)
	}

	if !x.IsUint64() {
		return 0, ErrOverflow
	}
	return x.Uint64(), nil
}

// IsqrtProduct returns floor(sqrt(a*b)) without overflowing.
func IsqrtProduct(a, b uint64) uint64 {
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	// a*b < 2^128, so the root always fits in 64 bits.
	root, _ := Isqrt(product)
	return root
}

// Product returns a*b as a 256-bit value.
func Product(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
}

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub returns a-b or ErrOverflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	result := a * b
	if result/a != b {
		return 0, ErrOverflow
	}
	return result, nil
}
