// Package precision implements the four numeric tiers a kernel can run at.
//
// fp64 is the reference tier; the lower tiers are simulated by rounding
// every intermediate value through the smaller representation after each
// operation. fp8 uses a software E4M3 format (4 exponent bits, 3 mantissa
// bits, round-to-nearest-even); no Go library for fp8 exists, so the
// reduction is done by hand.
package precision

import (
	"fmt"
	"math"

	"github.com/x448/float16"
)

// Mode selects the internal floating-point representation.
type Mode uint8

const (
	FP8 Mode = iota
	FP16
	FP32
	FP64
)

func (m Mode) String() string {
	switch m {
	case FP8:
		return "fp8"
	case FP16:
		return "fp16"
	case FP32:
		return "fp32"
	case FP64:
		return "fp64"
	default:
		return fmt.Sprintf("precision(%d)", uint8(m))
	}
}

// Parse maps the textual tier name to a Mode.
func Parse(s string) (Mode, error) {
	switch s {
	case "fp8":
		return FP8, nil
	case "fp16":
		return FP16, nil
	case "fp32":
		return FP32, nil
	case "fp64":
		return FP64, nil
	default:
		return FP64, fmt.Errorf("invalid precision %q (want fp8|fp16|fp32|fp64)", s)
	}
}

// ErrorBound is the contract bound on relative error against the fp64
// reference. fp8 is a best-effort tier with no tight bound.
func (m Mode) ErrorBound() float64 {
	switch m {
	case FP64:
		return 1e-10
	case FP32:
		return 1e-6
	case FP16:
		return 1e-3
	default:
		return math.Inf(1)
	}
}

// Quantize rounds v through the tier's representation.
func (m Mode) Quantize(v float64) float64 {
	switch m {
	case FP64:
		return v
	case FP32:
		return float64(float32(v))
	case FP16:
		return float64(float16.Fromfloat32(float32(v)).Float32())
	default:
		return quantizeE4M3(v)
	}
}

// QuantizeComplex rounds real and imaginary parts element-wise.
func (m Mode) QuantizeComplex(v complex128) complex128 {
	if m == FP64 {
		return v
	}
	return complex(m.Quantize(real(v)), m.Quantize(imag(v)))
}

// QuantizeState rounds a statevector in place and returns it.
func (m Mode) QuantizeState(state []complex128) []complex128 {
	if m == FP64 {
		return state
	}
	for i, v := range state {
		state[i] = complex(m.Quantize(real(v)), m.Quantize(imag(v)))
	}
	return state
}

// E4M3 constants: exponent bias 7, 3 mantissa bits. Largest finite value
// in the OCP E4M3 encoding is 448; smallest positive normal 2^-6.
const (
	e4m3Max       = 448.0
	e4m3MinNormal = 0.015625 // 2^-6
	e4m3MinSub    = 0.001953125
)

// quantizeE4M3 rounds to the nearest representable E4M3 value
// (round-to-nearest-even), saturating at ±448. Inputs below the smallest
// subnormal flush to zero; NaN/Inf pass through so instability detection
// downstream still sees them.
func quantizeE4M3(v float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	sign := 1.0
	if v < 0 {
		sign, v = -1, -v
	}
	if v > e4m3Max {
		return sign * e4m3Max
	}
	if v < e4m3MinSub/2 {
		return 0
	}
	// Scale so the mantissa LSB has weight 1, round half-to-even, rescale.
	exp := math.Floor(math.Log2(v))
	if v < e4m3MinNormal {
		exp = -6 // subnormal range shares the minimum exponent
	}
	ulp := math.Ldexp(1, int(exp)-3)
	return sign * math.RoundToEven(v/ulp) * ulp
}
