package precision

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"fp8", "fp16", "fp32", "fp64"} {
		m, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if m.String() != s {
			t.Fatalf("round-trip %q -> %q", s, m)
		}
	}
	if _, err := Parse("fp128"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestFP64Identity(t *testing.T) {
	for _, v := range []float64{0, 1, -1, 0.1, 1e-300, 1e300, math.Pi} {
		if got := FP64.Quantize(v); got != v {
			t.Fatalf("fp64 quantize changed %g to %g", v, got)
		}
	}
}

func TestRelativeErrorPerTier(t *testing.T) {
	cases := []struct {
		mode   Mode
		maxRel float64
	}{
		{FP32, 1e-6},
		{FP16, 1e-3},
	}
	values := []float64{0.1, 0.25, 0.7071067811865476, 1.0, 3.141592653589793, 100.0, -42.5}
	for _, tc := range cases {
		for _, v := range values {
			got := tc.mode.Quantize(v)
			rel := math.Abs(got-v) / math.Abs(v)
			if rel > tc.maxRel {
				t.Errorf("%s: quantize(%g)=%g rel err %g > %g", tc.mode, v, got, rel, tc.maxRel)
			}
		}
	}
}

func TestErrorBoundMonotone(t *testing.T) {
	if !(FP64.ErrorBound() < FP32.ErrorBound() && FP32.ErrorBound() < FP16.ErrorBound()) {
		t.Fatal("error bounds not monotone")
	}
	if !math.IsInf(FP8.ErrorBound(), 1) {
		t.Fatal("fp8 should carry no tight bound")
	}
}

func TestE4M3(t *testing.T) {
	// Exactly representable values survive.
	for _, v := range []float64{0, 1, -1, 0.5, 2, 448, -448, 0.015625} {
		if got := FP8.Quantize(v); got != v {
			t.Errorf("fp8 quantize(%g) = %g, want exact", v, got)
		}
	}
	// Saturation, not Inf.
	if got := FP8.Quantize(1e6); got != 448 {
		t.Errorf("fp8 quantize(1e6) = %g, want 448", got)
	}
	if got := FP8.Quantize(-1e6); got != -448 {
		t.Errorf("fp8 quantize(-1e6) = %g, want -448", got)
	}
	// Underflow flushes to zero.
	if got := FP8.Quantize(1e-8); got != 0 {
		t.Errorf("fp8 quantize(1e-8) = %g, want 0", got)
	}
	// Never fabricates NaN/Inf from finite input.
	for _, v := range []float64{0.3, 7.7, 300, 1e-3} {
		got := FP8.Quantize(v)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("fp8 quantize(%g) produced %g", v, got)
		}
		// Within one coarse step (E4M3 mantissa is 3 bits: ~6% relative).
		if v >= e4m3MinNormal && math.Abs(got-v)/v > 0.0625 {
			t.Errorf("fp8 quantize(%g) = %g drifted beyond one ulp", v, got)
		}
	}
	// NaN/Inf pass through for downstream stability detection.
	if !math.IsNaN(FP8.Quantize(math.NaN())) {
		t.Error("NaN should pass through")
	}
	if !math.IsInf(FP8.Quantize(math.Inf(1)), 1) {
		t.Error("Inf should pass through")
	}
}

func TestQuantizeState(t *testing.T) {
	state := []complex128{complex(0.70003, -0.70003), complex(0.1, 0)}
	FP16.QuantizeState(state)
	for i, v := range state {
		if math.Abs(real(v)) > 1 || math.IsNaN(real(v)) || math.IsNaN(imag(v)) {
			t.Fatalf("state[%d] malformed after quantize: %v", i, v)
		}
	}
}
