package pretty

import (
	"fmt"
	"math"
	"strings"
)

// Options control the ASCII histogram rendering.
type Options struct {
	// Number of fidelity bins. If <=0, use default (10).
	Bins int
	// Bar width cap in glyphs for the fullest bin. If <=0, use default (40).
	Width int

	BarGlyph string // default "#"
}

// DefaultOptions keeps the standard evidence-report look.
var DefaultOptions = Options{
	Bins:     10,
	Width:    40,
	BarGlyph: "#",
}

const linePrefix = "# "

// RenderHistogram returns a comment-prefixed fidelity histogram block so
// the surrounding TSV stays machine-parseable. Empty input renders an
// empty string.
func RenderHistogram(fids []float64, opt Options) string {
	if len(fids) == 0 {
		return ""
	}
	if opt.Bins <= 0 {
		opt.Bins = DefaultOptions.Bins
	}
	if opt.Width <= 0 {
		opt.Width = DefaultOptions.Width
	}
	if opt.BarGlyph == "" {
		opt.BarGlyph = DefaultOptions.BarGlyph
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, f := range fids {
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	span := hi - lo
	if span == 0 {
		// Degenerate distribution: everything in one bin.
		span = 1
	}

	counts := make([]int, opt.Bins)
	for _, f := range fids {
		b := int(float64(opt.Bins) * (f - lo) / span)
		if b >= opt.Bins {
			b = opt.Bins - 1
		}
		counts[b]++
	}
	peak := 0
	for _, c := range counts {
		if c > peak {
			peak = c
		}
	}

	var sb strings.Builder
	sb.WriteString(linePrefix + "fidelity distribution\n")
	for i, c := range counts {
		binLo := lo + span*float64(i)/float64(opt.Bins)
		binHi := lo + span*float64(i+1)/float64(opt.Bins)
		bar := ""
		if peak > 0 {
			bar = strings.Repeat(opt.BarGlyph, c*opt.Width/peak)
		}
		fmt.Fprintf(&sb, "%s[%.6f, %.6f) %6d %s\n", linePrefix, binLo, binHi, c, bar)
	}
	return sb.String()
}
