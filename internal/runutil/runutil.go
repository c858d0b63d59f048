// internal/runutil/runutil.go
package runutil

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// EffectiveWorkers maps the CLI thread count to a usable worker count.
// Zero means all CPUs.
func EffectiveWorkers(threads int) int {
	if threads > 0 {
		return threads
	}
	return runtime.NumCPU()
}

// ParseByteSize parses a human-readable size like "256MiB" or "1GiB".
// A bare number is bytes; an empty string is 0 (caller default).
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	mult := int64(1)
	for _, suf := range []struct {
		name string
		mul  int64
	}{
		{"GiB", 1 << 30}, {"MiB", 1 << 20}, {"KiB", 1 << 10},
		{"G", 1 << 30}, {"M", 1 << 20}, {"K", 1 << 10}, {"B", 1},
	} {
		if strings.HasSuffix(s, suf.name) {
			mult = suf.mul
			s = strings.TrimSuffix(s, suf.name)
			break
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("size must be ≥ 0, got %d", n)
	}
	return n * mult, nil
}
