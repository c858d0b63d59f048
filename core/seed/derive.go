// Package seed derives deterministic, collision-resistant seeds and keeps
// the audit trail of every generation and replay-validation event.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Environment tags which deployment tier a seed belongs to.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvTest Environment = "test"
	EnvProd Environment = "prod"
)

// InvalidEnvironmentError rejects unrecognized environment tags.
type InvalidEnvironmentError struct {
	Tag string
}

func (e *InvalidEnvironmentError) Error() string {
	return fmt.Sprintf("invalid environment %q (want dev|test|prod)", e.Tag)
}

// ParseEnvironment validates an environment tag.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvDev, EnvTest, EnvProd:
		return Environment(s), nil
	default:
		return "", &InvalidEnvironmentError{Tag: s}
	}
}

// deriveDomain separates this construction from any other SHA-256 use.
const deriveDomain = "quasim-seed-v1"

// Derive computes the deterministic derived seed:
// the first 8 bytes (big-endian) of
// SHA-256(domain ∥ base_be64 ∥ batch_be32 ∥ environment).
// The reduction from the 256-bit digest to the PRNG's 64-bit seed width is
// a straight truncation; the digest prefix is uniformly distributed, so
// truncation preserves collision resistance at the 64-bit level.
func Derive(base uint64, batch uint32, env Environment) uint64 {
	var buf [len(deriveDomain) + 8 + 4]byte
	copy(buf[:], deriveDomain)
	binary.BigEndian.PutUint64(buf[len(deriveDomain):], base)
	binary.BigEndian.PutUint32(buf[len(deriveDomain)+8:], batch)
	h := sha256.New()
	h.Write(buf[:])
	h.Write([]byte(env))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}
