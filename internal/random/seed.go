// Package random provides seed generation for unseeded rolls.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ResolveSeed returns *seed when set, otherwise a fresh seed. The second
// result reports whether the seed was generated.
func ResolveSeed(seed *int64) (int64, bool, error) {
	if seed != nil {
		return *seed, false, nil
	}
	generated, err := NewSeed()
	if err != nil {
		return 0, false, err
	}
	return generated, true, nil
}
