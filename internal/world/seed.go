package world

import (
	"encoding/binary"
	"math/rand/v2"

	"golang.org/x/crypto/blake2b"
)

// SeedFromPhrase hashes a seed phrase into the two PCG seed words. The same
// phrase always yields the same simulation.
func SeedFromPhrase(phrase string) (uint64, uint64) {
	sum := blake2b.Sum256([]byte(phrase))
	return binary.LittleEndian.Uint64(sum[0:8]), binary.LittleEndian.Uint64(sum[8:16])
}

// NewRNG returns the deterministic simulation RNG for a seed phrase.
func NewRNG(phrase string) *rand.Rand {
	s1, s2 := SeedFromPhrase(phrase)
	return rand.New(rand.NewPCG(s1, s2))
}
