package seating

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
)

// SourceFactory returns the random source for one simulation run.
// Runs are numbered from 0; a factory may be called from several goroutines.
type SourceFactory func(run int) (Source, error)

// NewCryptoSource returns a ChaCha8 generator keyed from crypto/rand.
// Its output cannot be reproduced.
func NewCryptoSource() (*rand.Rand, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("reading random seed: %w", err)
	}
	return rand.New(rand.NewChaCha8(seed)), nil
}

// NewSeededSource returns a deterministic PCG generator. Distinct streams
// with the same seed produce independent sequences.
func NewSeededSource(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// CryptoSources gives every run its own crypto-keyed generator.
func CryptoSources() SourceFactory {
	return func(int) (Source, error) {
		return NewCryptoSource()
	}
}

// SeededSources gives run i the PCG stream (seed, i), so results do not depend
// on which worker executes which run.
func SeededSources(seed uint64) SourceFactory {
	return func(run int) (Source, error) {
		return NewSeededSource(seed, uint64(run)), nil
	}
}
