package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Generator mints opaque ids for externally referenced records such as
// trade offers.
type Generator interface {
	NewID() (string, error)
}

// RandomGenerator produces 32-character hex ids from crypto/rand.
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id entropy: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
