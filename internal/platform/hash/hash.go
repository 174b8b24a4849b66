// Package hash provides the hash function shared with clients and the random password generator.
package hash

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

const (
	AlgorithmMD5  = "md5"
	AlgorithmSHA3 = "sha3-256"
)

// Hasher hashes strings into lowercase hex digests.
// Clients compute the same digests for hashed emails and passwords, so the algorithm is
// part of the wire contract and not a security boundary of this service.
type Hasher struct {
	algorithm string
	sum       func([]byte) []byte
}

// New returns a Hasher for the named algorithm.
func New(algorithm string) (*Hasher, error) {
	switch algorithm {
	case AlgorithmMD5:
		return &Hasher{algorithm: algorithm, sum: func(b []byte) []byte {
			s := md5.Sum(b)
			return s[:]
		}}, nil
	case AlgorithmSHA3:
		return &Hasher{algorithm: algorithm, sum: func(b []byte) []byte {
			s := sha3.Sum256(b)
			return s[:]
		}}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// Hash returns the hex digest of value.
func (h *Hasher) Hash(value string) string {
	return hex.EncodeToString(h.sum([]byte(value)))
}

// Length returns the length of the digests produced by Hash.
func (h *Hasher) Length() int {
	return len(h.Hash(""))
}

// Algorithm returns the algorithm name.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// PasswordGenerator produces random hashed passwords for users registered without one.
type PasswordGenerator struct {
	hasher *Hasher
}

// NewPasswordGenerator returns a generator whose output has the length of hasher digests.
func NewPasswordGenerator(hasher *Hasher) *PasswordGenerator {
	return &PasswordGenerator{hasher: hasher}
}

// Generate returns the hash of a random version 4 UUID.
func (g *PasswordGenerator) Generate() string {
	return g.hasher.Hash(uuid.NewString())
}
