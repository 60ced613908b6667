// Package ident generates human-shareable complaint identifiers.
package ident

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet excludes visually ambiguous glyphs (0/O, 1/I/L-lookalikes) so IDs
// survive being read over the phone or copied by hand.
const Alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	Prefix   = "CMP-"
	IDLength = 8 // ~41 bits of entropy; the ID doubles as the access secret
)

// GenerateComplaintID returns a new identifier of the form CMP-XXXXXXXX.
// Uniqueness is probabilistic; the insert path retries once on conflict.
func GenerateComplaintID() (string, error) {
	var b strings.Builder
	b.WriteString(Prefix)

	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < IDLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate complaint id: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}

	return b.String(), nil
}

// IsValidComplaintID reports whether id has the CMP- prefix and a body drawn
// entirely from the restricted alphabet.
func IsValidComplaintID(id string) bool {
	if len(id) != len(Prefix)+IDLength || !strings.HasPrefix(id, Prefix) {
		return false
	}
	for _, r := range id[len(Prefix):] {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
