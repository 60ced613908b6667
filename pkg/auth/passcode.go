package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPasscode derives the stored credential for an anonymous tracking
// passcode: SHA-256 of the plaintext as lowercase hex. The passcode is a
// secondary factor behind the high-entropy complaint ID, so it is stored
// unsalted and deterministically; it is not a general password store.
func HashPasscode(passcode string) string {
	sum := sha256.Sum256([]byte(passcode))
	return hex.EncodeToString(sum[:])
}

// VerifyPasscode reports whether passcode hashes to storedHash. The compare
// runs in constant time over the digests.
func VerifyPasscode(storedHash, passcode string) bool {
	computed := HashPasscode(passcode)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
