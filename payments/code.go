package payments

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// MakePaymentCode builds a short human-memorable code the customer writes in
// the transfer comment, e.g. "BX-492318". Cosmetic only, never used for
// reconciliation.
func MakePaymentCode(prefix string) string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// fixed suffix rather than panicking over a cosmetic code.
		return fmt.Sprintf("%s-000000", prefix)
	}
	n := binary.BigEndian.Uint64(buf[:]) % 1000000
	return fmt.Sprintf("%s-%06d", prefix, n)
}
