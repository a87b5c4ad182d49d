package payments

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakePaymentCode(t *testing.T) {
	re := regexp.MustCompile(`^BX-\d{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code := MakePaymentCode("BX")
		assert.Regexp(t, re, code)
		seen[code] = true
	}
	// Not a uniqueness guarantee, but 20 collisions would mean a broken RNG.
	assert.Greater(t, len(seen), 1)
}
