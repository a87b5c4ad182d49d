package utils

import (
	"fmt"
	"strconv"
)

// FormatKGS formats a whole-som amount with thousands separators.
// Example: 15000 -> "15 000 сом"
func FormatKGS(amount int) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := strconv.Itoa(amount)
	var out []byte
	for i, ch := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, ch)
	}

	if negative {
		return fmt.Sprintf("-%s сом", out)
	}
	return fmt.Sprintf("%s сом", out)
}
