package payments

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPayURLTemplate is the demo mbank deep link used when a restaurant has
// no template of its own. The URL fragment carries an EMV QR payload.
const DefaultPayURLTemplate = "https://app.mbank.kg/qr/#00020101021132500012c2c.mbank.kg01020210129969900900911202111302115204999953034175405100005910AKTILEK%20K.63046588"

var (
	bankPhoneRe    = regexp.MustCompile(`^996\d{9}$`)
	payloadPhoneRe = regexp.MustCompile(`996\d{9}`)
	nonDigitRe     = regexp.MustCompile(`[^\d]`)
	digitsRe       = regexp.MustCompile(`^\d+$`)
	decimalRe      = regexp.MustCompile(`^\d+\.\d{1,2}$`)
	tagRe          = regexp.MustCompile(`^\d{2}$`)
)

type emvField struct {
	Tag   string
	Value string
}

// NormalizeBankPhone strips formatting from a bank account identifier and
// validates it against the national phone pattern (996 + 9 digits).
// Returns "" when the value does not qualify.
func NormalizeBankPhone(value string) string {
	digits := nonDigitRe.ReplaceAllString(value, "")
	if !bankPhoneRe.MatchString(digits) {
		return ""
	}
	return digits
}

func parseEMVPayload(payload string) []emvField {
	data := strings.TrimSpace(payload)
	var fields []emvField
	cursor := 0

	for cursor < len(data) {
		if cursor+4 > len(data) {
			return nil
		}
		tag := data[cursor : cursor+2]
		lenText := data[cursor+2 : cursor+4]
		if !tagRe.MatchString(lenText) {
			return nil
		}

		length, _ := strconv.Atoi(lenText)
		valueStart := cursor + 4
		valueEnd := valueStart + length
		if valueEnd > len(data) {
			return nil
		}

		fields = append(fields, emvField{Tag: tag, Value: data[valueStart:valueEnd]})
		cursor = valueEnd
	}

	return fields
}

func serializeEMVPayload(fields []emvField) (string, bool) {
	var b strings.Builder
	for _, field := range fields {
		if !tagRe.MatchString(field.Tag) {
			return "", false
		}
		if len(field.Value) > 99 {
			return "", false
		}
		fmt.Fprintf(&b, "%s%02d%s", field.Tag, len(field.Value), field.Value)
	}
	return b.String(), true
}

func crc16CCITT(input string) string {
	crc := uint16(0xffff)
	for i := 0; i < len(input); i++ {
		crc ^= uint16(input[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}

// escapeFragment mirrors JS encodeURIComponent for the payload characters the
// EMV alphabet can contain.
func escapeFragment(s string) string {
	escaped := url.QueryEscape(s)
	return strings.ReplaceAll(escaped, "+", "%20")
}

// BuildBankPayURL rewrites a bank deep-link template so its EMV payload
// carries the given amount (and, when valid, the recipient's bank phone),
// recomputing the trailing CRC. The template is returned untouched when the
// amount is zero or its payload cannot be parsed; "" is returned when no
// template is configured.
func BuildBankPayURL(totalKGS int, bankPhone, template string) string {
	template = strings.TrimSpace(template)
	if template == "" {
		return ""
	}

	amount := totalKGS
	if amount < 0 {
		amount = 0
	}
	if amount == 0 {
		return template
	}

	phone := NormalizeBankPhone(bankPhone)

	parsed, err := url.Parse(template)
	if err != nil || parsed.Fragment == "" {
		return template
	}

	payload := strings.TrimSpace(parsed.Fragment)
	if phone != "" {
		payload = payloadPhoneRe.ReplaceAllString(payload, phone)
	}

	fields := parseEMVPayload(payload)
	if fields == nil {
		return template
	}

	// Drop the old CRC field; it is recomputed over the new payload.
	withoutCRC := fields[:0:0]
	amountIndex := -1
	for _, field := range fields {
		if field.Tag == "63" {
			continue
		}
		if field.Tag == "54" && amountIndex < 0 {
			amountIndex = len(withoutCRC)
		}
		withoutCRC = append(withoutCRC, field)
	}

	existing := ""
	if amountIndex >= 0 {
		existing = withoutCRC[amountIndex].Value
	}

	// Preserve the template's amount encoding: zero-padded minor units,
	// plain som, or decimal som.
	amountValue := strconv.Itoa(amount * 100)
	if digitsRe.MatchString(existing) {
		if len(existing) >= 4 {
			amountValue = fmt.Sprintf("%0*d", len(existing), amount*100)
		} else {
			amountValue = strconv.Itoa(amount)
		}
	} else if decimalRe.MatchString(existing) {
		amountValue = fmt.Sprintf("%d.00", amount)
	}

	if amountIndex >= 0 {
		withoutCRC[amountIndex].Value = amountValue
	} else {
		withoutCRC = append(withoutCRC, emvField{Tag: "54", Value: amountValue})
	}

	serialized, ok := serializeEMVPayload(withoutCRC)
	if !ok {
		return template
	}

	seeded := serialized + "6304"
	base := template
	if idx := strings.Index(base, "#"); idx >= 0 {
		base = base[:idx]
	}
	return base + "#" + escapeFragment(seeded+crc16CCITT(seeded))
}
