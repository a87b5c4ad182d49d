package payments

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// payloadFields parses the EMV payload out of a deep link's fragment.
func payloadFields(t *testing.T, link string) []emvField {
	t.Helper()
	parsed, err := url.Parse(link)
	assert.NoError(t, err)
	assert.NotEmpty(t, parsed.Fragment)

	fields := parseEMVPayload(parsed.Fragment)
	assert.NotNil(t, fields)
	return fields
}

func fieldValue(fields []emvField, tag string) (string, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

// makeTemplate builds a minimal valid deep link around the given amount field
// value, with a correct trailing CRC.
func makeTemplate(t *testing.T, amountValue string) string {
	t.Helper()
	payload, ok := serializeEMVPayload([]emvField{
		{Tag: "00", Value: "01"},
		{Tag: "54", Value: amountValue},
		{Tag: "59", Value: "TEST MERCHANT"},
	})
	assert.True(t, ok)
	seeded := payload + "6304"
	return "https://pay.example/qr/#" + seeded + crc16CCITT(seeded)
}

func TestNormalizeBankPhone(t *testing.T) {
	assert.Equal(t, "996700123456", NormalizeBankPhone("996700123456"))
	assert.Equal(t, "996700123456", NormalizeBankPhone("+996 (700) 123-456"))
	assert.Equal(t, "", NormalizeBankPhone("0700123456"))
	assert.Equal(t, "", NormalizeBankPhone("99670012345"))
	assert.Equal(t, "", NormalizeBankPhone(""))
	assert.Equal(t, "", NormalizeBankPhone("not a phone"))
}

func TestBuildBankPayURLPatchesAmountAndCRC(t *testing.T) {
	link := BuildBankPayURL(500, "", DefaultPayURLTemplate)
	assert.NotEqual(t, DefaultPayURLTemplate, link)
	assert.True(t, strings.HasPrefix(link, "https://app.mbank.kg/qr/#"))

	fields := payloadFields(t, link)

	// The default template carries a 5-digit minor-unit amount, so 500 som
	// becomes 50000 tiyin in the same width.
	amount, ok := fieldValue(fields, "54")
	assert.True(t, ok)
	assert.Equal(t, "50000", amount)

	// The CRC field is last and verifies against the rest of the payload.
	last := fields[len(fields)-1]
	assert.Equal(t, "63", last.Tag)
	body, ok := serializeEMVPayload(fields[:len(fields)-1])
	assert.True(t, ok)
	assert.Equal(t, crc16CCITT(body+"6304"), last.Value)
}

func TestBuildBankPayURLReplacesPhone(t *testing.T) {
	link := BuildBankPayURL(500, "+996 700 123 456", DefaultPayURLTemplate)
	parsed, err := url.Parse(link)
	assert.NoError(t, err)
	assert.Contains(t, parsed.Fragment, "996700123456")
	assert.NotContains(t, parsed.Fragment, "996990090091")

	// An unusable phone leaves the template's recipient untouched.
	link = BuildBankPayURL(500, "12345", DefaultPayURLTemplate)
	parsed, err = url.Parse(link)
	assert.NoError(t, err)
	assert.Contains(t, parsed.Fragment, "996990090091")
}

func TestBuildBankPayURLAmountEncodings(t *testing.T) {
	// Decimal som template keeps the decimal form.
	link := BuildBankPayURL(250, "", makeTemplate(t, "100.00"))
	amount, ok := fieldValue(payloadFields(t, link), "54")
	assert.True(t, ok)
	assert.Equal(t, "250.00", amount)

	// Short digit fields are plain som, not minor units.
	link = BuildBankPayURL(250, "", makeTemplate(t, "50"))
	amount, ok = fieldValue(payloadFields(t, link), "54")
	assert.True(t, ok)
	assert.Equal(t, "250", amount)

	// Wide digit fields keep their zero padding.
	link = BuildBankPayURL(7, "", makeTemplate(t, "0010000"))
	amount, ok = fieldValue(payloadFields(t, link), "54")
	assert.True(t, ok)
	assert.Equal(t, "0000700", amount)
}

func TestBuildBankPayURLFallbacks(t *testing.T) {
	assert.Equal(t, "", BuildBankPayURL(500, "", ""))
	assert.Equal(t, "", BuildBankPayURL(500, "", "   "))

	// Zero and negative totals keep the template as-is.
	assert.Equal(t, DefaultPayURLTemplate, BuildBankPayURL(0, "", DefaultPayURLTemplate))
	assert.Equal(t, DefaultPayURLTemplate, BuildBankPayURL(-5, "", DefaultPayURLTemplate))

	// No fragment or an unparsable payload: template unchanged.
	plain := "https://pay.example/landing"
	assert.Equal(t, plain, BuildBankPayURL(500, "", plain))
	garbage := "https://pay.example/qr/#not-an-emv-payload"
	assert.Equal(t, garbage, BuildBankPayURL(500, "", garbage))
}

func TestParseEMVPayloadRejectsTruncated(t *testing.T) {
	assert.Nil(t, parseEMVPayload("000"))
	assert.Nil(t, parseEMVPayload("0005ab"))
	assert.Nil(t, parseEMVPayload("00xx01"))
}

func TestCRC16CCITT(t *testing.T) {
	// Standard CRC-16/CCITT-FALSE check value.
	assert.Equal(t, "29B1", crc16CCITT("123456789"))
	assert.Equal(t, "FFFF", crc16CCITT(""))
}
