package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "j****@example.com", MaskValue("jane@example.com"))
	assert.Equal(t, "****4352", MaskValue("1HGCM82633A004352"))
	assert.Equal(t, "****", MaskValue("123"))
	assert.Equal(t, "", MaskValue("  "))
}

func TestMaskSensitive(t *testing.T) {
	email := "jane@example.com"
	out := MaskSensitive(map[string]any{
		"claim_number": "WC-2026-00001",
		"changes": map[string]any{
			"customer_email": &email,
			"priority":       "high",
		},
		"vin": "1HGCM82633A004352",
	})

	assert.Equal(t, "WC-2026-00001", out["claim_number"])
	assert.Equal(t, "****4352", out["vin"])
	changes := out["changes"].(map[string]any)
	assert.Equal(t, "j****@example.com", changes["customer_email"])
	assert.Equal(t, "high", changes["priority"])
	assert.Nil(t, MaskSensitive(nil))
}
