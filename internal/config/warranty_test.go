package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateWarrantyConfigDefaults(t *testing.T) {
	assert.NoError(t, ValidateWarrantyConfig(DefaultWarrantyConfig()))
}

func TestValidateWarrantyConfigRejectsBadValues(t *testing.T) {
	cases := map[string]func(*WarrantyConfig){
		"empty prefix":       func(c *WarrantyConfig) { c.ClaimNumber.Prefix = " " },
		"zero width":         func(c *WarrantyConfig) { c.ClaimNumber.SequenceWidth = 0 },
		"zero attempts":      func(c *WarrantyConfig) { c.ClaimNumber.AllocationAttempts = 0 },
		"zero min length":    func(c *WarrantyConfig) { c.Validation.MinIssueDescriptionLength = 0 },
		"max below default":  func(c *WarrantyConfig) { c.Listing.MaxPageSize = 5 },
		"zero default pages": func(c *WarrantyConfig) { c.Listing.DefaultPageSize = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultWarrantyConfig()
			mutate(&cfg)
			assert.Error(t, ValidateWarrantyConfig(cfg))
		})
	}
}

func TestNewWarrantyConfigHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`warranty:
  claimNumber:
    prefix: WX
    sequenceWidth: 6
  validation:
    minIssueDescriptionLength: 20
  reviewNotes:
    approve: Approved by warranty desk.
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warranty.yml"), content, 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	holder, err := NewWarrantyConfigHolder(zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "WX", cfg.ClaimNumber.Prefix)
	assert.Equal(t, 6, cfg.ClaimNumber.SequenceWidth)
	assert.Equal(t, 5, cfg.ClaimNumber.AllocationAttempts)
	assert.Equal(t, 20, cfg.Validation.MinIssueDescriptionLength)
	assert.Equal(t, 20, cfg.Listing.DefaultPageSize)
	assert.Equal(t, "Approved by warranty desk.", cfg.ReviewNotes["approve"])
}

func TestWarrantyConfigHolderNilFallsBackToDefaults(t *testing.T) {
	var holder *WarrantyConfigHolder
	assert.Equal(t, DefaultWarrantyConfig().ClaimNumber.Prefix, holder.Get().ClaimNumber.Prefix)
}
