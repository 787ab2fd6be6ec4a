package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// WarrantyConfig carries the tunable business settings of the claim engine.
type WarrantyConfig struct {
	ClaimNumber ClaimNumberConfig `mapstructure:"claimNumber"`
	Validation  ValidationConfig  `mapstructure:"validation"`
	Listing     ListingConfig     `mapstructure:"listing"`
	ReviewNotes map[string]string `mapstructure:"reviewNotes"`
}

type ClaimNumberConfig struct {
	Prefix             string `mapstructure:"prefix"`
	SequenceWidth      int    `mapstructure:"sequenceWidth"`
	AllocationAttempts int    `mapstructure:"allocationAttempts"`
}

type ValidationConfig struct {
	MinIssueDescriptionLength int `mapstructure:"minIssueDescriptionLength"`
}

type ListingConfig struct {
	DefaultPageSize int `mapstructure:"defaultPageSize"`
	MaxPageSize     int `mapstructure:"maxPageSize"`
}

func DefaultWarrantyConfig() WarrantyConfig {
	return WarrantyConfig{
		ClaimNumber: ClaimNumberConfig{
			Prefix:             "WC",
			SequenceWidth:      5,
			AllocationAttempts: 5,
		},
		Validation: ValidationConfig{
			MinIssueDescriptionLength: 10,
		},
		Listing: ListingConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		ReviewNotes: map[string]string{},
	}
}

type WarrantyConfigHolder struct {
	current atomic.Value // holds WarrantyConfig
}

// NewStaticWarrantyConfigHolder returns a holder that never reloads.
func NewStaticWarrantyConfigHolder(cfg WarrantyConfig) *WarrantyConfigHolder {
	holder := &WarrantyConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewWarrantyConfigHolder(log *zap.Logger) (*WarrantyConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("warranty.config")

	v := viper.New()

	v.SetConfigName("warranty")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/warrantyhub")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WARRANTYHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultWarrantyConfig()
	v.SetDefault("warranty.claimNumber.prefix", defaults.ClaimNumber.Prefix)
	v.SetDefault("warranty.claimNumber.sequenceWidth", defaults.ClaimNumber.SequenceWidth)
	v.SetDefault("warranty.claimNumber.allocationAttempts", defaults.ClaimNumber.AllocationAttempts)
	v.SetDefault("warranty.validation.minIssueDescriptionLength", defaults.Validation.MinIssueDescriptionLength)
	v.SetDefault("warranty.listing.defaultPageSize", defaults.Listing.DefaultPageSize)
	v.SetDefault("warranty.listing.maxPageSize", defaults.Listing.MaxPageSize)

	configFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		configFound = false
	}

	var cfg WarrantyConfig
	if err := v.UnmarshalKey("warranty", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateWarrantyConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticWarrantyConfigHolder(cfg)
	if !configFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated WarrantyConfig
		if err := v.UnmarshalKey("warranty", &updated); err != nil {
			log.Warn("reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := ValidateWarrantyConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *WarrantyConfigHolder) Get() WarrantyConfig {
	if h == nil {
		return DefaultWarrantyConfig()
	}
	cfg, ok := h.current.Load().(WarrantyConfig)
	if !ok {
		return DefaultWarrantyConfig()
	}
	return cfg
}

func ValidateWarrantyConfig(cfg WarrantyConfig) error {
	if strings.TrimSpace(cfg.ClaimNumber.Prefix) == "" {
		return errors.New("warranty.claimNumber.prefix cannot be empty")
	}
	if cfg.ClaimNumber.SequenceWidth < 1 || cfg.ClaimNumber.SequenceWidth > 9 {
		return errors.New("warranty.claimNumber.sequenceWidth must be between 1 and 9")
	}
	if cfg.ClaimNumber.AllocationAttempts < 1 {
		return errors.New("warranty.claimNumber.allocationAttempts must be positive")
	}
	if cfg.Validation.MinIssueDescriptionLength < 1 {
		return errors.New("warranty.validation.minIssueDescriptionLength must be positive")
	}
	if cfg.Listing.DefaultPageSize < 1 || cfg.Listing.MaxPageSize < cfg.Listing.DefaultPageSize {
		return errors.New("warranty.listing page sizes are inconsistent")
	}
	return nil
}
