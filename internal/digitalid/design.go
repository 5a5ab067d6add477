package digitalid

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultExpiryYears applies when the design config leaves the duration unset.
const DefaultExpiryYears = 3

// DesignConfig is the singleton card-design configuration. Colors are hex
// strings ("#1A5632"); ExpiryDurationYears drives new IDs' expiresAt.
type DesignConfig struct {
	HeaderColor    string `yaml:"headerColor" json:"headerColor"`
	AccentColor    string `yaml:"accentColor" json:"accentColor"`
	TextColor      string `yaml:"textColor" json:"textColor"`
	FontFamily     string `yaml:"fontFamily" json:"fontFamily"`
	HeaderText     string `yaml:"headerText" json:"headerText"`
	SubHeaderText  string `yaml:"subHeaderText" json:"subHeaderText"`
	ExpiryDuration int    `yaml:"expiryDurationYears" json:"expiryDurationYears"`
}

// DefaultDesignConfig is the configuration used until an admin edits it.
func DefaultDesignConfig() DesignConfig {
	return DesignConfig{
		HeaderColor:    "#1A5632",
		AccentColor:    "#F5C518",
		TextColor:      "#1B1B1B",
		FontFamily:     "Helvetica",
		HeaderText:     "REPUBLIC OF UGANDA",
		SubHeaderText:  "KABALE MUNICIPAL DIGITAL ID",
		ExpiryDuration: DefaultExpiryYears,
	}
}

// ExpiryYears returns the configured duration, defaulting when unset.
func (c DesignConfig) ExpiryYears() int {
	if c.ExpiryDuration <= 0 {
		return DefaultExpiryYears
	}
	return c.ExpiryDuration
}

// LoadDesignConfig reads a YAML seed file, filling unset fields from the
// defaults.
func LoadDesignConfig(path string) (DesignConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DesignConfig{}, fmt.Errorf("read design config: %w", err)
	}
	cfg := DefaultDesignConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return DesignConfig{}, fmt.Errorf("parse design config: %w", err)
	}
	return cfg, nil
}
