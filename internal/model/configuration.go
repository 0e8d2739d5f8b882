// internal/model/configuration.go
package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultThemeColor = "#f97316"
	DefaultLogoURL    = ""
)

var themeColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// TenantConfiguration is the single branding row of a choir. Revision grows
// by one on every committed write.
type TenantConfiguration struct {
	ChoirID    uuid.UUID `db:"choir_id" json:"choir_id"`
	ThemeColor string    `db:"theme_color" json:"theme_color"`
	LogoURL    string    `db:"logo_url" json:"logo_url"`
	Revision   int64     `db:"revision" json:"revision"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func DefaultConfiguration(choirID uuid.UUID) TenantConfiguration {
	return TenantConfiguration{
		ChoirID:    choirID,
		ThemeColor: DefaultThemeColor,
		LogoURL:    DefaultLogoURL,
		Revision:   1,
	}
}

// ConfigurationFields is the admin-editable part of the configuration.
type ConfigurationFields struct {
	ThemeColor string `json:"theme_color"`
	LogoURL    string `json:"logo_url"`
}

func (f ConfigurationFields) Validate() error {
	if !themeColorPattern.MatchString(f.ThemeColor) {
		return InvalidInput("theme_color must look like #rrggbb, got %q", f.ThemeColor)
	}
	return nil
}
