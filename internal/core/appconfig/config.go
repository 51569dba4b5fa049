// Package appconfig maps a webhook source app to the fields it carries
package appconfig

import (
	"strings"

	"pimms/internal/core/payload"
)

// DefaultName is the table key of the fallback configuration
const DefaultName = "default"

// AmountUnit says how a payload expresses money
type AmountUnit string

const (
	// UnitMinor is cents and similar
	UnitMinor AmountUnit = "minor"
	// UnitMajor is whole currency units, possibly fractional
	UnitMajor AmountUnit = "major"
)

// Config describes where an app puts each field, candidates in priority order
type Config struct {
	Name   string         `yaml:"-"`
	Format payload.Format `yaml:"format"`

	TokenFields       []string `yaml:"token_fields"`
	ExternalIDFields  []string `yaml:"external_id_fields"`
	AnonymousIDFields []string `yaml:"anonymous_id_fields"`
	NameFields        []string `yaml:"name_fields"`
	FirstNameFields   []string `yaml:"first_name_fields"`
	LastNameFields    []string `yaml:"last_name_fields"`
	EmailFields       []string `yaml:"email_fields"`
	AvatarFields      []string `yaml:"avatar_fields"`
	EventNameFields   []string `yaml:"event_name_fields"`
	AmountFields      []string `yaml:"amount_fields"`
	CurrencyFields    []string `yaml:"currency_fields"`

	AmountUnit AmountUnit `yaml:"amount_unit"`

	// EmailAsExternalID uses the email as externalId when no id field is present
	EmailAsExternalID bool `yaml:"email_as_external_id"`

	// SignatureHeader overrides the default signature header
	SignatureHeader string `yaml:"signature_header"`
}

// Table is a lookup keyed by lowercase app name
type Table map[string]Config

// Resolve returns the config for app and whether it was an explicit entry
// unknown or blank names fall back to the default entry
func (t Table) Resolve(app string) (Config, bool) {
	key := strings.ToLower(strings.TrimSpace(app))
	if c, ok := t[key]; ok && key != DefaultName {
		return c, true
	}
	return t[DefaultName], false
}

// Names lists configured apps excluding the default
func (t Table) Names() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		if k != DefaultName {
			out = append(out, k)
		}
	}
	return out
}

// Resolve looks app up in the built-in table
func Resolve(app string) (Config, bool) { return Builtin().Resolve(app) }
