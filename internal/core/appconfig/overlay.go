package appconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pimms/internal/core/payload"
	perr "pimms/internal/platform/errors"
)

// overlayFile is the on-disk shape
//
//	apps:
//	  mycrm:
//	    token_fields: [lead.pimms_id]
//	    email_fields: [lead.email]
type overlayFile struct {
	Apps map[string]Config `yaml:"apps"`
}

// LoadFile returns the built-in table with the overlay at path applied
// an empty path returns the built-in table
func LoadFile(path string) (Table, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("appconfig: open overlay: %w", err)
	}
	defer f.Close()
	return Overlay(Builtin(), f)
}

// Overlay decodes r and merges each entry over base
// set fields replace the base entry's, new apps start from the default entry
func Overlay(base Table, r io.Reader) (Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var of overlayFile
	if err := dec.Decode(&of); err != nil && !errors.Is(err, io.EOF) {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "appconfig: decode overlay")
	}

	out := make(Table, len(base)+len(of.Apps))
	for k, v := range base {
		out[k] = v
	}
	for name, over := range of.Apps {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, perr.InvalidArgf("appconfig: empty app name")
		}
		if err := validate(over); err != nil {
			return nil, perr.WithField(err, key)
		}
		cur, ok := out[key]
		if !ok {
			cur = out[DefaultName]
		}
		merged := merge(cur, over)
		merged.Name = key
		out[key] = merged
	}
	return out, nil
}

func validate(c Config) error {
	switch c.Format {
	case "", payload.FormatAuto, payload.FormatJSON, payload.FormatForm:
	default:
		return perr.InvalidArgf("appconfig: unknown format %q", c.Format)
	}
	switch c.AmountUnit {
	case "", UnitMinor, UnitMajor:
	default:
		return perr.InvalidArgf("appconfig: unknown amount unit %q", c.AmountUnit)
	}
	return nil
}

func merge(base, over Config) Config {
	pick := func(b, o []string) []string {
		if len(o) > 0 {
			return o
		}
		return b
	}
	out := base
	if over.Format != "" {
		out.Format = over.Format
	}
	out.TokenFields = pick(base.TokenFields, over.TokenFields)
	out.ExternalIDFields = pick(base.ExternalIDFields, over.ExternalIDFields)
	out.AnonymousIDFields = pick(base.AnonymousIDFields, over.AnonymousIDFields)
	out.NameFields = pick(base.NameFields, over.NameFields)
	out.FirstNameFields = pick(base.FirstNameFields, over.FirstNameFields)
	out.LastNameFields = pick(base.LastNameFields, over.LastNameFields)
	out.EmailFields = pick(base.EmailFields, over.EmailFields)
	out.AvatarFields = pick(base.AvatarFields, over.AvatarFields)
	out.EventNameFields = pick(base.EventNameFields, over.EventNameFields)
	out.AmountFields = pick(base.AmountFields, over.AmountFields)
	out.CurrencyFields = pick(base.CurrencyFields, over.CurrencyFields)
	if over.AmountUnit != "" {
		out.AmountUnit = over.AmountUnit
	}
	if over.EmailAsExternalID {
		out.EmailAsExternalID = true
	}
	if over.SignatureHeader != "" {
		out.SignatureHeader = over.SignatureHeader
	}
	return out
}
