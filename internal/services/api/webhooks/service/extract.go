package service

import (
	"math"
	"strconv"
	"strings"

	"pimms/internal/core/appconfig"
	"pimms/internal/core/hotscore"
	"pimms/internal/core/normalize"
	"pimms/internal/core/payload"
	cdom "pimms/internal/services/api/customers/domain"
)

// Extracted is what a payload says about the customer and the event
type Extracted struct {
	Identity  cdom.Identity
	Fields    cdom.Fields
	EventName string
	Kind      hotscore.Kind
	Amount    int64
	Currency  string
}

// Extract reads identity, contact and event fields using cfg candidates
func Extract(p *payload.Payload, cfg appconfig.Config) Extracted {
	var ex Extracted
	ex.Identity.ExternalID = first(p, cfg.ExternalIDFields)
	ex.Identity.AnonymousID = first(p, cfg.AnonymousIDFields)

	ex.Fields.Email = first(p, cfg.EmailFields)
	ex.Fields.Name = first(p, cfg.NameFields)
	if ex.Fields.Name == "" {
		ex.Fields.Name = normalize.JoinName(first(p, cfg.FirstNameFields), first(p, cfg.LastNameFields))
	}
	ex.Fields.Avatar = first(p, cfg.AvatarFields)

	if ex.Identity.ExternalID == "" && cfg.EmailAsExternalID {
		ex.Identity.ExternalID = normalize.Email(ex.Fields.Email)
	}

	ex.EventName = normalize.Text(first(p, cfg.EventNameFields))
	ex.Amount = parseAmount(first(p, cfg.AmountFields), cfg.AmountUnit)
	ex.Currency = strings.ToLower(strings.TrimSpace(first(p, cfg.CurrencyFields)))

	ex.Kind = hotscore.KindLead
	if ex.Amount > 0 {
		ex.Kind = hotscore.KindSale
	}
	if ex.EventName == "" {
		ex.EventName = string(ex.Kind)
	}
	return ex
}

func first(p *payload.Payload, paths []string) string {
	v, _, _ := p.First(paths)
	return v
}

// parseAmount returns minor units, garbage and negatives read as zero
func parseAmount(s string, unit appconfig.AmountUnit) int64 {
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(decimalPoint(s), 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	if unit == appconfig.UnitMajor {
		f *= 100
	}
	return int64(math.Round(f))
}

// decimalPoint rewrites grouped amounts to a plain decimal
// with both marks present the last one is the decimal mark; a lone mark
// repeated, or a lone comma followed by exactly three digits, is grouping
func decimalPoint(s string) string {
	dot, comma := strings.LastIndexByte(s, '.'), strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-comma-1 == 3 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
