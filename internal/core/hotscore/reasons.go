package hotscore

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

type reasonKey struct {
	kind   Kind
	bucket int
}

type reasonAcc struct {
	reasonKey
	count    int
	amount   int64
	currency string
	mixed    bool
	value    float64
}

// reasons groups contributions by kind and narrowest span, strongest first
func (m Model) reasons(evs []Event, t time.Time) []string {
	groups := map[reasonKey]*reasonAcc{}
	for _, e := range evs {
		c, b := m.contribution(e, t)
		if b < 0 || c <= 0 {
			continue
		}
		k := reasonKey{kind: e.Kind, bucket: b}
		a, ok := groups[k]
		if !ok {
			a = &reasonAcc{reasonKey: k, currency: e.Currency}
			groups[k] = a
		}
		a.count++
		a.value += c
		if e.Kind == KindSale {
			a.amount += e.Amount
			if !strings.EqualFold(a.currency, e.Currency) {
				a.mixed = true
			}
		}
	}

	list := make([]*reasonAcc, 0, len(groups))
	for _, a := range groups {
		list = append(list, a)
	}
	slices.SortFunc(list, func(x, y *reasonAcc) int {
		if c := cmp.Compare(y.value, x.value); c != 0 {
			return c
		}
		if c := cmp.Compare(x.kind.rank(), y.kind.rank()); c != 0 {
			return c
		}
		return cmp.Compare(x.bucket, y.bucket)
	})

	n := min(len(list), m.MaxReasons)
	out := make([]string, 0, n)
	for _, a := range list[:n] {
		out = append(out, m.describe(a))
	}
	return out
}

func (m Model) describe(a *reasonAcc) string {
	label := m.Spans[a.bucket].Label
	switch a.kind {
	case KindSale:
		s := fmt.Sprintf("%d %s", a.count, plural(a.count, "sale", "sales"))
		if a.amount > 0 && !a.mixed {
			s += " (" + money(a.amount, a.currency, m.MinorPerMajor) + ")"
		}
		return s + " " + label
	case KindLead:
		return fmt.Sprintf("%d %s %s", a.count, plural(a.count, "lead", "leads"), label)
	default:
		return fmt.Sprintf("%d %s %s", a.count, plural(a.count, "click", "clicks"), label)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func money(minor int64, currency string, per float64) string {
	v := float64(minor) / per
	switch strings.ToLower(currency) {
	case "", "usd":
		return fmt.Sprintf("$%.2f", v)
	case "eur":
		return fmt.Sprintf("€%.2f", v)
	case "gbp":
		return fmt.Sprintf("£%.2f", v)
	default:
		return fmt.Sprintf("%.2f %s", v, strings.ToUpper(currency))
	}
}
