package hotscore

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// Compute scores history as of now
// events of unknown kind or stamped after now are ignored
// an empty history yields the zero result
func (m Model) Compute(history []Event, now time.Time) Result {
	now = now.UTC()
	evs := prepare(history, now)

	res := Result{Reasons: []string{}, HotWindows: []Window{}}
	if len(evs) == 0 {
		return res
	}

	res.Score = m.score(evs, now)
	res.Tier = m.TierFor(res.Score)
	res.IsHot = res.Tier >= TierHot
	res.Reasons = m.reasons(evs, now)
	res.HotWindows = m.windows(evs, now)
	return res
}

// prepare copies, filters and orders events so float sums are stable
func prepare(history []Event, now time.Time) []Event {
	out := make([]Event, 0, len(history))
	for _, e := range history {
		if !e.Kind.Valid() || e.At.IsZero() || e.At.After(now) {
			continue
		}
		e.At = e.At.UTC()
		if e.Amount < 0 {
			e.Amount = 0
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b Event) int {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Kind.rank(), b.Kind.rank()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Amount, b.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Currency, b.Currency)
	})
	return out
}

func (m Model) baseWeight(e Event) float64 {
	switch e.Kind {
	case KindClick:
		return m.ClickWeight
	case KindLead:
		return m.LeadWeight
	case KindSale:
		w := m.SaleBase + m.SalePerUnit*float64(e.Amount)/m.MinorPerMajor
		return math.Min(w, m.SaleCap)
	}
	return 0
}

// contribution returns the decayed weight of e at t summed across every span
// containing it, plus the index of the narrowest such span (-1 when none)
func (m Model) contribution(e Event, t time.Time) (float64, int) {
	age := t.Sub(e.At)
	if age < 0 {
		return 0, -1
	}
	base := m.baseWeight(e)
	bucket := -1
	var sum float64
	for i, s := range m.Spans {
		if age > s.Length {
			continue
		}
		if bucket < 0 {
			bucket = i
		}
		sum += s.Weight * base * math.Exp2(-float64(age)/float64(s.HalfLife))
	}
	return sum, bucket
}

func (m Model) raw(evs []Event, t time.Time) float64 {
	var sum float64
	for _, e := range evs {
		c, _ := m.contribution(e, t)
		sum += c
	}
	return sum
}

// saturate maps a raw value onto [0,100] with one decimal
func (m Model) saturate(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	s := 100 * (1 - math.Exp(-raw/m.Saturation))
	return math.Round(s*10) / 10
}

func (m Model) score(evs []Event, t time.Time) float64 {
	return m.saturate(m.raw(evs, t))
}
