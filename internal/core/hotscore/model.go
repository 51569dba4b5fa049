// Package hotscore computes a bounded 0-100 engagement score from a customer's
// recent clicks, leads and sales
//
// The score is a saturating function of decayed, window-weighted event weights.
// Adding an event never lowers it and identical inputs always produce the same
// result. Compute is pure; persistence and scheduling live in the services layer.
package hotscore

import "time"

// Kind is the event family that feeds the score
type Kind string

const (
	// KindClick is a redirect click on a tracked link
	KindClick Kind = "click"
	// KindLead is a captured lead (form submission, signup)
	KindLead Kind = "lead"
	// KindSale is a purchase with an amount in minor units
	KindSale Kind = "sale"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindClick, KindLead, KindSale:
		return true
	}
	return false
}

// rank orders kinds for tie breaks, strongest signal first
func (k Kind) rank() int {
	switch k {
	case KindSale:
		return 0
	case KindLead:
		return 1
	default:
		return 2
	}
}

// Event is one timestamped signal in a customer's history
type Event struct {
	Kind     Kind      `json:"kind" example:"sale"`
	At       time.Time `json:"at" example:"2025-08-01T12:00:00Z"`
	Amount   int64     `json:"amount,omitempty" example:"10000"`
	Currency string    `json:"currency,omitempty" example:"usd"`
}

// Tier buckets a score
type Tier int

const (
	// TierCold is no meaningful recent signal
	TierCold Tier = iota
	// TierWarm is some recent engagement
	TierWarm
	// TierHot is strong recent intent
	TierHot
	// TierVeryHot is very strong, very recent intent
	TierVeryHot
)

// String returns a label for logs and the cli
func (t Tier) String() string {
	switch t {
	case TierWarm:
		return "warm"
	case TierHot:
		return "hot"
	case TierVeryHot:
		return "very_hot"
	default:
		return "cold"
	}
}

// Window is a contiguous interval during which the score stayed at or above
// the hot threshold
type Window struct {
	Start   time.Time `json:"start" example:"2025-08-01T12:00:00Z"`
	End     time.Time `json:"end" example:"2025-08-01T20:30:00Z"`
	Score   float64   `json:"score" example:"74.9"`
	Reasons []string  `json:"reasons"`
}

// Result is the full scoring output, always replaced as a whole
type Result struct {
	Score      float64  `json:"score" example:"74.9"`
	Tier       Tier     `json:"tier" example:"2"`
	IsHot      bool     `json:"is_hot" example:"true"`
	Reasons    []string `json:"reasons"`
	HotWindows []Window `json:"hot_windows"`
}

// Span is one trailing window of the model
type Span struct {
	Length   time.Duration
	HalfLife time.Duration
	Weight   float64
	Label    string
}

// Model holds the calibrated constants
type Model struct {
	Spans []Span

	ClickWeight   float64
	LeadWeight    float64
	SaleBase      float64
	SalePerUnit   float64 // per major currency unit
	SaleCap       float64
	MinorPerMajor float64

	// Saturation is the raw value at which the score reaches ~63
	Saturation float64

	// Thresholds are inclusive lower bounds for tiers 1, 2 and 3
	Thresholds [3]float64

	MaxReasons int
}

// Default is the production calibration
var Default = Model{
	Spans: []Span{
		{Length: 24 * time.Hour, HalfLife: 6 * time.Hour, Weight: 1.0, Label: "in the last 24 hours"},
		{Length: 7 * 24 * time.Hour, HalfLife: 48 * time.Hour, Weight: 0.5, Label: "in the last 7 days"},
		{Length: 30 * 24 * time.Hour, HalfLife: 7 * 24 * time.Hour, Weight: 0.25, Label: "in the last 30 days"},
	},
	ClickWeight:   1,
	LeadWeight:    5,
	SaleBase:      10,
	SalePerUnit:   0.1,
	SaleCap:       60,
	MinorPerMajor: 100,
	Saturation:    25,
	Thresholds:    [3]float64{15, 50, 80},
	MaxReasons:    3,
}

// Lookback is the widest span of the model
func (m Model) Lookback() time.Duration {
	var lb time.Duration
	for _, s := range m.Spans {
		if s.Length > lb {
			lb = s.Length
		}
	}
	return lb
}

// TierFor maps a score to its tier using inclusive lower bounds
func (m Model) TierFor(score float64) Tier {
	switch {
	case score >= m.Thresholds[2]:
		return TierVeryHot
	case score >= m.Thresholds[1]:
		return TierHot
	case score >= m.Thresholds[0]:
		return TierWarm
	default:
		return TierCold
	}
}

// TierFor maps a score to its tier under the default model
func TierFor(score float64) Tier { return Default.TierFor(score) }

// Compute scores history at now under the default model
func Compute(history []Event, now time.Time) Result { return Default.Compute(history, now) }
