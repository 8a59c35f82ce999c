// Package risk folds per-model findings and free-text heuristics into a
// single scored, explained assessment.
package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Tier is an ordered severity level.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierCritical
)

var tierNames = [...]string{"Low", "Medium", "High", "Critical"}

func (t Tier) String() string {
	if t < TierLow || t > TierCritical {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

func ParseTier(s string) (Tier, error) {
	for i, n := range tierNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Tier(i), nil
		}
	}
	return TierLow, fmt.Errorf("unknown tier %q", s)
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func maxTier(tiers ...Tier) Tier {
	out := TierLow
	for _, t := range tiers {
		if t > out {
			out = t
		}
	}
	return out
}

// Policy holds the tunable scoring constants. The zero value is not useful;
// start from DefaultPolicy.
type Policy struct {
	// Keyword lists are matched case-insensitively on word boundaries.
	CriticalKeywords []string `yaml:"critical_keywords" json:"critical_keywords"`
	HighKeywords     []string `yaml:"high_keywords" json:"high_keywords"`
	// CategoryTiers raise severity for a category. They never move the score.
	CategoryTiers map[string]Tier `yaml:"category_tiers" json:"category_tiers"`
	// TierFloors is the minimum risk score implied by a keyword tier.
	TierFloors map[Tier]float64 `yaml:"tier_floors" json:"tier_floors"`

	ModelWeight      float64 `yaml:"model_weight" json:"model_weight"`
	UrgentThreshold  float64 `yaml:"urgent_threshold" json:"urgent_threshold"`
	MonitorThreshold float64 `yaml:"monitor_threshold" json:"monitor_threshold"`
}

func DefaultPolicy() Policy {
	return Policy{
		CriticalKeywords: []string{"ransomware", "apt", "nation-state", "critical infrastructure"},
		HighKeywords:     []string{"classified", "secret", "top secret", "confidential", "espionage", "breach"},
		CategoryTiers: map[string]Tier{
			"malware":   TierHigh,
			"espionage": TierHigh,
			"phishing":  TierMedium,
			"opsec":     TierMedium,
		},
		TierFloors: map[Tier]float64{
			TierCritical: 0.9,
			TierHigh:     0.7,
		},
		ModelWeight:      0.5,
		UrgentThreshold:  0.7,
		MonitorThreshold: 0.4,
	}
}

// unit reports whether f is a finite value in [0,1].
func unit(f float64) bool {
	return !math.IsNaN(f) && f >= 0 && f <= 1
}

func (p Policy) Validate() error {
	if !unit(p.ModelWeight) {
		return fmt.Errorf("model_weight %v out of [0,1]", p.ModelWeight)
	}
	if !unit(p.MonitorThreshold) || !unit(p.UrgentThreshold) || p.MonitorThreshold > p.UrgentThreshold {
		return fmt.Errorf("thresholds must satisfy 0 <= monitor (%v) <= urgent (%v) <= 1", p.MonitorThreshold, p.UrgentThreshold)
	}
	for t, f := range p.TierFloors {
		if !unit(f) {
			return fmt.Errorf("floor for %s tier %v out of [0,1]", t, f)
		}
	}
	for _, kw := range append(append([]string(nil), p.CriticalKeywords...), p.HighKeywords...) {
		if strings.TrimSpace(kw) == "" {
			return errors.New("empty keyword")
		}
	}
	return nil
}

// severity thresholds over the final score
func scoreTier(score float64) Tier {
	switch {
	case score >= 0.9:
		return TierCritical
	case score >= 0.7:
		return TierHigh
	case score >= 0.4:
		return TierMedium
	default:
		return TierLow
	}
}
