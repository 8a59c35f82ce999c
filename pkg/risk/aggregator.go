package risk

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"rakshak/pkg/inference"
	"rakshak/pkg/ml"
)

// Assessment is the gateway's answer for one incident. Slices are never nil
// so the JSON shape is stable when nothing ran or nothing matched.
type Assessment struct {
	ID              string                       `json:"id"`
	Category        string                       `json:"category"`
	RiskScore       float64                      `json:"risk_score"`
	Severity        Tier                         `json:"severity"`
	HeuristicTier   Tier                         `json:"heuristic_tier"`
	MatchedKeywords []string                     `json:"matched_keywords"`
	Findings        []inference.PredictionResult `json:"findings"`
	Recommendations []string                     `json:"recommendations"`
}

type keywordMatcher struct {
	keyword string
	tier    Tier
	re      *regexp.Regexp
}

var ransomwareMention = wordPattern("ransomware")

// wordPattern matches kw case-insensitively on word boundaries; inner
// spaces match any run of whitespace.
func wordPattern(kw string) *regexp.Regexp {
	parts := strings.Fields(kw)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(parts, `\s+`) + `\b`)
}

// Aggregator scores findings under a fixed policy. It is immutable and safe
// for concurrent use.
type Aggregator struct {
	policy     Policy
	keywords   []keywordMatcher
	categories map[string]Tier
	rules      []Rule
}

func NewAggregator(p Policy, rules ...Rule) (*Aggregator, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("risk policy: %w", err)
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	a := &Aggregator{policy: p, rules: rules, categories: make(map[string]Tier, len(p.CategoryTiers))}
	for c, t := range p.CategoryTiers {
		a.categories[strings.ToLower(strings.TrimSpace(c))] = t
	}
	seen := make(map[string]bool)
	add := func(kws []string, tier Tier) {
		for _, kw := range kws {
			key := strings.ToLower(strings.Join(strings.Fields(kw), " "))
			if seen[key] {
				continue
			}
			seen[key] = true
			a.keywords = append(a.keywords, keywordMatcher{keyword: key, tier: tier, re: wordPattern(key)})
		}
	}
	add(p.CriticalKeywords, TierCritical)
	add(p.HighKeywords, TierHigh)
	return a, nil
}

func (a *Aggregator) Policy() Policy { return a.policy }

// Assess scores category and text together with the model findings.
// Failed findings are reported but never contribute to the score.
func (a *Aggregator) Assess(category, text string, findings []inference.PredictionResult) Assessment {
	category = strings.ToLower(strings.TrimSpace(category))

	matched := []string{}
	kwTier := TierLow
	for _, m := range a.keywords {
		if m.re.MatchString(text) {
			matched = append(matched, m.keyword)
			kwTier = maxTier(kwTier, m.tier)
		}
	}

	sig := Signals{
		KeywordTier:         kwTier,
		RansomwareMentioned: ransomwareMention.MatchString(text),
		Positive:            make(map[ml.Family]bool),
	}
	var sum float64
	for _, f := range findings {
		if f.Failed() || !f.Positive {
			continue
		}
		sig.Positive[f.Family] = true
		sum += a.policy.ModelWeight * f.Confidence
	}
	floor := 0.0
	if kwTier > TierLow {
		floor = a.policy.TierFloors[kwTier]
	}
	sig.Score = inference.Round4(math.Min(1, math.Max(floor, sum)))

	recs := []string{}
	for _, r := range a.rules {
		if r.Applies(a.policy, sig) {
			recs = append(recs, r.Advice)
		}
	}

	if findings == nil {
		findings = []inference.PredictionResult{}
	}
	catTier := a.categories[category]
	return Assessment{
		Category:        category,
		RiskScore:       sig.Score,
		Severity:        maxTier(kwTier, catTier, scoreTier(sig.Score)),
		HeuristicTier:   maxTier(kwTier, catTier),
		MatchedKeywords: matched,
		Findings:        findings,
		Recommendations: recs,
	}
}
