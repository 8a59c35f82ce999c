package inference

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"rakshak/pkg/ml"
)

// DefaultPositiveClass is the class label binary artifacts use for the
// threat outcome unless they declare otherwise.
const DefaultPositiveClass = "1"

// Profile describes how raw class probabilities become a labeled result for
// one family.
type Profile struct {
	Family ml.Family
	// Binary families map the positive-class probability onto these labels.
	PositiveLabel string
	NegativeLabel string
	// MultiClass families report the winning class verbatim. A winning class
	// in NegativeClasses is not a positive finding.
	MultiClass      bool
	NegativeClasses []string
	// IncludeFeatures attaches the extracted features to the result.
	IncludeFeatures bool
}

// DefaultNegativeClasses are the threat-level names treated as benign.
func DefaultNegativeClasses() []string {
	return []string{"low", "normal", "benign", "none", "0"}
}

// DefaultProfiles returns the stock profile of every family.
func DefaultProfiles() []Profile {
	return []Profile{
		{Family: ml.Phishing, PositiveLabel: "phishing", NegativeLabel: "legitimate", IncludeFeatures: true},
		{Family: ml.Malware, PositiveLabel: "malware", NegativeLabel: "benign"},
		{Family: ml.Ransomware, PositiveLabel: "malicious", NegativeLabel: "benign"},
		{Family: ml.Network, PositiveLabel: "anomaly", NegativeLabel: "normal"},
		{Family: ml.ZeroDay, MultiClass: true, NegativeClasses: DefaultNegativeClasses()},
	}
}

func (p Profile) isNegativeClass(label string) bool {
	for _, n := range p.NegativeClasses {
		if strings.EqualFold(n, label) {
			return true
		}
	}
	return false
}

// fingerprint identifies the labeling behaviour of p. Two profiles with the
// same fingerprint label any probability row identically.
func (p Profile) fingerprint() string {
	neg := make([]string, len(p.NegativeClasses))
	for i, n := range p.NegativeClasses {
		neg[i] = strings.ToLower(n)
	}
	sort.Strings(neg)
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%t|%q", p.Family, p.PositiveLabel, p.NegativeLabel, p.MultiClass, neg)
	return hex.EncodeToString(h.Sum(nil))[:12]
}
