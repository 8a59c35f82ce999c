// Package ml holds the model families, feature schemas, the classifier
// artifacts that evaluate them and the registry that loads them from disk.
package ml

import (
	"fmt"
	"strings"

	"rakshak/pkg/features"
)

// Family names one of the detection models.
type Family string

const (
	Phishing   Family = features.KindPhishing
	Malware    Family = features.KindMalware
	Ransomware Family = features.KindRansomware
	Network    Family = features.KindNetwork
	ZeroDay    Family = features.KindZeroDay
)

// Families lists every known family in a stable order.
func Families() []Family {
	return []Family{Phishing, Malware, Ransomware, Network, ZeroDay}
}

// ParseFamily accepts a family name case-insensitively. "network" and
// "networking" are accepted for Network.
func ParseFamily(s string) (Family, error) {
	switch f := Family(strings.ToLower(strings.TrimSpace(s))); f {
	case Phishing, Malware, Ransomware, Network, ZeroDay:
		return f, nil
	case "network", "networking":
		return Network, nil
	case "zeroday", "zero_day":
		return ZeroDay, nil
	default:
		return "", fmt.Errorf("unknown model family %q", s)
	}
}

func (f Family) String() string { return string(f) }
