package risk

import "rakshak/pkg/ml"

// Signals is everything a recommendation rule may look at.
type Signals struct {
	Score       float64
	KeywordTier Tier
	// RansomwareMentioned is set when the incident text names ransomware,
	// whatever the configured keyword lists say.
	RansomwareMentioned bool
	Positive            map[ml.Family]bool
}

// Rule contributes Advice when Applies holds.
type Rule struct {
	Name    string
	Advice  string
	Applies func(p Policy, s Signals) bool
}

func ransomwareSignal(_ Policy, s Signals) bool {
	return s.Positive[ml.Ransomware] || s.RansomwareMentioned
}

func positive(f ml.Family) func(Policy, Signals) bool {
	return func(_ Policy, s Signals) bool { return s.Positive[f] }
}

// DefaultRules is the recommendation table, most urgent first. Every rule
// whose condition holds contributes its advice.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "urgent_investigation",
			Advice:  "Start an immediate investigation: isolate affected systems and preserve volatile evidence.",
			Applies: func(p Policy, s Signals) bool { return s.Score > p.UrgentThreshold },
		},
		{
			Name:    "cert_escalation",
			Advice:  "Escalate to CERT and notify senior leadership of a critical-tier threat.",
			Applies: func(_ Policy, s Signals) bool { return s.KeywordTier == TierCritical },
		},
		{
			Name:    "ransomware_playbook",
			Advice:  "Activate the ransomware incident-response playbook: disconnect infected hosts and secure offline backups.",
			Applies: ransomwareSignal,
		},
		{
			Name:    "law_enforcement",
			Advice:  "Report the attack to law enforcement and do not pay the ransom.",
			Applies: ransomwareSignal,
		},
		{
			Name:    "malware_quarantine",
			Advice:  "Quarantine the malicious file and run a full endpoint scan on affected hosts.",
			Applies: positive(ml.Malware),
		},
		{
			Name:    "zero_day_mitigation",
			Advice:  "Apply virtual patching on exposed services and notify the affected vendor.",
			Applies: positive(ml.ZeroDay),
		},
		{
			Name:    "network_block",
			Advice:  "Block the offending source addresses and review firewall and IDS logs.",
			Applies: positive(ml.Network),
		},
		{
			Name:    "phishing_block",
			Advice:  "Block the reported URL and sender at the mail and web gateways.",
			Applies: positive(ml.Phishing),
		},
		{
			Name:    "credential_reset",
			Advice:  "Reset credentials for any account that interacted with the message and enforce MFA.",
			Applies: positive(ml.Phishing),
		},
		{
			Name:    "data_exposure",
			Advice:  "Assess exposure of classified or sensitive data and notify the data protection officer.",
			Applies: func(_ Policy, s Signals) bool { return s.KeywordTier == TierHigh },
		},
		{
			Name:   "monitor",
			Advice: "Monitor affected assets and collect additional evidence.",
			Applies: func(p Policy, s Signals) bool {
				return s.Score > p.MonitorThreshold && s.Score <= p.UrgentThreshold
			},
		},
	}
}
