package features

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var ipv4Host = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// URL feature names.
var urlFeatureNames = []string{
	"url_length", "num_dots", "num_hyphens", "num_digits", "has_https",
	"has_at_symbol", "num_slash", "has_ip_address", "contains_login", "contains_verify",
}

// Text feature names.
var textFeatureNames = []string{
	"text_length", "num_words", "num_exclamations", "num_digits",
	"contains_login", "contains_verify", "contains_password",
}

// PhishingFeatureNames is the union of URL and text feature names in a
// stable order.
func PhishingFeatureNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range append(append([]string{}, urlFeatureNames...), textFeatureNames...) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// ExtractPhishing merges URL and text features. Names present in both
// subsets (num_digits, contains_login, contains_verify) keep the larger
// value. Artifacts trained on a merge where text overwrites URL values see
// different inputs for those three names whenever the URL scores higher.
func ExtractPhishing(subject, body, rawURL string) Mapping {
	out := URLFeatures(rawURL)
	for k, v := range TextFeatures(subject, body) {
		if prev, ok := out[k]; ok && prev.Float() >= v.Float() {
			continue
		}
		out[k] = v
	}
	return out
}

// URLFeatures computes lexical URL features. An empty URL yields all zeros.
func URLFeatures(rawURL string) Mapping {
	out := make(Mapping, len(urlFeatureNames))
	if rawURL == "" {
		for _, n := range urlFeatureNames {
			out[n] = Number(0)
		}
		return out
	}
	lower := strings.ToLower(rawURL)
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Hostname()
	}
	out["url_length"] = Number(float64(utf8.RuneCountInString(rawURL)))
	out["num_dots"] = Number(float64(strings.Count(rawURL, ".")))
	out["num_hyphens"] = Number(float64(strings.Count(rawURL, "-")))
	out["num_digits"] = Number(float64(countDigits(rawURL)))
	out["has_https"] = Bool(strings.Contains(lower, "https"))
	out["has_at_symbol"] = Bool(strings.Contains(rawURL, "@"))
	out["num_slash"] = Number(float64(strings.Count(rawURL, "/")))
	out["has_ip_address"] = Bool(ipv4Host.MatchString(host))
	out["contains_login"] = Bool(strings.Contains(lower, "login"))
	out["contains_verify"] = Bool(strings.Contains(lower, "verify"))
	return out
}

// TextFeatures computes features over the cleaned subject and body.
func TextFeatures(subject, body string) Mapping {
	combined := CleanText(subject + " " + body)
	return Mapping{
		"text_length":       Number(float64(utf8.RuneCountInString(combined))),
		"num_words":         Number(float64(len(strings.Fields(combined)))),
		"num_exclamations":  Number(float64(strings.Count(combined, "!"))),
		"num_digits":        Number(float64(countDigits(combined))),
		"contains_login":    Bool(strings.Contains(combined, "login")),
		"contains_verify":   Bool(strings.Contains(combined, "verify")),
		"contains_password": Bool(strings.Contains(combined, "password")),
	}
}

// CleanText strips markup, lowercases, drops ASCII punctuation and
// stopwords, and joins the remaining tokens with single spaces.
func CleanText(s string) string {
	text := strings.ToLower(stripHTML(s))
	text = strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && isASCIIPunct(byte(r)) {
			return -1
		}
		return r
	}, text)
	tokens := strings.Fields(text)
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; !stop {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// stripHTML returns the text content of s. Script and style bodies are
// dropped; entities are decoded. Training text that kept script bodies
// yields larger text_length, num_words and num_digits than this does.
func stripHTML(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func isASCIIPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}
