package features

import (
	"testing"
)

func TestURLFeatures(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want map[string]float64
	}{
		{
			name: "ip literal with login path",
			url:  "http://192.168.1.5/login/verify-account",
			want: map[string]float64{
				"url_length": 39, "num_dots": 3, "num_hyphens": 1, "num_digits": 8,
				"has_https": 0, "has_at_symbol": 0, "num_slash": 4, "has_ip_address": 1,
				"contains_login": 1, "contains_verify": 1,
			},
		},
		{
			name: "https hostname",
			url:  "https://user@Example.com/a",
			want: map[string]float64{
				"url_length": 26, "num_dots": 1, "num_hyphens": 0, "num_digits": 0,
				"has_https": 1, "has_at_symbol": 1, "num_slash": 3, "has_ip_address": 0,
				"contains_login": 0, "contains_verify": 0,
			},
		},
		{
			name: "empty",
			url:  "",
			want: map[string]float64{
				"url_length": 0, "num_dots": 0, "num_hyphens": 0, "num_digits": 0,
				"has_https": 0, "has_at_symbol": 0, "num_slash": 0, "has_ip_address": 0,
				"contains_login": 0, "contains_verify": 0,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := URLFeatures(tt.url).Floats()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d features, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	in := "Verify your PASSWORD now! <p>Click <b>here</b> to login &amp; verify</p><script>var x=1;</script>"
	want := "verify password click login verify"
	if got := CleanText(in); got != want {
		t.Errorf("CleanText() = %q, want %q", got, want)
	}
}

func TestTextFeatures(t *testing.T) {
	got := TextFeatures("Verify your PASSWORD now!", "<p>Click <b>here</b> to login &amp; verify</p>").Floats()
	want := map[string]float64{
		"text_length": 34, "num_words": 5, "num_exclamations": 0, "num_digits": 0,
		"contains_login": 1, "contains_verify": 1, "contains_password": 1,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestExtractPhishing_URLSignalSurvivesEmptyText(t *testing.T) {
	m, err := PhishingInput{URL: "http://192.168.1.5/login/verify-account"}.Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := m.Floats()
	for _, k := range []string{"contains_login", "contains_verify", "has_ip_address"} {
		if got[k] != 1 {
			t.Errorf("%s = %v, want 1", k, got[k])
		}
	}
	if got["num_digits"] != 8 {
		t.Errorf("num_digits = %v, want 8", got["num_digits"])
	}
	if got["text_length"] != 0 {
		t.Errorf("text_length = %v, want 0", got["text_length"])
	}
	for _, name := range PhishingFeatureNames() {
		if _, ok := m[name]; !ok {
			t.Errorf("missing feature %s", name)
		}
	}
}

func TestExtractPhishing_Deterministic(t *testing.T) {
	in := PhishingInput{Subject: "Account locked", Body: "login at http://x.io", URL: "https://x.io/login"}
	a, _ := in.Extract()
	b, _ := in.Extract()
	if len(a) != len(b) {
		t.Fatal("length differs between runs")
	}
	for k, v := range a {
		if b[k] != v {
			t.Errorf("%s differs: %v vs %v", k, v, b[k])
		}
	}
}
