package ml

import (
	"testing"

	"rakshak/pkg/features"
)

func TestFeatureSchema_ProjectFillsEverySlot(t *testing.T) {
	schema, err := NewFeatureSchema([]Slot{
		{Name: "src_bytes", Kind: Numeric},
		{Name: "protocol_type", Kind: Categorical},
		{Name: "serror_rate", Kind: Numeric},
		{Name: "port", Kind: Categorical},
	})
	if err != nil {
		t.Fatal(err)
	}

	vec := schema.Project(features.Mapping{
		"src_bytes": features.String("12.5"),
		"port":      features.Number(443),
		"extra":     features.Number(9),
	})

	if vec.Len() != schema.Len() {
		t.Fatalf("Len = %d, want %d", vec.Len(), schema.Len())
	}
	if got := vec.At(0).Float(); got != 12.5 {
		t.Errorf("src_bytes = %v, want 12.5", got)
	}
	if got := vec.At(1); !got.IsString() || got.Text() != "unknown" {
		t.Errorf("protocol_type = %v, want unknown", got.Text())
	}
	if got := vec.At(2).Float(); got != 0 {
		t.Errorf("serror_rate = %v, want 0", got)
	}
	if got := vec.At(3).Text(); got != "443" {
		t.Errorf("port = %q, want 443", got)
	}
	if _, ok := vec.Lookup("extra"); ok {
		t.Error("extra key should be dropped")
	}
}

func TestFeatureSchema_ProjectBadNumberReadsZero(t *testing.T) {
	schema, _ := NumericSchema([]string{"x"})
	vec := schema.Project(features.Mapping{"x": features.String("abc")})
	if got := vec.Dense()[0]; got != 0 {
		t.Errorf("x = %v, want 0", got)
	}
}

func TestFeatureSchema_DuplicateNames(t *testing.T) {
	if _, err := NumericSchema([]string{"a", "b", "a"}); err == nil {
		t.Error("expected duplicate slot error")
	}
}

func TestFeatureVector_Digest(t *testing.T) {
	schema, _ := NumericSchema([]string{"a", "b"})
	m := features.Mapping{"a": features.Number(1), "b": features.Number(2)}
	d1 := schema.Project(m).Digest()
	d2 := schema.Project(m).Digest()
	if d1 != d2 {
		t.Error("digest not stable")
	}
	m["b"] = features.Number(3)
	if schema.Project(m).Digest() == d1 {
		t.Error("digest ignores values")
	}
}

func TestParseFamily(t *testing.T) {
	tests := map[string]Family{
		"phishing":          Phishing,
		"Network-Intrusion": Network,
		"networking":        Network,
		"zero_day":          ZeroDay,
		" malware ":         Malware,
	}
	for in, want := range tests {
		got, err := ParseFamily(in)
		if err != nil || got != want {
			t.Errorf("ParseFamily(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFamily("firmware"); err == nil {
		t.Error("expected error for unknown family")
	}
}
