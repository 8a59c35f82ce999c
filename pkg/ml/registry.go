package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"rakshak/pkg/metrics"
	"rakshak/pkg/structlog"
)

// ErrModelUnavailable is returned by Get for families that failed to load
// or were never configured.
var ErrModelUnavailable = errors.New("model unavailable")

// ArtifactSpec says where a family's model lives under the models root:
// <root>/<Dir>/models/<Model>, plus an optional feature list next to it.
type ArtifactSpec struct {
	Family   Family `yaml:"family" json:"family"`
	Dir      string `yaml:"dir" json:"dir"`
	Model    string `yaml:"model" json:"model"`
	Features string `yaml:"features,omitempty" json:"features,omitempty"`
}

func (s ArtifactSpec) modelPath(root string) string {
	return filepath.Join(root, s.Dir, "models", s.Model)
}

func (s ArtifactSpec) featuresPath(root string) string {
	if s.Features == "" {
		return ""
	}
	return filepath.Join(root, s.Dir, "models", s.Features)
}

// DefaultLayout mirrors the directory tree the models are exported into.
func DefaultLayout() []ArtifactSpec {
	return []ArtifactSpec{
		{Family: Phishing, Dir: "phishing", Model: "phishing_rf_model.json", Features: "phishing_features.json"},
		{Family: Malware, Dir: "malware", Model: "malware_rf_model.json", Features: "malware_features.json"},
		{Family: Ransomware, Dir: "Ransomware", Model: "ransomware_rf_model.json"},
		{Family: Network, Dir: "networking", Model: "network_rf_model.json"},
		{Family: ZeroDay, Dir: "zero_day_attack", Model: "zero_day_model.json"},
	}
}

// Entry is one family's slot in the registry: either a ready model or the
// reason it is not.
type Entry struct {
	Family        Family
	Classifier    Classifier
	Schema        *FeatureSchema
	PositiveClass string
	Path          string
	Checksum      string
	LoadedAt      time.Time
	Err           error
}

func (e Entry) Ready() bool { return e.Err == nil && e.Classifier != nil && e.Schema != nil }

// NewEntry wraps an in-memory classifier as a ready entry.
func NewEntry(family Family, clf Classifier, schema *FeatureSchema) Entry {
	return Entry{Family: family, Classifier: clf, Schema: schema, LoadedAt: time.Now()}
}

// FailedEntry records a family that could not be loaded.
func FailedEntry(family Family, err error) Entry {
	return Entry{Family: family, Err: err}
}

// Status is the externally visible view of an entry.
type Status struct {
	Family   Family    `json:"family"`
	Loaded   bool      `json:"loaded"`
	Path     string    `json:"path,omitempty"`
	Checksum string    `json:"checksum,omitempty"`
	Classes  []string  `json:"classes,omitempty"`
	Features int       `json:"features,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
	Error    string    `json:"error,omitempty"`
}

// Registry maps families to loaded models. It is built once and never
// mutated, so concurrent readers need no locking.
type Registry struct {
	entries map[Family]Entry
}

// NewRegistry builds a registry from entries. Later entries for the same
// family replace earlier ones.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{entries: make(map[Family]Entry, len(entries))}
	for _, e := range entries {
		r.entries[e.Family] = e
	}
	return r
}

type loadOptions struct {
	log     *structlog.Logger
	metrics *metrics.Inference
}

type Option func(*loadOptions)

func WithLogger(l *structlog.Logger) Option { return func(o *loadOptions) { o.log = l } }

func WithMetrics(m *metrics.Inference) Option { return func(o *loadOptions) { o.metrics = m } }

// LoadAll loads every family in layout from root. A family that fails is
// logged and recorded as unavailable; the others load regardless.
func LoadAll(root string, layout []ArtifactSpec, opts ...Option) *Registry {
	o := loadOptions{log: structlog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	entries := make([]Entry, 0, len(layout))
	for _, spec := range layout {
		e := loadOne(root, spec)
		if e.Ready() {
			o.log.Info("model loaded", structlog.Fields{
				"family":   string(spec.Family),
				"path":     e.Path,
				"checksum": e.Checksum,
				"features": e.Schema.Len(),
				"classes":  e.Classifier.Classes(),
			})
		} else {
			o.log.Warn("model unavailable", structlog.Fields{
				"family": string(spec.Family),
				"path":   e.Path,
				"error":  e.Err,
			})
		}
		o.metrics.SetModelLoaded(string(spec.Family), e.Ready())
		entries = append(entries, e)
	}
	return NewRegistry(entries...)
}

func loadOne(root string, spec ArtifactSpec) Entry {
	path := spec.modelPath(root)
	fail := func(err error) Entry {
		e := FailedEntry(spec.Family, err)
		e.Path = path
		return e
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("read artifact: %w", err))
	}
	art, err := ParseArtifact(data)
	if err != nil {
		return fail(err)
	}
	if art.Family != "" && art.Family != spec.Family {
		return fail(fmt.Errorf("artifact is for family %q", art.Family))
	}

	schema := art.Schema
	if fp := spec.featuresPath(root); fp != "" {
		if schema, err = loadFeatureList(fp, art); err != nil {
			return fail(err)
		}
	}
	if schema == nil {
		return fail(errors.New("artifact has no feature schema"))
	}
	if dc, ok := art.Classifier.(*DenseClassifier); ok {
		if n := dc.Estimator.NumFeatures(); n > 0 && n != schema.Len() {
			return fail(fmt.Errorf("%w: schema has %d slots, estimator wants %d", ErrWidthMismatch, schema.Len(), n))
		}
	}

	sum := sha256.Sum256(data)
	return Entry{
		Family:        spec.Family,
		Classifier:    art.Classifier,
		Schema:        schema,
		PositiveClass: art.PositiveClass,
		Path:          path,
		Checksum:      hex.EncodeToString(sum[:]),
		LoadedAt:      time.Now().UTC(),
	}
}

// loadFeatureList reads a JSON array of names. Slot kinds follow the
// artifact's own schema where it names the column.
func loadFeatureList(path string, art *Artifact) (*FeatureSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature list: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode feature list: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.New("feature list is empty")
	}
	slots := make([]Slot, len(names))
	for i, n := range names {
		slots[i] = Slot{Name: n, Kind: Numeric}
		if art.Schema != nil {
			if j := art.Schema.Index(n); j >= 0 {
				slots[i].Kind = art.Schema.slots[j].Kind
			}
		}
	}
	return NewFeatureSchema(slots)
}

// Get returns the family's entry, or ErrModelUnavailable.
func (r *Registry) Get(f Family) (Entry, error) {
	e, ok := r.entries[f]
	if !ok {
		return Entry{Family: f}, fmt.Errorf("%w: %s is not configured", ErrModelUnavailable, f)
	}
	if !e.Ready() {
		if e.Err != nil {
			return e, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, f, e.Err)
		}
		return e, fmt.Errorf("%w: %s", ErrModelUnavailable, f)
	}
	return e, nil
}

// Families returns the configured families, sorted.
func (r *Registry) Families() []Family {
	out := make([]Family, 0, len(r.entries))
	for f := range r.entries {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Status reports every configured family, sorted by name.
func (r *Registry) Status() []Status {
	out := make([]Status, 0, len(r.entries))
	for _, f := range r.Families() {
		e := r.entries[f]
		s := Status{Family: f, Loaded: e.Ready(), Path: e.Path, Checksum: e.Checksum}
		if e.Ready() {
			s.Classes = e.Classifier.Classes()
			s.Features = e.Schema.Len()
			s.LoadedAt = e.LoadedAt
		}
		if e.Err != nil {
			s.Error = e.Err.Error()
		}
		out = append(out, s)
	}
	return out
}

// Ready counts the families with a usable model.
func (r *Registry) Ready() int {
	n := 0
	for _, e := range r.entries {
		if e.Ready() {
			n++
		}
	}
	return n
}
