package metrics

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrKindConflict indicates a metric name was re-registered with a different kind
	ErrKindConflict = errors.New("metric kind conflict")

	// ErrInvalidDefinition indicates a definition failed validation
	ErrInvalidDefinition = errors.New("invalid metric definition")

	// ErrInvalidTags indicates a sample carried tags outside the declared schema
	ErrInvalidTags = errors.New("invalid sample tags")
)

// MaxTagsPerSample caps the number of tags a single sample may carry.
// Free-form tag maps with unbounded key counts would grow per-sample
// memory without bound.
const MaxTagsPerSample = 8

// Kind classifies a metric.
type Kind string

const (
	// KindCounter is a monotonically increasing count.
	KindCounter Kind = "counter"

	// KindGauge is a point-in-time value that can go up or down.
	KindGauge Kind = "gauge"

	// KindHistogram is a distribution of observed values.
	KindHistogram Kind = "histogram"

	// KindTimer is a duration measurement in seconds.
	KindTimer Kind = "timer"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCounter, KindGauge, KindHistogram, KindTimer:
		return true
	}
	return false
}

// Tags is a sample's tag set (dimension name to value).
type Tags map[string]string

// Definition describes one metric in the catalog. Definitions are
// created at startup and live for the process lifetime.
type Definition struct {
	// Name uniquely identifies the metric (e.g. "leads_created_total").
	Name string `json:"name"`

	// Kind classifies the metric.
	Kind Kind `json:"kind"`

	// Unit is the unit of the recorded values (e.g. "leads", "percent", "seconds").
	Unit string `json:"unit,omitempty"`

	// TagKeys declares the tag keys samples of this metric may carry.
	// Samples with undeclared keys are rejected.
	TagKeys []string `json:"tag_keys,omitempty"`

	// Description is a human-readable explanation for diagnostics.
	Description string `json:"description,omitempty"`
}

// validate checks the definition for structural problems.
func (d Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDefinition, d.Kind)
	}
	if len(d.TagKeys) > MaxTagsPerSample {
		return fmt.Errorf("%w: %d tag keys exceeds limit of %d", ErrInvalidDefinition, len(d.TagKeys), MaxTagsPerSample)
	}
	return nil
}

// allowsTags reports whether the given tag set fits the declared schema.
func (d Definition) allowsTags(tags Tags) error {
	if len(tags) > MaxTagsPerSample {
		return fmt.Errorf("%w: %d tags exceeds limit of %d", ErrInvalidTags, len(tags), MaxTagsPerSample)
	}
	for key := range tags {
		if !d.hasTagKey(key) {
			return fmt.Errorf("%w: tag key %q not declared for metric %q", ErrInvalidTags, key, d.Name)
		}
	}
	return nil
}

func (d Definition) hasTagKey(key string) bool {
	for _, k := range d.TagKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Registry is the static catalog of metric definitions. It is safe for
// concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]Definition),
	}
}

// Register adds a definition to the catalog. Registering the same name
// with the same kind again is a no-op; registering it with a different
// kind returns ErrKindConflict.
func (r *Registry) Register(def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.defs[def.Name]
	if ok {
		if existing.Kind != def.Kind {
			return fmt.Errorf("%w: %q registered as %s, re-registered as %s",
				ErrKindConflict, def.Name, existing.Kind, def.Kind)
		}
		// Idempotent re-registration
		return nil
	}

	r.defs[def.Name] = def
	return nil
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	return def, ok
}

// Definitions returns all registered definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
