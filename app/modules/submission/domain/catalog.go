package submissiondomain

import (
	"fmt"
	"sort"
	"strings"
)

// Measure is one accepted measurement for a subtype and the reference value
// that earns an RR of 1.0. For steps the reference is also the floor below
// which the workout earns nothing.
type Measure struct {
	Kind      MetricKind `yaml:"kind" json:"kind"`
	Reference float64    `yaml:"reference" json:"reference"`
}

// Subtype configures how one workout subtype is measured.
type Subtype struct {
	Name      string   `yaml:"name" json:"name"`
	Primary   Measure  `yaml:"primary" json:"primary"`
	Alternate *Measure `yaml:"alternate,omitempty" json:"alternate,omitempty"`
}

// Accepts returns the configured measure for kind, if any.
func (s Subtype) Accepts(kind MetricKind) (Measure, bool) {
	if s.Primary.Kind == kind {
		return s.Primary, true
	}
	if s.Alternate != nil && s.Alternate.Kind == kind {
		return *s.Alternate, true
	}
	return Measure{}, false
}

func (s Subtype) describeKinds() string {
	if s.Alternate == nil {
		return string(s.Primary.Kind)
	}
	return fmt.Sprintf("%s or %s", s.Primary.Kind, s.Alternate.Kind)
}

// Validate rejects catalog entries that could never score.
func (s Subtype) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("subtype name is required")
	}
	for _, m := range s.measures() {
		if !m.Kind.Valid() {
			return fmt.Errorf("subtype %s: unknown metric kind %q", s.Name, m.Kind)
		}
		if m.Reference <= 0 {
			return fmt.Errorf("subtype %s: reference for %s must be positive", s.Name, m.Kind)
		}
	}
	if s.Alternate != nil && s.Alternate.Kind == s.Primary.Kind {
		return fmt.Errorf("subtype %s: alternate metric repeats primary kind", s.Name)
	}
	return nil
}

func (s Subtype) measures() []Measure {
	if s.Alternate == nil {
		return []Measure{s.Primary}
	}
	return []Measure{s.Primary, *s.Alternate}
}

// Catalog maps subtype names to their measurement configuration.
type Catalog map[string]Subtype

// NewCatalog validates subtypes and indexes them by lower-cased name.
func NewCatalog(subtypes []Subtype) (Catalog, error) {
	c := make(Catalog, len(subtypes))
	for _, s := range subtypes {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(s.Name)
		if _, dup := c[key]; dup {
			return nil, fmt.Errorf("duplicate subtype %s", s.Name)
		}
		s.Name = key
		c[key] = s
	}
	return c, nil
}

// Lookup finds a subtype by case-insensitive name.
func (c Catalog) Lookup(name string) (Subtype, bool) {
	s, ok := c[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Names lists configured subtypes in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func alt(kind MetricKind, reference float64) *Measure {
	return &Measure{Kind: kind, Reference: reference}
}

// DefaultSubtypes is the catalog used when configuration does not override it.
func DefaultSubtypes() []Subtype {
	return []Subtype{
		{Name: "run", Primary: Measure{MetricDistance, 4.0}, Alternate: alt(MetricDuration, 45)},
		{Name: "walk", Primary: Measure{MetricSteps, 10000}},
		{Name: "cycle", Primary: Measure{MetricDistance, 10.0}, Alternate: alt(MetricDuration, 45)},
		{Name: "swim", Primary: Measure{MetricDistance, 1.0}, Alternate: alt(MetricDuration, 30)},
		{Name: "gym", Primary: Measure{MetricDuration, 45}},
		{Name: "yoga", Primary: Measure{MetricDuration, 45}},
		{Name: "golf", Primary: Measure{MetricHoles, 9}},
	}
}

// DefaultCatalog builds the default catalog. The defaults are static so this
// cannot fail.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(DefaultSubtypes())
	if err != nil {
		panic(err)
	}
	return c
}
