package catalog

import (
	"errors"
	"fmt"
)

var ErrUnknownMetric = errors.New("unknown metric")

// Kind classifies the values stored in a metric field.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindNumeric, KindText:
		return true
	default:
		return false
	}
}

// Metric pairs a display label with the store field holding its values.
type Metric struct {
	Label string `json:"label" yaml:"label"`
	Field string `json:"field" yaml:"field"`
	Kind  Kind   `json:"kind" yaml:"kind"`
}

func (m Metric) IsNumeric() bool {
	return m.Kind == KindNumeric
}

// Catalog is the bidirectional label <-> field mapping, in declaration order.
// A field may be a placeholder not (yet) present in the store; resolving it
// still succeeds and reads produce absent values.
type Catalog struct {
	metrics      []Metric
	labelToIndex map[string]int
	fieldToIndex map[string]int
}

func New(metrics []Metric) (*Catalog, error) {
	c := &Catalog{
		metrics:      make([]Metric, 0, len(metrics)),
		labelToIndex: make(map[string]int, len(metrics)),
		fieldToIndex: make(map[string]int, len(metrics)),
	}

	for _, m := range metrics {
		if m.Label == "" || m.Field == "" {
			return nil, fmt.Errorf("metric with empty label or field: [%s] [%s]", m.Label, m.Field)
		}
		if m.Kind == "" {
			m.Kind = KindNumeric
		}
		if !m.Kind.IsValid() {
			return nil, fmt.Errorf("metric [%s]: invalid kind [%s]", m.Label, m.Kind)
		}
		if _, ok := c.labelToIndex[m.Label]; ok {
			return nil, fmt.Errorf("duplicate metric label [%s]", m.Label)
		}
		if _, ok := c.fieldToIndex[m.Field]; ok {
			return nil, fmt.Errorf("duplicate metric field [%s]", m.Field)
		}

		c.labelToIndex[m.Label] = len(c.metrics)
		c.fieldToIndex[m.Field] = len(c.metrics)
		c.metrics = append(c.metrics, m)
	}

	return c, nil
}

func (c *Catalog) Lookup(label string) (Metric, error) {
	i, ok := c.labelToIndex[label]
	if !ok {
		return Metric{}, fmt.Errorf("%w: %s", ErrUnknownMetric, label)
	}
	return c.metrics[i], nil
}

func (c *Catalog) ResolveField(label string) (string, error) {
	m, err := c.Lookup(label)
	if err != nil {
		return "", err
	}
	return m.Field, nil
}

// LabelFor is the reverse lookup, field -> label.
func (c *Catalog) LabelFor(field string) (string, bool) {
	i, ok := c.fieldToIndex[field]
	if !ok {
		return "", false
	}
	return c.metrics[i].Label, true
}

// IsNumeric is false for text metrics and for unknown labels.
func (c *Catalog) IsNumeric(label string) bool {
	m, err := c.Lookup(label)
	if err != nil {
		return false
	}
	return m.IsNumeric()
}

// NumericLabels lists the plottable metrics in declaration order.
func (c *Catalog) NumericLabels() []string {
	labels := make([]string, 0, len(c.metrics))
	for _, m := range c.metrics {
		if m.IsNumeric() {
			labels = append(labels, m.Label)
		}
	}
	return labels
}

func (c *Catalog) Metrics() []Metric {
	out := make([]Metric, len(c.metrics))
	copy(out, c.metrics)
	return out
}

func (c *Catalog) Len() int {
	return len(c.metrics)
}
