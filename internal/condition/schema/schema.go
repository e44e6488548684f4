package schema

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/2beens/teamcondition/internal/condition/axis"
	"github.com/2beens/teamcondition/internal/condition/catalog"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed default_schema.yaml
var defaultSchemaYAML []byte

// SubPeriodKind tells where the categorical sub-period comes from.
type SubPeriodKind string

const (
	// SubPeriodCamp reads the sub-period (camp number) from a store field.
	SubPeriodCamp SubPeriodKind = "camp"
	// SubPeriodMonth derives the sub-period from the calendar month of the timestamp.
	SubPeriodMonth SubPeriodKind = "month"
)

type Fields struct {
	Tenant         string        `yaml:"tenant"`
	Entity         string        `yaml:"entity"`
	Timestamp      string        `yaml:"timestamp"`
	Year           string        `yaml:"year"`
	SubPeriod      string        `yaml:"sub_period"`
	SubPeriodKind  SubPeriodKind `yaml:"sub_period_kind"`
	InjuryLocation string        `yaml:"injury_location"`
}

type Period struct {
	MinYear      int `yaml:"min_year"`
	SubPeriodMin int `yaml:"sub_period_min"`
	SubPeriodMax int `yaml:"sub_period_max"`
}

type Limits struct {
	MaxEntities int `yaml:"max_entities"`
	MaxMetrics  int `yaml:"max_metrics"`
}

// Overlay configures the season overlay chart mode.
type Overlay struct {
	// Key is "year" or "year_month"
	Key string `yaml:"key"`
}

type TextField struct {
	Label string `yaml:"label" json:"label"`
	Field string `yaml:"field" json:"field"`
}

// FieldOverrides come from the deployment config; empty values keep the schema's choice.
type FieldOverrides struct {
	InjuryLocation string
	Year           string
	SubPeriod      string
}

type document struct {
	Fields      Fields                 `yaml:"fields"`
	Period      Period                 `yaml:"period"`
	Limits      Limits                 `yaml:"limits"`
	Metrics     []catalog.Metric       `yaml:"metrics"`
	Axes        map[string]axis.Policy `yaml:"axes"`
	TextListing []TextField            `yaml:"text_listing"`
	Overlay     Overlay                `yaml:"overlay"`
}

// Schema is the per-deployment configuration data of the dashboard.
type Schema struct {
	Fields      Fields
	Period      Period
	Limits      Limits
	Catalog     *catalog.Catalog
	Axes        *axis.Table
	TextListing []TextField
	Overlay     Overlay

	metrics []catalog.Metric
}

// Default returns the embedded schema of the original deployment.
func Default() (*Schema, error) {
	return Parse(defaultSchemaYAML)
}

// Load reads a schema file; an empty path means the embedded default.
func Load(path string) (*Schema, error) {
	if path == "" {
		log.Debugln("no schema path set, using the embedded default schema")
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema [%s]: %w", path, err)
	}
	return s, nil
}

func Parse(data []byte) (*Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Schema, error) {
	applyDefaults(&doc)

	if doc.Fields.Entity == "" || doc.Fields.Timestamp == "" {
		return nil, fmt.Errorf("entity and timestamp fields are required")
	}
	switch doc.Fields.SubPeriodKind {
	case SubPeriodCamp, SubPeriodMonth:
	default:
		return nil, fmt.Errorf("invalid sub period kind [%s]", doc.Fields.SubPeriodKind)
	}
	if doc.Period.SubPeriodMin > doc.Period.SubPeriodMax {
		return nil, fmt.Errorf("invalid sub period bounds %d..%d", doc.Period.SubPeriodMin, doc.Period.SubPeriodMax)
	}

	cat, err := catalog.New(doc.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metric catalog: %w", err)
	}

	for label := range doc.Axes {
		if _, err := cat.Lookup(label); err != nil {
			log.Warnf("axis policy for metric [%s] which is not in the catalog", label)
		}
	}
	axes, err := axis.NewTable(doc.Axes)
	if err != nil {
		return nil, err
	}

	switch doc.Overlay.Key {
	case "year", "year_month":
	default:
		return nil, fmt.Errorf("invalid overlay key [%s]", doc.Overlay.Key)
	}

	for _, tf := range doc.TextListing {
		if tf.Label == "" || tf.Field == "" {
			return nil, fmt.Errorf("text listing field with empty label or field")
		}
	}

	return &Schema{
		Fields:      doc.Fields,
		Period:      doc.Period,
		Limits:      doc.Limits,
		Catalog:     cat,
		Axes:        axes,
		TextListing: doc.TextListing,
		Overlay:     doc.Overlay,
		metrics:     doc.Metrics,
	}, nil
}

func applyDefaults(doc *document) {
	if doc.Fields.SubPeriodKind == "" {
		doc.Fields.SubPeriodKind = SubPeriodCamp
	}
	if doc.Overlay.Key == "" {
		doc.Overlay.Key = "year"
	}
	if doc.Limits.MaxEntities <= 0 {
		doc.Limits.MaxEntities = 5
	}
	if doc.Limits.MaxMetrics <= 0 {
		doc.Limits.MaxMetrics = 5
	}
	if doc.Period.SubPeriodMin == 0 && doc.Period.SubPeriodMax == 0 {
		if doc.Fields.SubPeriodKind == SubPeriodMonth {
			doc.Period.SubPeriodMin, doc.Period.SubPeriodMax = 1, 12
		} else {
			doc.Period.SubPeriodMin, doc.Period.SubPeriodMax = 1, 7
		}
	}
}

// ApplyOverrides returns a copy of the schema using the given field names.
// Renaming the injury location field also renames it in the catalog and the text listing.
func (s *Schema) ApplyOverrides(o FieldOverrides) (*Schema, error) {
	doc := document{
		Fields:      s.Fields,
		Period:      s.Period,
		Limits:      s.Limits,
		Overlay:     s.Overlay,
		Metrics:     make([]catalog.Metric, len(s.metrics)),
		TextListing: make([]TextField, len(s.TextListing)),
		Axes:        make(map[string]axis.Policy),
	}
	copy(doc.Metrics, s.metrics)
	copy(doc.TextListing, s.TextListing)
	for _, m := range s.metrics {
		if s.Axes.Has(m.Label) {
			doc.Axes[m.Label] = s.Axes.PolicyFor(m.Label)
		}
	}

	if o.InjuryLocation != "" && o.InjuryLocation != s.Fields.InjuryLocation {
		old := s.Fields.InjuryLocation
		doc.Fields.InjuryLocation = o.InjuryLocation
		for i := range doc.Metrics {
			if doc.Metrics[i].Field == old {
				doc.Metrics[i].Field = o.InjuryLocation
			}
		}
		for i := range doc.TextListing {
			if doc.TextListing[i].Field == old {
				doc.TextListing[i].Field = o.InjuryLocation
			}
		}
	}
	if o.Year != "" {
		doc.Fields.Year = o.Year
	}
	if o.SubPeriod != "" {
		doc.Fields.SubPeriod = o.SubPeriod
	}

	return build(doc)
}
