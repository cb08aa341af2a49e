package dataset

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var schemaDocument []byte

// FieldKind distinguishes numeric inputs from categorical ones
type FieldKind string

const (
	FieldKindNumeric     FieldKind = "numeric"
	FieldKindCategorical FieldKind = "categorical"
)

// Category orderings for form options
const (
	OrderFirstSeen = "first_seen"
	OrderSorted    = "sorted"
)

// Field describes one input of the prediction form
type Field struct {
	Name    string    `yaml:"name" json:"name"`
	Label   string    `yaml:"label" json:"label"`
	Kind    FieldKind `yaml:"kind" json:"kind"`
	Min     *float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64  `yaml:"max,omitempty" json:"max,omitempty"`
	Default *float64  `yaml:"default,omitempty" json:"default,omitempty"`
	Step    *float64  `yaml:"step,omitempty" json:"step,omitempty"`
	Order   string    `yaml:"order,omitempty" json:"-"`
	Options []string  `yaml:"-" json:"options,omitempty"`
}

// Schema is the full prediction form definition
type Schema struct {
	Fields []Field `yaml:"fields" json:"fields"`
}

// Schema returns the form definition with categorical options taken from the dataset
func (d *Dataset) Schema() (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(schemaDocument, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse form schema: %w", err)
	}

	for i := range schema.Fields {
		f := &schema.Fields[i]
		switch f.Kind {
		case FieldKindNumeric:
			if _, ok := numericAccessors[f.Name]; !ok {
				return nil, fmt.Errorf("schema field %s is not a numeric column", f.Name)
			}
		case FieldKindCategorical:
			options, err := d.Vocabulary(f.Name, f.Order == OrderSorted)
			if err != nil {
				return nil, fmt.Errorf("schema field %s: %w", f.Name, err)
			}
			f.Options = options
		default:
			return nil, fmt.Errorf("schema field %s has unknown kind %q", f.Name, f.Kind)
		}
	}

	return &schema, nil
}
