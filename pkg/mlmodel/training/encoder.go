package training

import (
	"fmt"
	"slices"
	"sort"
)

// UnknownCategoryError is returned when a label was not seen while fitting
type UnknownCategoryError struct {
	Column string
	Label  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s category %q", e.Column, e.Label)
}

// EncodingTable maps the labels of one categorical column to integer codes.
// Codes follow byte-wise lexicographic label order, so the same vocabulary
// always yields the same codes.
type EncodingTable struct {
	column string
	labels []string
	codes  map[string]int
}

// FitEncodingTable builds a table from the observed labels of a column
func FitEncodingTable(column string, observed []string) (*EncodingTable, error) {
	if len(observed) == 0 {
		return nil, fmt.Errorf("no labels observed for column %s", column)
	}

	codes := make(map[string]int)
	for _, label := range observed {
		codes[label] = 0
	}
	labels := make([]string, 0, len(codes))
	for label := range codes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for i, label := range labels {
		codes[label] = i
	}

	return &EncodingTable{column: column, labels: labels, codes: codes}, nil
}

// Column returns the name of the encoded column
func (t *EncodingTable) Column() string { return t.column }

// Labels returns the vocabulary in code order
func (t *EncodingTable) Labels() []string { return slices.Clone(t.labels) }

// Encode returns the code of a label
func (t *EncodingTable) Encode(label string) (int, error) {
	code, ok := t.codes[label]
	if !ok {
		return 0, &UnknownCategoryError{Column: t.column, Label: label}
	}
	return code, nil
}

// Decode returns the label of a code
func (t *EncodingTable) Decode(code int) (string, error) {
	if code < 0 || code >= len(t.labels) {
		return "", fmt.Errorf("code %d out of range for column %s", code, t.column)
	}
	return t.labels[code], nil
}
