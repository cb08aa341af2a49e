// Package dataset loads the diamonds table, enforces the record invariants
// the model relies on and computes the summaries served by the API.
package dataset

import (
	"fmt"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

// Dataset is the prepared, read-only sequence of diamond records.
// Every record satisfies HasPositiveDimensions.
type Dataset struct {
	source      string
	fingerprint uint64
	records     []models.Diamond
}

// New builds a Dataset from already cleaned records. The slice is copied.
func New(source string, fingerprint uint64, records []models.Diamond) *Dataset {
	owned := make([]models.Diamond, len(records))
	copy(owned, records)
	return &Dataset{
		source:      source,
		fingerprint: fingerprint,
		records:     owned,
	}
}

// Source returns where the dataset was loaded from
func (d *Dataset) Source() string { return d.source }

// Fingerprint returns the content hash of the source the dataset was built from
func (d *Dataset) Fingerprint() uint64 { return d.fingerprint }

// FingerprintHex returns the fingerprint as a fixed-width hex string
func (d *Dataset) FingerprintHex() string { return fmt.Sprintf("%016x", d.fingerprint) }

// Len returns the number of records
func (d *Dataset) Len() int { return len(d.records) }

// At returns the i-th record
func (d *Dataset) At(i int) models.Diamond { return d.records[i] }

// Records returns a copy of all records
func (d *Dataset) Records() []models.Diamond {
	out := make([]models.Diamond, len(d.records))
	copy(out, d.records)
	return out
}

// DataSourceError reports a missing, unreadable or malformed source file
type DataSourceError struct {
	Source string
	Reason string
	Err    error
}

func (e *DataSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data source %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("data source %s: %s", e.Source, e.Reason)
}

func (e *DataSourceError) Unwrap() error { return e.Err }
