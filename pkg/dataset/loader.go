package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

// IdentifierColumn is the row index column written by pandas; it carries no information
const IdentifierColumn = "Unnamed: 0"

// Column names of the source file, in source order
const (
	ColumnCarat   = "carat"
	ColumnCut     = "cut"
	ColumnColor   = "color"
	ColumnClarity = "clarity"
	ColumnDepth   = "depth"
	ColumnTable   = "table"
	ColumnX       = "x"
	ColumnY       = "y"
	ColumnZ       = "z"
	ColumnPrice   = "price"
)

var requiredColumns = []string{
	ColumnCarat, ColumnCut, ColumnColor, ColumnClarity,
	ColumnDepth, ColumnTable, ColumnX, ColumnY, ColumnZ, ColumnPrice,
}

// Prepare loads the source file, drops the identifier column and removes
// rows with a zero physical dimension. Any read or schema problem is
// returned as a *DataSourceError.
func Prepare(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataSourceError{Source: path, Reason: "failed to read file", Err: err}
	}

	raw, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &DataSourceError{Source: path, Reason: "malformed dataset", Err: err}
	}

	kept := Filter(raw, HasPositiveDimensions)

	log.Info().
		Str("source", path).
		Int("rows", len(raw)).
		Int("dropped", len(raw)-len(kept)).
		Msg("Prepared dataset")

	return New(path, xxhash.Sum64(data), kept), nil
}

// Fingerprint hashes the content of the source file. Two files with the
// same fingerprint produce the same dataset and the same model.
func Fingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &DataSourceError{Source: path, Reason: "failed to open file", Err: err}
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, &DataSourceError{Source: path, Reason: "failed to read file", Err: err}
	}
	return h.Sum64(), nil
}

// Parse reads every row of a diamonds CSV without filtering. Columns other
// than the ten known ones (the identifier column included) are ignored.
func Parse(r io.Reader) ([]models.Diamond, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	records := make([]models.Diamond, 0, 1024)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		d, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, d)
	}

	return records, nil
}

func parseRow(row []string, index map[string]int) (models.Diamond, error) {
	var d models.Diamond
	var err error

	num := func(column string) float64 {
		if err != nil {
			return 0
		}
		v, perr := strconv.ParseFloat(strings.TrimSpace(row[index[column]]), 64)
		if perr != nil {
			err = fmt.Errorf("column %s: %w", column, perr)
		}
		return v
	}

	d.Carat = num(ColumnCarat)
	d.Depth = num(ColumnDepth)
	d.Table = num(ColumnTable)
	d.X = num(ColumnX)
	d.Y = num(ColumnY)
	d.Z = num(ColumnZ)
	d.Price = num(ColumnPrice)
	if err != nil {
		return models.Diamond{}, err
	}

	d.Cut = row[index[ColumnCut]]
	d.Color = row[index[ColumnColor]]
	d.Clarity = row[index[ColumnClarity]]
	if d.Cut == "" || d.Color == "" || d.Clarity == "" {
		return models.Diamond{}, fmt.Errorf("empty categorical value")
	}

	return d, nil
}
