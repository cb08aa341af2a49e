package api

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/mimir-aip/diamond-price/pkg/dataset"
	"github.com/mimir-aip/diamond-price/pkg/models"
)

const (
	overviewTopN = 10
	maxBins      = 200
)

// OverviewResponse is the body of GET /api/v1/overview
type OverviewResponse struct {
	Overview dataset.Overview        `json:"overview"`
	Top      []models.Diamond        `json:"top"`
	Describe []dataset.ColumnSummary `json:"describe"`
}

// handleOverview handles GET /api/v1/overview
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ds := snap.Dataset
	writeJSONResponse(w, http.StatusOK, OverviewResponse{
		Overview: ds.Overview(),
		Top:      ds.TopByPrice(overviewTopN),
		Describe: ds.Describe(),
	})
}

// handleCorrelation handles GET /api/v1/analysis/correlation
func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, snap.Dataset.Correlation())
}

// handleDistributions handles GET /api/v1/analysis/distributions?bins=N
func (s *Server) handleDistributions(w http.ResponseWriter, r *http.Request) {
	bins := dataset.DefaultHistogramBins
	if raw := r.URL.Query().Get("bins"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxBins {
			writeBadRequestResponse(w, fmt.Sprintf("bins must be an integer between 1 and %d", maxBins))
			return
		}
		bins = n
	}

	snap, err := s.service.Snapshot()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	hists, err := snap.Dataset.Distributions(bins)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, hists)
}

// handleCategories handles GET /api/v1/analysis/categories[?column=cut]
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	columns, ok := categoricalColumns(w, r)
	if !ok {
		return
	}
	snap, err := s.service.Snapshot()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make(map[string][]dataset.CategoryCount, len(columns))
	for _, c := range columns {
		counts, err := snap.Dataset.CategoryCounts(c)
		if err != nil {
			writeInternalServerErrorResponse(w, err.Error())
			return
		}
		out[c] = counts
	}
	writeJSONResponse(w, http.StatusOK, out)
}

// handlePriceByCategory handles GET /api/v1/analysis/price-by-category[?column=cut]
func (s *Server) handlePriceByCategory(w http.ResponseWriter, r *http.Request) {
	columns, ok := categoricalColumns(w, r)
	if !ok {
		return
	}
	snap, err := s.service.Snapshot()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make(map[string][]dataset.BoxStats, len(columns))
	for _, c := range columns {
		stats, err := snap.Dataset.PriceByCategory(c)
		if err != nil {
			writeInternalServerErrorResponse(w, err.Error())
			return
		}
		out[c] = stats
	}
	writeJSONResponse(w, http.StatusOK, out)
}

// handleSchema handles GET /api/v1/schema
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	schema, err := snap.Dataset.Schema()
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, schema)
}

// categoricalColumns reads the optional column filter. It writes a 400 and
// returns false for an unknown column.
func categoricalColumns(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	column := r.URL.Query().Get("column")
	if column == "" {
		return dataset.CategoricalColumns, true
	}
	if !slices.Contains(dataset.CategoricalColumns, column) {
		writeBadRequestResponse(w, fmt.Sprintf("unknown categorical column: %s", column))
		return nil, false
	}
	return []string{column}, true
}
