// export.go implements GET /trip/export.
// Returns the whole itinerary as a flat table.
// Supports ?format=csv, ?format=yaml or the default JSON.

package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// Export formats accepted in the format query parameter.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// getExport handles GET /trip/export.
func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	rows := s.export.Export()

	switch format := r.URL.Query().Get("format"); format {
	case "", FormatJSON:
		writeJSON(w, http.StatusOK, rows)
	case FormatCSV:
		writeCSV(w, rows)
	case FormatYAML:
		out, err := yaml.Marshal(rows)
		if err != nil {
			s.fail(w, r, err, "")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	default:
		requestError(w, "format must be one of json, csv, yaml")
	}
}

// writeCSV encodes rows with a header line. The body is buffered so the
// Content-Length is known before anything is written.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer writes cannot fail.
	cw.Write(domain.CSVHeader())
	for _, row := range rows {
		//nolint:errcheck
		cw.Write(row.CSVRecord())
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
