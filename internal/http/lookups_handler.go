package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gazetteer-data/internal/domain"
	"gazetteer-data/internal/repository"
	"gazetteer-data/internal/service"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// LookupsHandler serves the wizard reference tables.
type LookupsHandler struct {
	svc    *service.LookupService
	logger *zap.Logger
}

func NewLookupsHandler(svc *service.LookupService, logger *zap.Logger) *LookupsHandler {
	return &LookupsHandler{svc: svc, logger: logger}
}

// lookupHeaders lists the import columns per kind.
var lookupHeaders = map[repository.LookupKind][]string{
	repository.LookupPostTown:         {"Ref", "Language", "Linked Ref", "Value"},
	repository.LookupSubLocality:      {"Ref", "Language", "Linked Ref", "Value"},
	repository.LookupPostcode:         {"Ref", "Value"},
	repository.LookupStreetDescriptor: {"USRN", "Language", "Descriptor"},
}

// ImportRowError reports a skipped spreadsheet row (1-based, header is row 1).
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// List handles GET /gazetteer/api/v1/lookups
func (h *LookupsHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.Lookups(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(tables))
}

// Template handles GET /gazetteer/api/v1/lookups/template?kind=
func (h *LookupsHandler) Template(w http.ResponseWriter, r *http.Request) {
	kind, err := repository.ParseLookupKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	b, err := generateExcel(sheetDef{Name: string(kind), Headers: lookupHeaders[kind], Widths: []float64{12, 12, 12, 40}})
	if err != nil {
		h.logger.Error("Failed to generate lookup template", zap.String("kind", string(kind)), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to generate template"))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-template.xlsx", kind))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// Import handles POST /gazetteer/api/v1/lookups/import?kind= with a multipart "file".
func (h *LookupsHandler) Import(w http.ResponseWriter, r *http.Request) {
	kind, err := repository.ParseLookupKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10MB max
		writeJSON(w, http.StatusOK, Fail("failed to parse form"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("file not found in request"))
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to parse Excel file: %v", err)))
		return
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		writeJSON(w, http.StatusOK, Fail("Excel file has no sheets"))
		return
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to read rows: %v", err)))
		return
	}

	req, rowErrs, err := parseLookupRows(kind, rows)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	resp, err := h.svc.ImportLookups(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"kind":         resp.Kind,
		"imported":     resp.Imported,
		"failed_count": len(rowErrs),
		"errors":       rowErrs,
	}))
}

// parseLookupRows maps sheet rows onto an import request by header name.
// Unparseable rows are reported and skipped.
func parseLookupRows(kind repository.LookupKind, rows [][]string) (service.ImportLookupsRequest, []ImportRowError, error) {
	req := service.ImportLookupsRequest{Kind: kind}
	rowErrs := []ImportRowError{}
	if len(rows) == 0 {
		return req, rowErrs, fmt.Errorf("sheet is empty")
	}

	headerMap := make(map[string]int)
	for i, h := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range lookupHeaders[kind] {
		if _, ok := headerMap[strings.ToLower(h)]; !ok {
			return req, rowErrs, fmt.Errorf("missing column: %s", h)
		}
	}
	cell := func(row []string, header string) string {
		i := headerMap[strings.ToLower(header)]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if isBlankRow(row) {
			continue
		}
		var err error
		switch kind {
		case repository.LookupPostTown, repository.LookupSubLocality:
			var lr domain.LinkedReference
			if lr.Ref, err = parseRef(cell(row, "Ref"), true); err == nil {
				if lr.LinkedRef, err = parseRef(cell(row, "Linked Ref"), false); err == nil {
					lr.Language = domain.Language(strings.ToUpper(cell(row, "Language")))
					lr.Value = cell(row, "Value")
					err = checkRow(lr.Language, lr.Value)
				}
			}
			if err == nil {
				req.LinkedReferences = append(req.LinkedReferences, lr)
			}
		case repository.LookupPostcode:
			var pc domain.Postcode
			if pc.Ref, err = parseRef(cell(row, "Ref"), true); err == nil {
				pc.Value = strings.ToUpper(cell(row, "Value"))
				if pc.Value == "" {
					err = fmt.Errorf("value is required")
				}
			}
			if err == nil {
				req.Postcodes = append(req.Postcodes, pc)
			}
		case repository.LookupStreetDescriptor:
			var sd domain.StreetDescriptor
			if sd.Usrn, err = parseRef(cell(row, "USRN"), true); err == nil {
				sd.Language = domain.Language(strings.ToUpper(cell(row, "Language")))
				sd.Descriptor = cell(row, "Descriptor")
				err = checkRow(sd.Language, sd.Descriptor)
			}
			if err == nil {
				req.StreetDescriptors = append(req.StreetDescriptors, sd)
			}
		}
		if err != nil {
			rowErrs = append(rowErrs, ImportRowError{Row: rowIdx + 1, Message: err.Error()})
		}
	}
	return req, rowErrs, nil
}

func parseRef(s string, required bool) (int64, error) {
	if s == "" {
		if required {
			return 0, fmt.Errorf("ref is required")
		}
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number: %s", s)
	}
	return n, nil
}

func checkRow(lang domain.Language, value string) error {
	if !lang.IsValid() {
		return fmt.Errorf("invalid language: %s", lang)
	}
	if value == "" {
		return fmt.Errorf("value is required")
	}
	return nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
