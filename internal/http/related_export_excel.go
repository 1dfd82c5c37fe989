package httpapi

import (
	"strings"

	"gazetteer-data/internal/service"
)

// RelatedExportHeader is the column order of the related-properties export.
var RelatedExportHeader = []string{
	"UPRN",
	"Parent UPRN",
	"Address",
	"Language",
	"Logical Status",
	"Postcode",
	"Alternate Addresses",
	"Classification",
	"Easting",
	"Northing",
	"Checked",
}

// GenerateRelatedExport renders a session's properties, one row each, in list order.
func GenerateRelatedExport(data *service.ExportData) ([]byte, error) {
	rows := make([][]any, 0, len(data.Properties))
	for _, p := range data.Properties {
		alts := make([]string, 0, len(p.AdditionalLPIs))
		for _, l := range p.AdditionalLPIs {
			alts = append(alts, string(l.Language)+": "+l.Address)
		}
		checked := "No"
		if data.Checked.Has(p.ID()) {
			checked = "Yes"
		}
		rows = append(rows, []any{
			p.ID(),
			p.ParentID(),
			p.PrimaryLPI.Address,
			string(p.PrimaryLPI.Language),
			p.PrimaryLPI.LogicalStatus,
			p.PrimaryLPI.Postcode,
			strings.Join(alts, "; "),
			p.ClassificationCode,
			p.Easting,
			p.Northing,
			checked,
		})
	}
	return generateExcel(sheetDef{
		Name:    "Related Properties",
		Headers: RelatedExportHeader,
		Widths:  []float64{15, 15, 50, 10, 15, 12, 50, 15, 12, 12, 10},
		Rows:    rows,
	})
}
