package domain

import "strconv"

// Logical status codes used by the related-properties shortcuts.
const (
	LogicalStatusApproved    = 1
	LogicalStatusAlternative = 3
	LogicalStatusProvisional = 6
	LogicalStatusHistorical  = 8
)

// LPI is a language-tagged address representation of a property.
type LPI struct {
	Language      Language `json:"language"`
	Address       string   `json:"address"`
	LogicalStatus int      `json:"logicalStatus"`
	Postcode      string   `json:"postcode"`
}

// PropertyNode is one BLPU in a related-properties list. ParentUprn is a
// back-reference only; a parent missing from the list makes the node a root.
type PropertyNode struct {
	Uprn               int64   `json:"uprn"`
	ParentUprn         *int64  `json:"parentUprn"`
	PrimaryLPI         LPI     `json:"primary"`
	AdditionalLPIs     []LPI   `json:"additional,omitempty"`
	ClassificationCode string  `json:"classificationCode"`
	Easting            float64 `json:"easting"`
	Northing           float64 `json:"northing"`
}

// ID is the string form used in checked and expanded sets.
func (p PropertyNode) ID() string {
	return strconv.FormatInt(p.Uprn, 10)
}

// ParentID returns the parent UPRN as a string, or "" for none.
func (p PropertyNode) ParentID() string {
	if p.ParentUprn == nil {
		return ""
	}
	return strconv.FormatInt(*p.ParentUprn, 10)
}

// HasLogicalStatus reports whether the primary or any additional LPI carries status.
func (p PropertyNode) HasLogicalStatus(status int) bool {
	if p.PrimaryLPI.LogicalStatus == status {
		return true
	}
	for _, l := range p.AdditionalLPIs {
		if l.LogicalStatus == status {
			return true
		}
	}
	return false
}
