package domain

// LinkedReference is a post town or sub-locality row. LinkedRef points at the row
// describing the same place in the other language; zero means no counterpart.
type LinkedReference struct {
	Ref       int64    `json:"ref"`
	Language  Language `json:"language"`
	LinkedRef int64    `json:"linkedRef"`
	Value     string   `json:"value"`
}

// Postcode lookup row.
type Postcode struct {
	Ref   int64  `json:"ref"`
	Value string `json:"value"`
}

// StreetDescriptor is the per-language name of a street.
type StreetDescriptor struct {
	Usrn       int64    `json:"usrn"`
	Language   Language `json:"language"`
	Descriptor string   `json:"descriptor"`
}

// LookupTables is a read-only snapshot of the tables the address wizard needs.
type LookupTables struct {
	PostTowns         []LinkedReference  `json:"postTowns"`
	SubLocalities     []LinkedReference  `json:"subLocalities"`
	Postcodes         []Postcode         `json:"postcodes"`
	StreetDescriptors []StreetDescriptor `json:"streetDescriptors"`
}

// FindLinked returns the row matching (ref, lang).
func FindLinked(rows []LinkedReference, ref int64, lang Language) (LinkedReference, bool) {
	for _, r := range rows {
		if r.Ref == ref && r.Language == lang {
			return r, true
		}
	}
	return LinkedReference{}, false
}
