package langsync

import "gazetteer-data/internal/domain"

// Lookups is the read-only reference data the reconciler resolves against.
type Lookups interface {
	PostTown(ref int64, lang domain.Language) (domain.LinkedReference, bool)
	SubLocality(ref int64, lang domain.Language) (domain.LinkedReference, bool)
	Postcode(ref int64) (string, bool)
	StreetDescriptor(usrn int64, lang domain.Language) (string, bool)
}

// TableLookups answers Lookups from an in-memory snapshot by linear scan.
type TableLookups struct {
	tables domain.LookupTables
}

// NewTableLookups wraps t. The snapshot is not copied and must not be mutated afterwards.
func NewTableLookups(t domain.LookupTables) *TableLookups {
	return &TableLookups{tables: t}
}

func (l *TableLookups) PostTown(ref int64, lang domain.Language) (domain.LinkedReference, bool) {
	return domain.FindLinked(l.tables.PostTowns, ref, lang)
}

func (l *TableLookups) SubLocality(ref int64, lang domain.Language) (domain.LinkedReference, bool) {
	return domain.FindLinked(l.tables.SubLocalities, ref, lang)
}

func (l *TableLookups) Postcode(ref int64) (string, bool) {
	for _, p := range l.tables.Postcodes {
		if p.Ref == ref {
			return p.Value, true
		}
	}
	return "", false
}

func (l *TableLookups) StreetDescriptor(usrn int64, lang domain.Language) (string, bool) {
	for _, s := range l.tables.StreetDescriptors {
		if s.Usrn == usrn && s.Language == lang {
			return s.Descriptor, true
		}
	}
	return "", false
}
