package langsync

import (
	"slices"

	"gazetteer-data/internal/domain"
)

// Pair holds the English and alternate-language copies of a wizard record.
type Pair[T any] struct {
	Eng T `json:"eng"`
	Alt T `json:"alt"`
}

// Reconciler brings the two language copies of an address back into agreement
// when the user leaves one language tab.
type Reconciler struct {
	lookups Lookups
}

// NewReconciler creates a Reconciler over lookups.
func NewReconciler(lookups Lookups) *Reconciler {
	return &Reconciler{lookups: lookups}
}

// ReconcileSingle reconciles a single-property address after the user leaves the
// from tab. The record for from is the source; the other record is updated.
// It returns both full records and the json names of destination fields that changed.
func (r *Reconciler) ReconcileSingle(from domain.Language, p Pair[domain.AddressFieldSet]) (Pair[domain.AddressFieldSet], []string) {
	src, dst := p.Eng, p.Alt
	if from != domain.LanguageEnglish {
		src, dst = p.Alt, p.Eng
	}

	c := &changeSet{}
	syncField(c, "usrn", &dst.Usrn, src.Usrn)
	syncField(c, "postcodeRef", &dst.PostcodeRef, src.PostcodeRef)
	syncField(c, "saoStartNumber", &dst.SaoStartNumber, src.SaoStartNumber)
	syncField(c, "saoStartSuffix", &dst.SaoStartSuffix, src.SaoStartSuffix)
	syncField(c, "saoEndNumber", &dst.SaoEndNumber, src.SaoEndNumber)
	syncField(c, "saoEndSuffix", &dst.SaoEndSuffix, src.SaoEndSuffix)
	syncField(c, "paoStartNumber", &dst.PaoStartNumber, src.PaoStartNumber)
	syncField(c, "paoStartSuffix", &dst.PaoStartSuffix, src.PaoStartSuffix)
	syncField(c, "paoEndNumber", &dst.PaoEndNumber, src.PaoEndNumber)
	syncField(c, "paoEndSuffix", &dst.PaoEndSuffix, src.PaoEndSuffix)

	fillText(c, "saoText", &dst.SaoText, src.SaoText)
	fillText(c, "paoText", &dst.PaoText, src.PaoText)

	srcLang := sourceLanguage(from, src.Language)
	r.syncLinked(c, "postTownRef", r.lookups.PostTown, src.PostTownRef, srcLang, &dst.PostTownRef)
	r.syncLinked(c, "subLocalityRef", r.lookups.SubLocality, src.SubLocalityRef, srcLang, &dst.SubLocalityRef)

	if from != domain.LanguageEnglish {
		return Pair[domain.AddressFieldSet]{Eng: dst, Alt: src}, c.fields
	}
	return Pair[domain.AddressFieldSet]{Eng: src, Alt: dst}, c.fields
}

// ReconcileRange is ReconcileSingle for ranges. The destination's address list is
// rebuilt from the source list once the shared fields have been synchronised.
func (r *Reconciler) ReconcileRange(from domain.Language, p Pair[domain.AddressRangeSet]) (Pair[domain.AddressRangeSet], []string) {
	src, dst := p.Eng, p.Alt
	if from != domain.LanguageEnglish {
		src, dst = p.Alt, p.Eng
	}
	src.AddressList = slices.Clone(src.AddressList)

	c := &changeSet{}
	syncField(c, "usrn", &dst.Usrn, src.Usrn)
	syncField(c, "postcodeRef", &dst.PostcodeRef, src.PostcodeRef)
	syncField(c, "rangeType", &dst.RangeType, src.RangeType)
	syncField(c, "rangeStartPrefix", &dst.RangeStartPrefix, src.RangeStartPrefix)
	syncField(c, "rangeStartNumber", &dst.RangeStartNumber, src.RangeStartNumber)
	syncField(c, "rangeStartSuffix", &dst.RangeStartSuffix, src.RangeStartSuffix)
	syncField(c, "rangeEndPrefix", &dst.RangeEndPrefix, src.RangeEndPrefix)
	syncField(c, "rangeEndNumber", &dst.RangeEndNumber, src.RangeEndNumber)
	syncField(c, "rangeEndSuffix", &dst.RangeEndSuffix, src.RangeEndSuffix)
	syncField(c, "numbering", &dst.Numbering, src.Numbering)
	syncField(c, "paoStartNumber", &dst.PaoStartNumber, src.PaoStartNumber)
	syncField(c, "paoStartSuffix", &dst.PaoStartSuffix, src.PaoStartSuffix)
	syncField(c, "paoEndNumber", &dst.PaoEndNumber, src.PaoEndNumber)
	syncField(c, "paoEndSuffix", &dst.PaoEndSuffix, src.PaoEndSuffix)

	fillText(c, "rangeText", &dst.RangeText, src.RangeText)
	fillText(c, "paoText", &dst.PaoText, src.PaoText)

	srcLang := sourceLanguage(from, src.Language)
	r.syncLinked(c, "postTownRef", r.lookups.PostTown, src.PostTownRef, srcLang, &dst.PostTownRef)
	r.syncLinked(c, "subLocalityRef", r.lookups.SubLocality, src.SubLocalityRef, srcLang, &dst.SubLocalityRef)

	rebuilt := r.RebuildAddressList(src, dst)
	if !slices.Equal(rebuilt, dst.AddressList) {
		c.add("addressList")
	}
	dst.AddressList = rebuilt

	if from != domain.LanguageEnglish {
		return Pair[domain.AddressRangeSet]{Eng: dst, Alt: src}, c.fields
	}
	return Pair[domain.AddressRangeSet]{Eng: src, Alt: dst}, c.fields
}

type linkedFinder func(ref int64, lang domain.Language) (domain.LinkedReference, bool)

// syncLinked moves dst to the counterpart of srcRef. An unresolvable ref leaves dst alone.
func (r *Reconciler) syncLinked(c *changeSet, name string, find linkedFinder, srcRef int64, srcLang domain.Language, dst *int64) {
	if srcRef == 0 {
		return
	}
	row, ok := find(srcRef, srcLang)
	if !ok || row.LinkedRef == 0 {
		return
	}
	syncField(c, name, dst, row.LinkedRef)
}

func sourceLanguage(from, recorded domain.Language) domain.Language {
	if recorded.IsValid() {
		return recorded
	}
	return from
}

type changeSet struct {
	fields []string
}

func (c *changeSet) add(name string) {
	c.fields = append(c.fields, name)
}

func syncField[T comparable](c *changeSet, name string, dst *T, src T) {
	if *dst != src {
		*dst = src
		c.add(name)
	}
}

// fillText copies src only into an empty destination.
func fillText(c *changeSet, name string, dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
		c.add(name)
	}
}
