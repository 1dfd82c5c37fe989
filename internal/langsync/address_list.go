package langsync

import (
	"strconv"
	"strings"

	"gazetteer-data/internal/domain"
)

// RebuildAddressList regenerates update's per-unit entries from reference's list.
// Labels are recomputed with reference.RangeText swapped for update.RangeText, and
// addresses use update's street, post town and postcode.
func (r *Reconciler) RebuildAddressList(reference, update domain.AddressRangeSet) []domain.AddressListEntry {
	if len(reference.AddressList) == 0 {
		return []domain.AddressListEntry{}
	}

	street := r.streetDescriptor(update.Usrn, update.Language)
	town := r.postTownName(update.PostTownRef, update.Language)
	postcode, _ := r.lookups.Postcode(update.PostcodeRef)

	out := make([]domain.AddressListEntry, 0, len(reference.AddressList))
	for _, e := range reference.AddressList {
		n := e
		n.SaoText = replaceRangeText(e.SaoText, reference.RangeText, update.RangeText)
		n.PaoText = replaceRangeText(e.PaoText, reference.RangeText, update.RangeText)
		n.MapLabel = MapLabel(n)
		n.Address = FormatAddress(update.Language, n.MapLabel, street, town, postcode)
		n.PostcodeRef = update.PostcodeRef
		n.PostTownRef = update.PostTownRef
		out = append(out, n)
	}
	return out
}

// GenerateAddressList expands the range parameters of set into one entry per unit
// and labels them in set's own language.
func (r *Reconciler) GenerateAddressList(set domain.AddressRangeSet) []domain.AddressListEntry {
	numbers := RangeNumbers(set.RangeStartNumber, set.RangeEndNumber, set.Numbering)
	entries := make([]domain.AddressListEntry, 0, len(numbers))
	for i, n := range numbers {
		e := domain.AddressListEntry{}
		suffix := ""
		switch {
		case i == 0:
			suffix = set.RangeStartSuffix
		case i == len(numbers)-1:
			suffix = set.RangeEndSuffix
		}
		if set.RangeType == domain.RangeTypePao {
			e.PaoStartNumber = n
			e.PaoStartSuffix = suffix
			e.PaoText = set.RangeText
		} else {
			e.SaoStartNumber = n
			e.SaoStartSuffix = suffix
			e.SaoText = set.RangeText
			e.PaoStartNumber = set.PaoStartNumber
			e.PaoStartSuffix = set.PaoStartSuffix
			e.PaoText = set.PaoText
		}
		entries = append(entries, e)
	}
	set.AddressList = entries
	return r.RebuildAddressList(set, set)
}

// RangeNumbers lists the unit numbers from start to end under the numbering scheme.
// A missing or lower end yields the start number alone.
func RangeNumbers(start, end, numbering int) []int {
	if start <= 0 {
		return nil
	}
	if end < start {
		return []int{start}
	}
	step := 1
	if numbering == domain.NumberingOdd || numbering == domain.NumberingEven {
		step = 2
		if numbering == domain.NumberingOdd && start%2 == 0 {
			start++
		}
		if numbering == domain.NumberingEven && start%2 != 0 {
			start++
		}
	}
	out := make([]int, 0, (end-start)/step+1)
	for n := start; n <= end; n += step {
		out = append(out, n)
	}
	return out
}

// MapLabel is the short label shown against a unit on the map: the SAO label
// followed by the PAO label, each omitted when empty.
func MapLabel(e domain.AddressListEntry) string {
	return joinNonEmpty(", ",
		objectLabel(e.SaoStartNumber, e.SaoStartSuffix, e.SaoText),
		objectLabel(e.PaoStartNumber, e.PaoStartSuffix, e.PaoText),
	)
}

// objectLabel renders one addressable object. Number only gives "12A", text only
// gives the text, both give "Text, 12A".
func objectLabel(number int, suffix, text string) string {
	num := numberLabel(number, suffix)
	text = strings.TrimSpace(text)
	switch {
	case num != "" && text == "":
		return num
	case num == "" && text != "":
		return text
	case num != "" && text != "":
		return text + ", " + num
	default:
		return ""
	}
}

func numberLabel(number int, suffix string) string {
	if number <= 0 {
		return ""
	}
	return strconv.Itoa(number) + strings.ToUpper(strings.TrimSpace(suffix))
}

// FormatAddress joins the label, title-cased street, sentence-cased town and
// postcode, inserting separators only between non-empty parts.
func FormatAddress(lang domain.Language, mapLabel, street, town, postcode string) string {
	tag := lang.Tag()
	return joinNonEmpty(", ",
		mapLabel,
		TitleCase(street, tag),
		SentenceCase(town, tag),
		strings.ToUpper(strings.TrimSpace(postcode)),
	)
}

// replaceRangeText swaps the first occurrence of from for to. Text is returned
// verbatim when either range text is empty.
func replaceRangeText(text, from, to string) string {
	if text == "" || from == "" || to == "" || from == to {
		return text
	}
	return strings.Replace(text, from, to, 1)
}

func (r *Reconciler) streetDescriptor(usrn int64, lang domain.Language) string {
	if usrn == 0 {
		return ""
	}
	if s, ok := r.lookups.StreetDescriptor(usrn, lang); ok {
		return s
	}
	if s, ok := r.lookups.StreetDescriptor(usrn, domain.LanguageEnglish); ok {
		return s
	}
	return ""
}

func (r *Reconciler) postTownName(ref int64, lang domain.Language) string {
	if ref == 0 {
		return ""
	}
	if row, ok := r.lookups.PostTown(ref, lang); ok {
		return row.Value
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
