package selection

import (
	"cmp"
	"fmt"
	"slices"
)

// CheckedSet is a set of UPRN strings.
type CheckedSet map[string]struct{}

// NewCheckedSet returns a set holding ids.
func NewCheckedSet(ids ...string) CheckedSet {
	s := make(CheckedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s CheckedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s CheckedSet) Len() int { return len(s) }

func (s CheckedSet) add(id string) { s[id] = struct{}{} }

func (s CheckedSet) remove(id string) { delete(s, id) }

// Clone returns an independent copy.
func (s CheckedSet) Clone() CheckedSet {
	out := make(CheckedSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Slice returns the members in UPRN order.
func (s CheckedSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.SortFunc(out, compareUPRN)
	return out
}

// compareUPRN orders numeric strings numerically without parsing them.
func compareUPRN(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// Aggregate is the tri-state shown on the "select all" checkbox.
type Aggregate int

const (
	AggregateNone Aggregate = iota
	AggregateSome
	AggregateAll
)

func (a Aggregate) String() string {
	switch a {
	case AggregateAll:
		return "all"
	case AggregateSome:
		return "some"
	default:
		return "none"
	}
}

func (a Aggregate) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Aggregate) UnmarshalText(b []byte) error {
	switch string(b) {
	case "all":
		*a = AggregateAll
	case "some":
		*a = AggregateSome
	case "none":
		*a = AggregateNone
	default:
		return fmt.Errorf("invalid aggregate: %q", b)
	}
	return nil
}

// aggregateOf compares the checked count with the property count. Stale ids
// still count toward checked.
func aggregateOf(checked, total int) Aggregate {
	switch {
	case checked == 0:
		return AggregateNone
	case checked == total:
		return AggregateAll
	default:
		return AggregateSome
	}
}
