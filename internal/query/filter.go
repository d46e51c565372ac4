// Package query composes the parameterized build search statement.
//
// A Filter is a sparse set of optional predicates. Build folds the predicates
// that are set, in a fixed order, into one WHERE clause and a matching list
// of bound arguments, rendered for a storage Dialect.
package query

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/deppfellow/buildsearch/internal/errs"
)

// Filter narrows a build search. A nil field imposes no constraint; a field
// pointing at the zero value is a real constraint (MinGS = 0 still requires
// gs >= 0).
type Filter struct {
	UnitName    *string
	RequiredSet *string
	MinAtk      *int
	MinHP       *int
	MinDef      *int
	MinSpd      *int
	MinChc      *int
	MinChd      *int
	MinEff      *int
	MinEfr      *int
	MinGS       *int
}

// Filter keys as accepted by ParseFilter. They double as HTTP query parameter
// names.
const (
	KeyUnitName    = "unit_name"
	KeyRequiredSet = "required_set"
	KeyMinAtk      = "min_atk"
	KeyMinHP       = "min_hp"
	KeyMinDef      = "min_def"
	KeyMinSpd      = "min_spd"
	KeyMinChc      = "min_chc"
	KeyMinChd      = "min_chd"
	KeyMinEff      = "min_eff"
	KeyMinEfr      = "min_efr"
	KeyMinGS       = "min_gs"
)

// thresholdKeys is the order thresholds are parsed and reported in.
var thresholdKeys = []string{
	KeyMinAtk, KeyMinHP, KeyMinDef, KeyMinSpd, KeyMinChc,
	KeyMinChd, KeyMinEff, KeyMinEfr, KeyMinGS,
}

func (f *Filter) threshold(key string) **int {
	switch key {
	case KeyMinAtk:
		return &f.MinAtk
	case KeyMinHP:
		return &f.MinHP
	case KeyMinDef:
		return &f.MinDef
	case KeyMinSpd:
		return &f.MinSpd
	case KeyMinChc:
		return &f.MinChc
	case KeyMinChd:
		return &f.MinChd
	case KeyMinEff:
		return &f.MinEff
	case KeyMinEfr:
		return &f.MinEfr
	case KeyMinGS:
		return &f.MinGS
	}
	return nil
}

// ParseFilter converts raw criteria into a Filter. Keys missing from values
// stay unset. Every malformed value is reported in one validation error.
func ParseFilter(values map[string]string) (Filter, error) {
	var (
		f      Filter
		fields []errs.FieldError
	)

	var unknown []string
	for key := range values {
		if key != KeyUnitName && key != KeyRequiredSet && f.threshold(key) == nil {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	for _, key := range unknown {
		fields = append(fields, errs.FieldError{Field: key, Error: "is not a known filter"})
	}

	if v, ok := values[KeyUnitName]; ok {
		f.UnitName = &v
	}
	if v, ok := values[KeyRequiredSet]; ok {
		f.RequiredSet = &v
	}

	for _, key := range thresholdKeys {
		raw, ok := values[key]
		if !ok {
			continue
		}
		// Stat columns are 32-bit on every backend.
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
		if errors.Is(err, strconv.ErrRange) {
			fields = append(fields, errs.FieldError{Field: key, Error: "is out of range"})
			continue
		}
		if err != nil {
			fields = append(fields, errs.FieldError{Field: key, Error: "must be an integer"})
			continue
		}
		n := int(v)
		*f.threshold(key) = &n
	}

	if len(fields) > 0 {
		return Filter{}, errs.Validation("query.ParseFilter", "invalid filter", fields...)
	}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Validate rejects filters that cannot be turned into a query.
func (f Filter) Validate() error {
	if f.RequiredSet != nil && strings.TrimSpace(*f.RequiredSet) == "" {
		return errs.Validation("query.Filter", "invalid filter",
			errs.FieldError{Field: KeyRequiredSet, Error: "must not be empty"})
	}
	return nil
}

// IsEmpty reports whether no predicate is set.
func (f Filter) IsEmpty() bool {
	return len(f.predicates()) == 0
}
