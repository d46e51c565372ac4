package query

import (
	"errors"
	"strconv"
	"strings"
)

// ResultCap bounds every search result.
const ResultCap = 50

// Table is the builds table name.
const Table = "builds"

// Columns is the select list in the order rows are scanned.
var Columns = []string{
	"id",
	"artifact_code",
	"atk",
	"chc",
	"chd",
	"create_date",
	"def",
	"eff",
	"efr",
	"gs",
	"hp",
	"sets",
	"spd",
	"unit_code",
	"unit_name",
}

// Query is a statement template plus its bound arguments, position for
// position.
type Query struct {
	SQL  string
	Args []any
}

type predicateKind uint8

const (
	kindEqual predicateKind = iota
	kindAtLeast
	kindTagPresent
)

// predicate is one set filter criterion.
type predicate struct {
	kind   predicateKind
	column string
	value  any
}

// predicates lists the set criteria of f in their fixed order.
func (f Filter) predicates() []predicate {
	var ps []predicate
	if f.UnitName != nil {
		ps = append(ps, predicate{kind: kindEqual, column: "unit_name", value: *f.UnitName})
	}
	if f.RequiredSet != nil {
		ps = append(ps, predicate{kind: kindTagPresent, column: Table + ".sets", value: *f.RequiredSet})
	}

	thresholds := []struct {
		column string
		min    *int
	}{
		{"atk", f.MinAtk},
		{"hp", f.MinHP},
		{"def", f.MinDef},
		{"spd", f.MinSpd},
		{"chc", f.MinChc},
		{"chd", f.MinChd},
		{"eff", f.MinEff},
		{"efr", f.MinEfr},
		{"gs", f.MinGS},
	}
	for _, t := range thresholds {
		if t.min != nil {
			ps = append(ps, predicate{kind: kindAtLeast, column: t.column, value: *t.min})
		}
	}
	return ps
}

// clauses accumulates conjunctive conditions and their arguments. bind is
// the only way an argument enters, so placeholder n always refers to args[n-1].
type clauses struct {
	dialect Dialect
	conds   []string
	args    []any
}

func (c *clauses) bind(v any) string {
	c.args = append(c.args, v)
	return c.dialect.Placeholder(len(c.args))
}

func (c *clauses) add(p predicate) {
	switch p.kind {
	case kindEqual:
		c.conds = append(c.conds, p.column+" = "+c.bind(p.value))
	case kindAtLeast:
		c.conds = append(c.conds, p.column+" >= "+c.bind(p.value))
	case kindTagPresent:
		c.conds = append(c.conds, c.dialect.TagPresent(p.column, c.bind(p.value)))
	}
}

// Build renders f for dialect d. Results are ordered by id and capped at
// ResultCap rows.
func Build(f Filter, d Dialect) (Query, error) {
	if d == nil {
		return Query{}, errors.New("query: nil dialect")
	}
	if err := f.Validate(); err != nil {
		return Query{}, err
	}

	c := clauses{dialect: d, conds: []string{"1=1"}}
	for _, p := range f.predicates() {
		c.add(p)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(Table)
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(c.conds, " AND "))
	b.WriteString(" ORDER BY id LIMIT ")
	b.WriteString(strconv.Itoa(ResultCap))

	return Query{SQL: b.String(), Args: c.args}, nil
}
