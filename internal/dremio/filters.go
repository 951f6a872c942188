package dremio

import (
	"fmt"
	"regexp"
)

// Pattern is one include/exclude regular-expression filter. An empty
// include list admits everything; excludes are applied after includes.
type Pattern struct {
	includes []*regexp.Regexp
	excludes []*regexp.Regexp
}

// CompilePattern compiles include and exclude expressions.
func CompilePattern(includes, excludes []string) (Pattern, error) {
	var p Pattern
	for _, expr := range includes {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid include pattern %q: %w", expr, err)
		}
		p.includes = append(p.includes, re)
	}
	for _, expr := range excludes {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid exclude pattern %q: %w", expr, err)
		}
		p.excludes = append(p.excludes, re)
	}
	return p, nil
}

// Match reports whether name passes the filter.
func (p Pattern) Match(name string) bool {
	if len(p.includes) > 0 {
		included := false
		for _, re := range p.includes {
			if re.MatchString(name) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, re := range p.excludes {
		if re.MatchString(name) {
			return false
		}
	}
	return true
}

// Filters holds the per-level enumeration filters. Databases are matched on
// the space name, schemas on the full dotted name, tables on the bare
// relation name.
type Filters struct {
	Databases Pattern
	Schemas   Pattern
	Tables    Pattern
}

// NewFilters compiles the three filter levels in one call.
func NewFilters(dbInc, dbExc, schemaInc, schemaExc, tableInc, tableExc []string) (Filters, error) {
	var f Filters
	var err error
	if f.Databases, err = CompilePattern(dbInc, dbExc); err != nil {
		return Filters{}, fmt.Errorf("databases: %w", err)
	}
	if f.Schemas, err = CompilePattern(schemaInc, schemaExc); err != nil {
		return Filters{}, fmt.Errorf("schemas: %w", err)
	}
	if f.Tables, err = CompilePattern(tableInc, tableExc); err != nil {
		return Filters{}, fmt.Errorf("tables: %w", err)
	}
	return f, nil
}
