package sqlparse

import (
	"sort"
	"strings"
)

// SourceTables returns the deduplicated, sorted physical relations a
// statement reads from. CTE names shadow physical tables of the same name
// inside their WITH scope and are never reported themselves; the relations
// their bodies read are.
func SourceTables(stmt *Statement) []string {
	if stmt == nil || stmt.Select == nil {
		return nil
	}

	c := &sourceCollector{seen: make(map[string]string)}
	c.selectStmt(stmt.Select)

	names := make([]string, 0, len(c.seen))
	for _, fqn := range c.seen {
		names = append(names, fqn)
	}
	sort.Strings(names)
	return names
}

// sourceCollector walks every FROM clause and subquery reachable from a
// statement. shadow is a stack of CTE name sets, innermost last.
type sourceCollector struct {
	seen   map[string]string // lowercased FQN -> FQN as written
	shadow []map[string]bool
}

func (c *sourceCollector) shadowed(name string) bool {
	lower := strings.ToLower(name)
	for i := len(c.shadow) - 1; i >= 0; i-- {
		if c.shadow[i][lower] {
			return true
		}
	}
	return false
}

func (c *sourceCollector) selectStmt(stmt *SelectStmt) {
	if stmt == nil {
		return
	}

	if stmt.With != nil {
		names := make(map[string]bool, len(stmt.With.CTEs))
		for _, cte := range stmt.With.CTEs {
			// A recursive CTE may reference itself; register the name
			// before descending into the body.
			if stmt.With.Recursive {
				names[strings.ToLower(cte.Name)] = true
			}
			c.shadow = append(c.shadow, names)
			c.selectStmt(cte.Select)
			c.shadow = c.shadow[:len(c.shadow)-1]
			names[strings.ToLower(cte.Name)] = true
		}
		c.shadow = append(c.shadow, names)
		defer func() { c.shadow = c.shadow[:len(c.shadow)-1] }()
	}

	c.body(stmt.Body)
}

func (c *sourceCollector) body(body *SelectBody) {
	for body != nil {
		c.core(body.Left)
		body = body.Right
	}
}

func (c *sourceCollector) core(core *SelectCore) {
	if core == nil {
		return
	}
	if core.From != nil {
		c.tableRef(core.From.Source)
		for _, join := range core.From.Joins {
			c.tableRef(join.Right)
			c.expr(join.Condition)
		}
	}
	for _, item := range core.Columns {
		c.expr(item.Expr)
	}
	c.expr(core.Where)
	for _, g := range core.GroupBy {
		c.expr(g)
	}
	c.expr(core.Having)
	c.expr(core.Qualify)
}

func (c *sourceCollector) tableRef(ref TableRef) {
	switch t := ref.(type) {
	case *TableName:
		// Bare names may be CTE references; dotted ones never are.
		if t.Catalog == "" && t.Schema == "" && c.shadowed(t.Name) {
			return
		}
		fqn := t.FQN()
		if _, ok := c.seen[strings.ToLower(fqn)]; !ok {
			c.seen[strings.ToLower(fqn)] = fqn
		}
	case *DerivedTable:
		c.selectStmt(t.Select)
	case *LateralTable:
		c.selectStmt(t.Select)
	}
}

func (c *sourceCollector) expr(expr Expr) {
	switch e := expr.(type) {
	case nil:
	case *BinaryExpr:
		c.expr(e.Left)
		c.expr(e.Right)
	case *UnaryExpr:
		c.expr(e.Expr)
	case *ParenExpr:
		c.expr(e.Expr)
	case *FuncCall:
		for _, arg := range e.Args {
			c.expr(arg)
		}
		c.expr(e.Filter)
	case *CaseExpr:
		c.expr(e.Operand)
		for _, when := range e.Whens {
			c.expr(when.Condition)
			c.expr(when.Result)
		}
		c.expr(e.Else)
	case *CastExpr:
		c.expr(e.Expr)
	case *InExpr:
		c.expr(e.Expr)
		for _, v := range e.Values {
			c.expr(v)
		}
		c.selectStmt(e.Query)
	case *BetweenExpr:
		c.expr(e.Expr)
		c.expr(e.Low)
		c.expr(e.High)
	case *IsNullExpr:
		c.expr(e.Expr)
	case *IsBoolExpr:
		c.expr(e.Expr)
	case *LikeExpr:
		c.expr(e.Expr)
		c.expr(e.Pattern)
	case *SubqueryExpr:
		c.selectStmt(e.Select)
	case *ExistsExpr:
		c.selectStmt(e.Select)
	case *IndexExpr:
		c.expr(e.Expr)
		c.expr(e.Index)
	}
}
