package sqlparse

// Statement parsing: CREATE/INSERT targets, WITH clause, CTEs, SELECT body,
// SELECT list, optional clauses, ORDER BY.
//
// Grammar:
//
//	statement     → create_stmt | insert_stmt | select_stmt
//	create_stmt   → CREATE [OR REPLACE] (TABLE|VIEW) [IF NOT EXISTS] table_name [AS select_stmt]
//	insert_stmt   → INSERT INTO table_name ["(" ident_list ")"] (select_stmt | VALUES ...)
//	select_stmt   → [WITH cte_list] select_body
//	cte_list      → cte ("," cte)*
//	cte           → identifier AS "(" select_stmt ")"
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_core   → SELECT [DISTINCT|ALL] select_list
//	                [FROM from_clause] [WHERE expr] [GROUP BY expr_list]
//	                [HAVING expr] [QUALIFY expr] [ORDER BY order_list]
//	                [LIMIT expr] [OFFSET expr]
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | table "." "*" | expr [AS identifier]
//	order_list    → order_item ("," order_item)*
//	order_item    → expr [ASC|DESC] [NULLS FIRST|LAST]

// parseStatement parses a complete SQL statement.
func (p *Parser) parseStatement() *Statement {
	var stmt *Statement

	switch p.token.Type {
	case TOKEN_CREATE:
		stmt = p.parseCreate()
	case TOKEN_INSERT:
		stmt = p.parseInsert()
	case TOKEN_SELECT, TOKEN_WITH, TOKEN_LPAREN:
		stmt = &Statement{Kind: StmtSelect, Select: p.parseSelectStmt()}
	default:
		p.addError("expected SELECT, CREATE or INSERT")
		return &Statement{Kind: StmtSelect}
	}

	// Trailing statement terminator
	p.match(TOKEN_SEMI)
	if !p.check(TOKEN_EOF) {
		p.addError("unexpected input after statement end")
	}

	return stmt
}

// parseCreate parses CREATE [OR REPLACE] TABLE|VIEW [IF NOT EXISTS] name [AS select].
// A CREATE TABLE with a plain column-definition list produces a statement
// with no Select: nothing is read, so it carries no lineage.
func (p *Parser) parseCreate() *Statement {
	p.expect(TOKEN_CREATE)

	if p.match(TOKEN_OR) {
		p.expect(TOKEN_REPLACE)
	}

	stmt := &Statement{}
	switch {
	case p.match(TOKEN_TABLE):
		stmt.Kind = StmtCreateTable
	case p.match(TOKEN_VIEW):
		stmt.Kind = StmtCreateView
	default:
		p.addError("expected TABLE or VIEW after CREATE")
		return stmt
	}

	if p.check(TOKEN_IF) {
		p.nextToken()
		p.expect(TOKEN_NOT)
		p.expect(TOKEN_EXISTS)
	}

	stmt.Target = p.parseTableName()
	stmt.Target.Alias = ""

	// Column definition list (CREATE TABLE t (a INT, ...)) is skipped
	// wholesale. A parenthesized query after AS is not a column list; the
	// AS itself was already consumed by the alias probe in parseTableName.
	if p.check(TOKEN_LPAREN) && !p.checkPeek(TOKEN_SELECT) && !p.checkPeek(TOKEN_WITH) {
		p.skipBalancedParens()
	}

	p.match(TOKEN_AS)
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) ||
		(p.check(TOKEN_LPAREN) && (p.checkPeek(TOKEN_SELECT) || p.checkPeek(TOKEN_WITH))) {
		// Dremio view text sometimes omits AS between the name and the query.
		stmt.Select = p.parseSelectStmt()
	}

	return stmt
}

// parseInsert parses INSERT INTO name [(cols)] (select | VALUES ...).
func (p *Parser) parseInsert() *Statement {
	p.expect(TOKEN_INSERT)
	p.expect(TOKEN_INTO)

	stmt := &Statement{Kind: StmtInsert}
	stmt.Target = p.parseTableName()
	stmt.Target.Alias = ""

	// Optional explicit column list
	if p.check(TOKEN_LPAREN) {
		p.nextToken()
		for {
			if !p.check(TOKEN_IDENT) {
				p.addError("expected column name in INSERT column list")
				break
			}
			stmt.TargetColumns = append(stmt.TargetColumns, p.token.Literal)
			p.nextToken()
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
	}

	switch {
	case p.check(TOKEN_SELECT) || p.check(TOKEN_WITH):
		stmt.Select = p.parseSelectStmt()
	case p.check(TOKEN_VALUES):
		// INSERT ... VALUES reads nothing; consume the row constructors.
		p.nextToken()
		for {
			if p.check(TOKEN_LPAREN) {
				p.skipBalancedParens()
			}
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	default:
		p.addError("expected SELECT or VALUES after INSERT target")
	}

	return stmt
}

// skipBalancedParens consumes a parenthesized group including nested groups.
func (p *Parser) skipBalancedParens() {
	depth := 0
	for {
		switch p.token.Type {
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
			if depth == 0 {
				p.nextToken()
				return
			}
		case TOKEN_EOF:
			p.addError("unbalanced parentheses")
			return
		}
		p.nextToken()
	}
}

// parseSelectStmt parses a [WITH ...] SELECT statement.
func (p *Parser) parseSelectStmt() *SelectStmt {
	stmt := &SelectStmt{}

	// Optional WITH clause
	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
	}

	// Required SELECT body
	stmt.Body = p.parseSelectBody()

	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *WithClause {
	p.expect(TOKEN_WITH)
	with := &WithClause{}

	// Optional RECURSIVE
	if p.match(TOKEN_RECURSIVE) {
		with.Recursive = true
	}

	// Parse CTE list
	for {
		cte := p.parseCTE()
		with.CTEs = append(with.CTEs, cte)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{}

	// CTE name
	if !p.check(TOKEN_IDENT) {
		p.addError("expected CTE name")
		return cte
	}
	cte.Name = p.token.Literal
	p.nextToken()

	// AS
	p.expect(TOKEN_AS)

	// ( SelectStatement )
	p.expect(TOKEN_LPAREN)
	cte.Select = p.parseSelectStmt()
	p.expect(TOKEN_RPAREN)

	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}
	body.Left = p.parseSelectCore()

	// Check for set operations
	if p.check(TOKEN_UNION) || p.check(TOKEN_INTERSECT) || p.check(TOKEN_EXCEPT) {
		switch p.token.Type {
		case TOKEN_UNION:
			p.nextToken()
			if p.match(TOKEN_ALL) {
				body.Op = SetOpUnionAll
				body.All = true
			} else {
				body.Op = SetOpUnion
				p.match(TOKEN_DISTINCT) // optional
			}
		case TOKEN_INTERSECT:
			p.nextToken()
			body.Op = SetOpIntersect
			p.match(TOKEN_ALL) // optional
		case TOKEN_EXCEPT:
			p.nextToken()
			body.Op = SetOpExcept
			p.match(TOKEN_ALL) // optional
		}

		// Parse the right side (recursively for chained operations)
		body.Right = p.parseSelectBody()
	}

	return body
}

// parseSelectCore parses a single SELECT clause.
func (p *Parser) parseSelectCore() *SelectCore {
	// Parenthesized select core: (SELECT ...) UNION ...
	if p.check(TOKEN_LPAREN) && p.checkPeek(TOKEN_SELECT) {
		p.nextToken()
		inner := p.parseSelectCore()
		p.expect(TOKEN_RPAREN)
		return inner
	}

	p.expect(TOKEN_SELECT)
	core := &SelectCore{}

	// DISTINCT / ALL
	if p.match(TOKEN_DISTINCT) {
		core.Distinct = true
	} else {
		p.match(TOKEN_ALL) // optional, consume if present
	}

	// SELECT list
	core.Columns = p.parseSelectList()

	// FROM clause
	if p.match(TOKEN_FROM) {
		core.From = p.parseFromClause()
	}

	p.parseClauses(core)

	return core
}

// parseClauses parses the optional clauses after FROM in their ANSI order.
func (p *Parser) parseClauses(core *SelectCore) {
	if p.match(TOKEN_WHERE) {
		core.Where = p.parseExpression()
	}

	if p.check(TOKEN_GROUP) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.GroupBy = p.parseExpressionList()
	}

	if p.match(TOKEN_HAVING) {
		core.Having = p.parseExpression()
	}

	if p.match(TOKEN_QUALIFY) {
		core.Qualify = p.parseExpression()
	}

	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.OrderBy = p.parseOrderByList()
	}

	if p.match(TOKEN_LIMIT) {
		core.Limit = p.parseExpression()
	}

	if p.match(TOKEN_OFFSET) {
		core.Offset = p.parseExpression()
	}
}

// parseSelectList parses the list of SELECT items.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem

	for {
		item := p.parseSelectItem()
		items = append(items, item)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return items
}

// parseSelectItem parses a single SELECT item.
func (p *Parser) parseSelectItem() SelectItem {
	item := SelectItem{}

	// Check for * or table.*
	if p.check(TOKEN_STAR) {
		item.Star = true
		p.nextToken()
		return item
	}

	// Check for table.* pattern using 3-token lookahead (no rollback needed)
	if p.check(TOKEN_IDENT) && p.checkPeek(TOKEN_DOT) && p.checkPeek2(TOKEN_STAR) {
		tableName := p.token.Literal
		p.nextToken() // consume identifier
		p.nextToken() // consume DOT
		p.nextToken() // consume STAR
		item.TableStar = tableName
		return item
	}

	// Regular expression
	item.Expr = p.parseExpression()

	// Optional alias
	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) {
			item.Alias = p.token.Literal
			p.nextToken()
		} else {
			p.addError("expected alias after AS")
		}
	} else if p.check(TOKEN_IDENT) && !p.isKeyword(p.token) {
		// Alias without AS
		item.Alias = p.token.Literal
		p.nextToken()
	}

	return item
}

// parseOrderByList parses a list of ORDER BY items.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem

	for {
		item := p.parseOrderByItem()
		items = append(items, item)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return items
}

// parseOrderByItem parses a single ORDER BY item.
func (p *Parser) parseOrderByItem() OrderByItem {
	item := OrderByItem{}
	item.Expr = p.parseExpression()

	// ASC / DESC
	if p.match(TOKEN_ASC) {
		item.Desc = false
	} else if p.match(TOKEN_DESC) {
		item.Desc = true
	}

	// NULLS FIRST / LAST
	if p.match(TOKEN_NULLS) {
		if p.match(TOKEN_FIRST) {
			b := true
			item.NullsFirst = &b
		} else if p.match(TOKEN_LAST) {
			b := false
			item.NullsFirst = &b
		}
	}

	return item
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []Expr {
	var exprs []Expr

	for {
		expr := p.parseExpression()
		exprs = append(exprs, expr)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return exprs
}
