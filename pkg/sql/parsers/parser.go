// Copyright 2023 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parsers

import (
	"context"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/common/moerr"
	"github.com/matrixorigin/fusequery/pkg/container/types"
	"github.com/matrixorigin/fusequery/pkg/users"
)

type parser struct {
	ctx  context.Context
	toks []Token
	pos  int
}

// Parse parses the semicolon separated statements of sql.
func Parse(ctx context.Context, sql string) ([]Statement, error) {
	toks, err := Tokenize(ctx, sql)
	if err != nil {
		return nil, err
	}
	p := &parser{ctx: ctx, toks: toks}
	var stmts []Statement
	for {
		for p.parseSymbol(";") {
		}
		if p.peek().Kind == TokenEOF {
			return stmts, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if !p.parseSymbol(";") && p.peek().Kind != TokenEOF {
			return nil, p.expected("end of statement")
		}
	}
}

// ParseOne parses sql holding exactly one statement.
func ParseOne(ctx context.Context, sql string) (Statement, error) {
	stmts, err := Parse(ctx, sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, moerr.NewSyntaxError(ctx, "Expected exactly one statement, found %d", len(stmts))
	}
	return stmts[0], nil
}

func (p *parser) peek() Token {
	return p.peekN(0)
}

func (p *parser) peekN(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expected(what string) error {
	return moerr.NewSyntaxError(p.ctx, "Expected %s, found: %s", what, p.peek())
}

func (p *parser) parseKeyword(kw string) bool {
	if p.peek().IsKeyword(kw) {
		p.next()
		return true
	}
	return false
}

// parseKeywords consumes the whole sequence kws or nothing.
func (p *parser) parseKeywords(kws ...string) bool {
	for i, kw := range kws {
		if !p.peekN(i).IsKeyword(kw) {
			return false
		}
	}
	p.pos += len(kws)
	return true
}

func (p *parser) expectKeyword(kw string) error {
	if p.parseKeyword(kw) {
		return nil
	}
	if p.peek().Kind == TokenEOF {
		return moerr.NewSyntaxError(p.ctx, "Expected keyword %s", kw)
	}
	return p.expected("keyword " + kw)
}

func (p *parser) parseSymbol(s string) bool {
	if p.peek().IsSymbol(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectSymbol(s string) error {
	if p.parseSymbol(s) {
		return nil
	}
	return p.expected(s)
}

func (p *parser) parseIdentifier() (string, error) {
	tok := p.peek()
	if tok.Kind == TokenQuotedIdent || (tok.Kind == TokenWord && !isReserved(tok)) {
		p.next()
		return tok.Text, nil
	}
	return "", p.expected("identifier")
}

func (p *parser) parseLiteralString() (string, error) {
	tok := p.peek()
	if tok.Kind != TokenString {
		return "", p.expected("literal string")
	}
	p.next()
	return tok.Text, nil
}

func (p *parser) parseTableName() (TableName, error) {
	first, err := p.parseIdentifier()
	if err != nil {
		return TableName{}, err
	}
	if !p.parseSymbol(".") {
		return TableName{Table: first}, nil
	}
	second, err := p.parseIdentifier()
	if err != nil {
		return TableName{}, err
	}
	return TableName{Database: first, Table: second}, nil
}

func (p *parser) parseStatement() (Statement, error) {
	tok := p.peek()
	if tok.Kind != TokenWord {
		return nil, p.expected("an SQL statement")
	}
	switch strings.ToUpper(tok.Text) {
	case "SELECT":
		sel, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		return sel, nil
	case "INSERT":
		return p.parseInsert()
	case "CREATE":
		p.next()
		switch {
		case p.parseKeyword("DATABASE"):
			return p.parseCreateDatabase()
		case p.parseKeyword("TABLE"):
			return p.parseCreateTable()
		case p.parseKeyword("USER"):
			return p.parseCreateUser()
		}
		return nil, p.expected("DATABASE, TABLE or USER after CREATE")
	case "DROP":
		p.next()
		switch {
		case p.parseKeyword("DATABASE"):
			return p.parseDropDatabase()
		case p.parseKeyword("TABLE"):
			return p.parseDropTable()
		case p.parseKeyword("USER"):
			return p.parseDropUser()
		}
		return nil, p.expected("DATABASE, TABLE or USER after DROP")
	case "ALTER":
		p.next()
		if err := p.expectKeyword("USER"); err != nil {
			return nil, err
		}
		return p.parseAlterUser()
	case "DESCRIBE", "DESC":
		p.next()
		name, err := p.parseTableName()
		if err != nil {
			return nil, err
		}
		return &DescribeTable{Name: name}, nil
	case "SHOW":
		p.next()
		return p.parseShow()
	case "USE":
		p.next()
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &UseDatabase{Name: name}, nil
	case "TRUNCATE":
		p.next()
		p.parseKeyword("TABLE")
		name, err := p.parseTableName()
		if err != nil {
			return nil, err
		}
		return &TruncateTable{Name: name, Purge: p.parseKeyword("PURGE")}, nil
	case "GRANT":
		p.next()
		return p.parseGrant()
	case "REVOKE":
		p.next()
		return p.parseRevoke()
	case "COPY":
		p.next()
		return p.parseCopy()
	case "SET":
		p.next()
		return p.parseSet()
	case "EXPLAIN":
		p.next()
		return p.parseExplain()
	}
	return nil, p.expected("an SQL statement")
}

func (p *parser) parseIfNotExists() bool {
	return p.parseKeywords("IF", "NOT", "EXISTS")
}

func (p *parser) parseIfExists() bool {
	return p.parseKeywords("IF", "EXISTS")
}

func (p *parser) parseCreateDatabase() (Statement, error) {
	stmt := &CreateDatabase{IfNotExists: p.parseIfNotExists(), Options: map[string]string{}}
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	if stmt.Engine, err = p.parseEngine(); err != nil {
		return nil, err
	}
	if err = p.parseOptions(stmt.Options, strings.ToLower); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseDropDatabase() (Statement, error) {
	ifExists := p.parseIfExists()
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	return &DropDatabase{IfExists: ifExists, Name: name}, nil
}

// parseEngine parses an optional ENGINE [=] name.
func (p *parser) parseEngine() (string, error) {
	if !p.parseKeyword("ENGINE") {
		return "", nil
	}
	p.parseSymbol("=")
	return p.parseIdentifier()
}

// parseOptions reads key = value pairs up to the end of the statement.
func (p *parser) parseOptions(opts map[string]string, key func(string) string) error {
	for p.peek().Kind == TokenWord && !isReserved(p.peek()) {
		k := p.next().Text
		if err := p.expectSymbol("="); err != nil {
			return err
		}
		v, err := p.parseOptionValue()
		if err != nil {
			return err
		}
		opts[key(k)] = v
	}
	return nil
}

func (p *parser) parseOptionValue() (string, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenString, TokenNumber, TokenWord, TokenQuotedIdent:
		p.next()
		return tok.Text, nil
	}
	return "", p.expected("option value")
}

func (p *parser) parseCreateTable() (Statement, error) {
	stmt := &CreateTable{IfNotExists: p.parseIfNotExists(), Options: map[string]string{}}
	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	if err = p.expectSymbol("("); err != nil {
		return nil, err
	}
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if !p.parseSymbol(",") {
			break
		}
	}
	if err = p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if stmt.Engine, err = p.parseEngine(); err != nil {
		return nil, err
	}
	if err = p.parseOptions(stmt.Options, strings.ToUpper); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseColumnDef reads name type [NULL | NOT NULL]. Columns are not
// nullable unless NULL is given.
func (p *parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.parseIdentifier()
	if err != nil {
		return ColumnDef{}, err
	}
	typ, err := p.parseDataType()
	if err != nil {
		return ColumnDef{}, err
	}
	col := ColumnDef{Name: name, Type: typ}
	switch {
	case p.parseKeywords("NOT", "NULL"):
	case p.parseKeyword("NULL"):
		col.Nullable = true
	}
	return col, nil
}

func (p *parser) parseDataType() (types.T, error) {
	tok := p.peek()
	if tok.Kind != TokenWord {
		return 0, p.expected("a data type")
	}
	p.next()
	name := tok.Text
	if p.parseKeyword("UNSIGNED") {
		name += " unsigned"
	}
	// varchar(255), decimal lengths are ignored
	if p.parseSymbol("(") {
		for !p.parseSymbol(")") {
			if p.peek().Kind == TokenEOF {
				return 0, p.expected(")")
			}
			p.next()
		}
	}
	typ, err := types.ParseType(name)
	if err != nil {
		return 0, moerr.NewSyntaxError(p.ctx, "Unknown data type: %s", tok.Text)
	}
	return typ, nil
}

func (p *parser) parseDropTable() (Statement, error) {
	ifExists := p.parseIfExists()
	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	return &DropTable{IfExists: ifExists, Name: name}, nil
}

func (p *parser) parseShow() (Statement, error) {
	switch {
	case p.parseKeyword("TABLES"):
		stmt := &ShowTables{}
		if p.parseKeyword("FROM") || p.parseKeyword("IN") {
			db, err := p.parseIdentifier()
			if err != nil {
				return nil, err
			}
			stmt.Database = db
		}
		switch {
		case p.parseKeyword("LIKE"):
			pattern, err := p.parseLiteralString()
			if err != nil {
				return nil, err
			}
			stmt.Filter = &BinaryExpr{Op: "like", Left: NewIdent("name"), Right: NewStringLiteral(pattern)}
		case p.parseKeyword("WHERE"):
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			stmt.Filter = e
		}
		return stmt, nil
	case p.parseKeyword("DATABASES"):
		stmt := &ShowDatabases{}
		switch {
		case p.parseKeyword("LIKE"):
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			stmt.Filter = &BinaryExpr{Op: "like", Left: NewIdent("name"), Right: e}
		case p.parseKeyword("WHERE"):
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			// the column is shown as Database
			stmt.Filter = RewriteIdents(e, func(id *Ident) Expr {
				if strings.EqualFold(id.Name(), "database") {
					return NewIdent("name")
				}
				return id
			})
		}
		return stmt, nil
	case p.parseKeyword("SETTINGS"):
		return &ShowSettings{}, nil
	case p.parseKeyword("GRANTS"):
		stmt := &ShowGrants{}
		if p.parseKeyword("FOR") {
			name, host, err := p.parseUserIdentity()
			if err != nil {
				return nil, err
			}
			stmt.Name, stmt.Hostname = name, host
		}
		return stmt, nil
	}
	return nil, p.expected("TABLES, DATABASES, SETTINGS or GRANTS after SHOW")
}

// parseUserIdentity reads 'name'[@'host'], the host defaulting to %.
func (p *parser) parseUserIdentity() (string, string, error) {
	name, err := p.parseUserPart()
	if err != nil {
		return "", "", err
	}
	if !p.parseSymbol("@") {
		return name, users.AnyHost, nil
	}
	host, err := p.parseUserPart()
	if err != nil {
		return "", "", err
	}
	return name, host, nil
}

func (p *parser) parseUserPart() (string, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenString, TokenQuotedIdent, TokenWord:
		p.next()
		return tok.Text, nil
	}
	return "", p.expected("literal string")
}

// parseAuthOption reads [IDENTIFIED [WITH kind] [BY 'pwd'] | NOT IDENTIFIED].
// IDENTIFIED BY alone selects sha256_password.
func (p *parser) parseAuthOption() (users.AuthType, string, error) {
	if p.parseKeywords("NOT", "IDENTIFIED") || !p.parseKeyword("IDENTIFIED") {
		return users.AuthNone, "", nil
	}
	authType := users.AuthSha256
	if p.parseKeyword("WITH") {
		tok := p.peek()
		t, err := users.ParseAuthType(tok.Text)
		if tok.Kind != TokenWord || err != nil {
			return 0, "", p.expected("auth type")
		}
		p.next()
		if t == users.AuthNone {
			return t, "", nil
		}
		authType = t
	}
	if err := p.expectKeyword("BY"); err != nil {
		return 0, "", err
	}
	pwd, err := p.parseLiteralString()
	if err != nil {
		return 0, "", err
	}
	if pwd == "" {
		return 0, "", moerr.NewSyntaxError(p.ctx, "Missing password")
	}
	return authType, pwd, nil
}

func (p *parser) parseCreateUser() (Statement, error) {
	stmt := &CreateUser{IfNotExists: p.parseIfNotExists()}
	var err error
	if stmt.Name, stmt.Hostname, err = p.parseUserIdentity(); err != nil {
		return nil, err
	}
	if stmt.AuthType, stmt.Password, err = p.parseAuthOption(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseAlterUser() (Statement, error) {
	stmt := &AlterUser{}
	var err error
	if p.peek().IsKeyword("USER") && p.peekN(1).IsSymbol("(") && p.peekN(2).IsSymbol(")") {
		p.pos += 3
		stmt.CurrentUser = true
	} else if stmt.Name, stmt.Hostname, err = p.parseUserIdentity(); err != nil {
		return nil, err
	}
	if stmt.AuthType, stmt.Password, err = p.parseAuthOption(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseDropUser() (Statement, error) {
	ifExists := p.parseIfExists()
	name, host, err := p.parseUserIdentity()
	if err != nil {
		return nil, err
	}
	return &DropUser{IfExists: ifExists, Name: name, Hostname: host}, nil
}

func (p *parser) parsePrivileges() (users.Privileges, error) {
	if p.parseKeyword("ALL") {
		p.parseKeyword("PRIVILEGES")
		return users.PrivilegeAll, nil
	}
	var privs users.Privileges
	for {
		tok := p.peek()
		priv, err := users.ParsePrivilege(tok.Text)
		if tok.Kind != TokenWord || err != nil || priv == users.PrivilegeAll {
			return 0, p.expected("privilege type")
		}
		p.next()
		privs |= priv
		if !p.parseSymbol(",") {
			return privs, nil
		}
	}
}

func (p *parser) parseGrantOn() (GrantOn, error) {
	if p.parseSymbol("*") {
		if p.peek().IsSymbol(".") && p.peekN(1).IsSymbol("*") {
			p.pos += 2
			return GrantOn{Kind: GrantOnGlobal}, nil
		}
		if p.peek().IsSymbol(".") {
			return GrantOn{}, p.expected("whitespace")
		}
		return GrantOn{Kind: GrantOnDatabase}, nil
	}
	first, err := p.parseIdentifier()
	if err != nil {
		return GrantOn{}, err
	}
	if !p.parseSymbol(".") {
		return GrantOn{Kind: GrantOnTable, Table: first}, nil
	}
	tok := p.peek()
	if tok.IsSymbol("*") || (tok.Kind == TokenString && tok.Text == "*") {
		p.next()
		return GrantOn{Kind: GrantOnDatabase, Database: first}, nil
	}
	second, err := p.parseIdentifier()
	if err != nil {
		return GrantOn{}, err
	}
	return GrantOn{Kind: GrantOnTable, Database: first, Table: second}, nil
}

func (p *parser) parseGrant() (Statement, error) {
	privs, err := p.parsePrivileges()
	if err != nil {
		return nil, err
	}
	if err = p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	on, err := p.parseGrantOn()
	if err != nil {
		return nil, err
	}
	if err = p.expectKeyword("TO"); err != nil {
		return nil, err
	}
	name, host, err := p.parseUserIdentity()
	if err != nil {
		return nil, err
	}
	return &Grant{Privileges: privs, On: on, Name: name, Hostname: host}, nil
}

func (p *parser) parseRevoke() (Statement, error) {
	privs, err := p.parsePrivileges()
	if err != nil {
		return nil, err
	}
	if err = p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	on, err := p.parseGrantOn()
	if err != nil {
		return nil, err
	}
	if err = p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	name, host, err := p.parseUserIdentity()
	if err != nil {
		return nil, err
	}
	return &Revoke{Privileges: privs, On: on, Name: name, Hostname: host}, nil
}

func (p *parser) parseInsert() (Statement, error) {
	p.next()
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	stmt := &Insert{Table: name}
	if p.parseSymbol("(") {
		for {
			col, err := p.parseIdentifier()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if !p.parseSymbol(",") {
				break
			}
		}
		if err = p.expectSymbol(")"); err != nil {
			return nil, err
		}
	}
	switch {
	case p.parseKeyword("VALUES"):
		for {
			if err = p.expectSymbol("("); err != nil {
				return nil, err
			}
			row, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			if err = p.expectSymbol(")"); err != nil {
				return nil, err
			}
			stmt.Values = append(stmt.Values, row)
			if !p.parseSymbol(",") {
				break
			}
		}
	case p.peek().IsKeyword("SELECT"):
		if stmt.Select, err = p.parseSelect(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *parser) parseCopy() (Statement, error) {
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	if err = p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	location, err := p.parseLiteralString()
	if err != nil {
		return nil, err
	}
	if err = p.expectKeyword("FORMAT"); err != nil {
		return nil, err
	}
	format, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := &Copy{Table: name, Location: location, Format: strings.ToUpper(format), Options: map[string]string{}}
	if err = p.parseOptions(stmt.Options, strings.ToLower); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseSet() (Statement, error) {
	stmt := &SetVariable{}
	for {
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		if err = p.expectSymbol("="); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Vars = append(stmt.Vars, VarAssign{Name: strings.ToLower(name), Value: value})
		if !p.parseSymbol(",") {
			return stmt, nil
		}
	}
}

func (p *parser) parseExplain() (Statement, error) {
	stmt := &Explain{Kind: ExplainSyntax}
	switch {
	case p.parseKeyword("PIPELINE"):
		stmt.Kind = ExplainPipeline
	case p.parseKeyword("SYNTAX"):
	}
	if !p.peek().IsKeyword("SELECT") {
		return nil, p.expected("SELECT after EXPLAIN")
	}
	sel, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	stmt.Select = sel
	return stmt, nil
}

func (p *parser) parseExprList() ([]Expr, error) {
	var es []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		es = append(es, e)
		if !p.parseSymbol(",") {
			return es, nil
		}
	}
}

func (p *parser) parseSelect() (*Select, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	stmt := &Select{}
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		stmt.Items = append(stmt.Items, item)
		if !p.parseSymbol(",") {
			break
		}
	}
	var err error
	if p.parseKeyword("FROM") {
		if stmt.From, err = p.parseTableRef(); err != nil {
			return nil, err
		}
	}
	if p.parseKeyword("WHERE") {
		if stmt.Where, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if p.parseKeywords("GROUP", "BY") {
		if stmt.GroupBy, err = p.parseExprList(); err != nil {
			return nil, err
		}
	}
	if p.parseKeywords("ORDER", "BY") {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			item := OrderItem{Expr: e}
			if p.parseKeyword("DESC") {
				item.Desc = true
			} else {
				p.parseKeyword("ASC")
			}
			stmt.OrderBy = append(stmt.OrderBy, item)
			if !p.parseSymbol(",") {
				break
			}
		}
	}
	if p.parseKeyword("LIMIT") {
		first, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Limit = first
		switch {
		case p.parseSymbol(","):
			// LIMIT offset, count
			if stmt.Limit, err = p.parseExpr(); err != nil {
				return nil, err
			}
			stmt.Offset = first
		case p.parseKeyword("OFFSET"):
			if stmt.Offset, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
	}
	return stmt, nil
}

func (p *parser) parseSelectItem() (SelectItem, error) {
	if p.parseSymbol("*") {
		return SelectItem{}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: e}
	if p.parseKeyword("AS") {
		if item.Alias, err = p.parseIdentifier(); err != nil {
			return SelectItem{}, err
		}
	} else if tok := p.peek(); tok.Kind == TokenQuotedIdent || (tok.Kind == TokenWord && !isReserved(tok)) {
		item.Alias = p.next().Text
	}
	return item, nil
}

func (p *parser) parseTableRef() (*TableRef, error) {
	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	ref := &TableRef{Name: name}
	if name.Database == "" && p.parseSymbol("(") {
		ref.Args = []Expr{}
		if !p.parseSymbol(")") {
			if ref.Args, err = p.parseExprList(); err != nil {
				return nil, err
			}
			if err = p.expectSymbol(")"); err != nil {
				return nil, err
			}
		}
	}
	return ref, nil
}
