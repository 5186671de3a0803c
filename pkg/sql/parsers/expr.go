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
	"fmt"
	"strings"

	"github.com/matrixorigin/fusequery/pkg/container/types"
)

// Expr is an unbound expression as written in the statement.
type Expr interface {
	fmt.Stringer
	expr()
}

// Ident is a column reference, possibly qualified.
type Ident struct {
	Parts []string
}

type LiteralKind uint8

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNull
)

type Literal struct {
	Kind LiteralKind
	// source text of numbers, unquoted text of strings, "true" or "false"
	Value string
}

// BinaryExpr is an infix operation. Op is lower case: + - * / % = <> < <=
// > >= and or like, "not like".
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// UnaryExpr is "not" or "-".
type UnaryExpr struct {
	Op   string
	Expr Expr
}

type IsNullExpr struct {
	Expr Expr
	Not  bool
}

type FuncCall struct {
	Name     string
	Args     []Expr
	Distinct bool
	// count(*)
	Star bool
}

type CastExpr struct {
	Expr Expr
	Type types.T
}

func (*Ident) expr()      {}
func (*Literal) expr()    {}
func (*BinaryExpr) expr() {}
func (*UnaryExpr) expr()  {}
func (*IsNullExpr) expr() {}
func (*FuncCall) expr()   {}
func (*CastExpr) expr()   {}

func NewIdent(parts ...string) *Ident { return &Ident{Parts: parts} }

// Name is the column name, the last part of a qualified name.
func (e *Ident) Name() string   { return e.Parts[len(e.Parts)-1] }
func (e *Ident) String() string { return strings.Join(e.Parts, ".") }

func NewStringLiteral(s string) *Literal { return &Literal{Kind: LiteralString, Value: s} }
func NewNumberLiteral(s string) *Literal { return &Literal{Kind: LiteralNumber, Value: s} }

func (e *Literal) String() string {
	switch e.Kind {
	case LiteralString:
		return "'" + strings.ReplaceAll(e.Value, "'", "''") + "'"
	case LiteralNull:
		return "NULL"
	}
	return e.Value
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", e.Left, strings.ToUpper(e.Op), e.Right)
}

func (e *UnaryExpr) String() string {
	if e.Op == "not" {
		return "NOT " + e.Expr.String()
	}
	return e.Op + e.Expr.String()
}

func (e *IsNullExpr) String() string {
	if e.Not {
		return e.Expr.String() + " IS NOT NULL"
	}
	return e.Expr.String() + " IS NULL"
}

func (e *FuncCall) String() string {
	switch {
	case e.Star:
		return e.Name + "(*)"
	case e.Distinct:
		return e.Name + "(DISTINCT " + joinExprs(e.Args) + ")"
	}
	return e.Name + "(" + joinExprs(e.Args) + ")"
}

func (e *CastExpr) String() string {
	return fmt.Sprintf("CAST(%s AS %s)", e.Expr, e.Type)
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// RewriteIdents returns e with every identifier replaced by fn(ident).
func RewriteIdents(e Expr, fn func(*Ident) Expr) Expr {
	switch x := e.(type) {
	case *Ident:
		return fn(x)
	case *BinaryExpr:
		return &BinaryExpr{Op: x.Op, Left: RewriteIdents(x.Left, fn), Right: RewriteIdents(x.Right, fn)}
	case *UnaryExpr:
		return &UnaryExpr{Op: x.Op, Expr: RewriteIdents(x.Expr, fn)}
	case *IsNullExpr:
		return &IsNullExpr{Expr: RewriteIdents(x.Expr, fn), Not: x.Not}
	case *CastExpr:
		return &CastExpr{Expr: RewriteIdents(x.Expr, fn), Type: x.Type}
	case *FuncCall:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = RewriteIdents(a, fn)
		}
		return &FuncCall{Name: x.Name, Args: args, Distinct: x.Distinct, Star: x.Star}
	}
	return e
}

// words that end an expression or a select item
var reservedWords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "ORDER": true,
	"BY": true, "LIMIT": true, "OFFSET": true, "AS": true, "ON": true, "TO": true,
	"AND": true, "OR": true, "NOT": true, "LIKE": true, "IS": true, "ASC": true,
	"DESC": true, "VALUES": true, "FORMAT": true, "INTO": true, "UNION": true,
	"HAVING": true, "IN": true,
}

func isReserved(t Token) bool {
	return t.Kind == TokenWord && reservedWords[strings.ToUpper(t.Text)]
}

var comparisonOps = map[string]string{
	"=": "=", "<>": "<>", "!=": "<>", "<": "<", "<=": "<=", ">": ">", ">=": ">=",
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.parseKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.parseKeyword("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.parseKeyword("NOT") {
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "not", Expr: e}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch {
		case tok.Kind == TokenSymbol && comparisonOps[tok.Text] != "":
			p.next()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: comparisonOps[tok.Text], Left: left, Right: right}
		case tok.IsKeyword("LIKE"):
			p.next()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: "like", Left: left, Right: right}
		case tok.IsKeyword("NOT") && p.peekN(1).IsKeyword("LIKE"):
			p.pos += 2
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: "not like", Left: left, Right: right}
		case tok.IsKeyword("IS"):
			p.next()
			not := p.parseKeyword("NOT")
			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			left = &IsNullExpr{Expr: left, Not: not}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if !tok.IsSymbol("+") && !tok.IsSymbol("-") && !tok.IsSymbol("||") {
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if tok.Text == "||" {
			left = &FuncCall{Name: "concat", Args: []Expr{left, right}}
			continue
		}
		left = &BinaryExpr{Op: tok.Text, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if !tok.IsSymbol("*") && !tok.IsSymbol("/") && !tok.IsSymbol("%") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: tok.Text, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	switch {
	case p.parseSymbol("-"):
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := e.(*Literal); ok && lit.Kind == LiteralNumber && !strings.HasPrefix(lit.Value, "-") {
			return NewNumberLiteral("-" + lit.Value), nil
		}
		return &UnaryExpr{Op: "-", Expr: e}, nil
	case p.parseSymbol("+"):
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenNumber:
		p.next()
		return NewNumberLiteral(tok.Text), nil
	case TokenString:
		p.next()
		return NewStringLiteral(tok.Text), nil
	case TokenQuotedIdent:
		return p.parseIdentExpr()
	case TokenSymbol:
		if tok.Text == "(" {
			p.next()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err = p.expectSymbol(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	case TokenWord:
		switch strings.ToUpper(tok.Text) {
		case "NULL":
			p.next()
			return &Literal{Kind: LiteralNull}, nil
		case "TRUE", "FALSE":
			p.next()
			return &Literal{Kind: LiteralBool, Value: strings.ToLower(tok.Text)}, nil
		case "CAST":
			if p.peekN(1).IsSymbol("(") {
				return p.parseCast()
			}
		}
		if isReserved(tok) {
			break
		}
		if p.peekN(1).IsSymbol("(") {
			return p.parseFuncCall()
		}
		return p.parseIdentExpr()
	}
	return nil, p.expected("an expression")
}

func (p *parser) parseIdentExpr() (Expr, error) {
	var parts []string
	for {
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		parts = append(parts, name)
		if !p.peek().IsSymbol(".") {
			return &Ident{Parts: parts}, nil
		}
		p.next()
	}
}

func (p *parser) parseCast() (Expr, error) {
	p.pos += 2
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err = p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	typ, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	if err = p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &CastExpr{Expr: e, Type: typ}, nil
}

func (p *parser) parseFuncCall() (Expr, error) {
	name := strings.ToLower(p.next().Text)
	p.next()
	call := &FuncCall{Name: name}
	if p.parseSymbol(")") {
		return call, nil
	}
	if p.peek().IsSymbol("*") && p.peekN(1).IsSymbol(")") {
		p.pos += 2
		call.Star = true
		return call, nil
	}
	call.Distinct = p.parseKeyword("DISTINCT")
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		// SUBSTRING(s FROM a FOR b)
		if name == "substring" && len(call.Args) < 3 {
			if p.parseKeyword("FROM") || p.parseKeyword("FOR") {
				continue
			}
		}
		if !p.parseSymbol(",") {
			break
		}
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return call, nil
}
