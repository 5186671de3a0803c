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
)

type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	// bare word, keywords included
	TokenWord
	// `quoted` identifier
	TokenQuotedIdent
	TokenString
	TokenNumber
	TokenSymbol
)

type Token struct {
	Kind TokenKind
	// unquoted text for strings and quoted identifiers
	Text string
	Pos  int
}

// String renders the token as it appears in error messages.
func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return "EOF"
	case TokenString:
		return "'" + t.Text + "'"
	case TokenQuotedIdent:
		return "`" + t.Text + "`"
	}
	return t.Text
}

// IsKeyword reports whether t is the bare word kw, case-insensitively.
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == TokenWord && strings.EqualFold(t.Text, kw)
}

func (t Token) IsSymbol(s string) bool {
	return t.Kind == TokenSymbol && t.Text == s
}

var twoCharSymbols = []string{"<>", "!=", "<=", ">=", "::", "||"}

const oneCharSymbols = "(),;.*=<>+-/%@"

// Tokenize splits sql into tokens. Comments and whitespace are dropped;
// the last token is always EOF.
func Tokenize(ctx context.Context, sql string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(sql) {
		c := sql[i]
		switch {
		case isSpace(c):
			i++
		case c == '-' && strings.HasPrefix(sql[i:], "--"):
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
		case c == '#':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
		case c == '/' && strings.HasPrefix(sql[i:], "/*"):
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return nil, moerr.NewSyntaxError(ctx, "Unterminated comment at %d", i)
			}
			i += end + 4
		case c == '\'' || c == '"':
			text, n, err := scanQuoted(ctx, sql[i:], c)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokenString, Text: text, Pos: i})
			i += n
		case c == '`':
			text, n, err := scanQuoted(ctx, sql[i:], c)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: TokenQuotedIdent, Text: text, Pos: i})
			i += n
		case isDigit(c) || (c == '.' && i+1 < len(sql) && isDigit(sql[i+1])):
			start := i
			for i < len(sql) && (isDigit(sql[i]) || sql[i] == '.') {
				i++
			}
			if i < len(sql) && (sql[i] == 'e' || sql[i] == 'E') {
				j := i + 1
				if j < len(sql) && (sql[j] == '+' || sql[j] == '-') {
					j++
				}
				if j < len(sql) && isDigit(sql[j]) {
					i = j
					for i < len(sql) && isDigit(sql[i]) {
						i++
					}
				}
			}
			toks = append(toks, Token{Kind: TokenNumber, Text: sql[start:i], Pos: start})
		case isWordStart(c):
			start := i
			for i < len(sql) && isWordPart(sql[i]) {
				i++
			}
			toks = append(toks, Token{Kind: TokenWord, Text: sql[start:i], Pos: start})
		default:
			matched := false
			for _, s := range twoCharSymbols {
				if strings.HasPrefix(sql[i:], s) {
					toks = append(toks, Token{Kind: TokenSymbol, Text: s, Pos: i})
					i += 2
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if strings.IndexByte(oneCharSymbols, c) < 0 {
				return nil, moerr.NewSyntaxError(ctx, "Unexpected character '%c' at %d", c, i)
			}
			toks = append(toks, Token{Kind: TokenSymbol, Text: string(c), Pos: i})
			i++
		}
	}
	return append(toks, Token{Kind: TokenEOF, Pos: len(sql)}), nil
}

// scanQuoted reads a quoted token starting at s[0]. A doubled quote or a
// backslash escapes the quote character.
func scanQuoted(ctx context.Context, s string, quote byte) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && quote != '`' && i+1 < len(s):
			i++
			b.WriteByte(unescape(s[i]))
		case c == quote:
			if i+1 < len(s) && s[i+1] == quote {
				b.WriteByte(quote)
				i++
				continue
			}
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, moerr.NewSyntaxError(ctx, "Unterminated string literal")
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	}
	return c
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWordStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isWordPart(c byte) bool {
	return isWordStart(c) || isDigit(c)
}
