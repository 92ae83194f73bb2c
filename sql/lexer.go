package sql

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Literal
	TkInt = iota
	TkStr
	TkId

	// Keywords
	TkSelect
	TkFrom
	TkWhere
	TkGroup
	TkBy
	TkHaving
	TkInsert
	TkInto
	TkValues
	TkDelete
	TkUpdate
	TkSet
	TkCreate
	TkTable
	TkView
	TkIndex
	TkOn
	TkIntType
	TkVarchar
	TkAnd
	TkAs

	// Punctuation
	TkLPar
	TkRPar
	TkComma
	TkAssign
	TkSemicolon

	TkError
	TkEof

	// hidden token, the lexer is in this state before the first Next()
	tkBegin
)

var keywordText = map[int]string{
	TkSelect:  "select",
	TkFrom:    "from",
	TkWhere:   "where",
	TkGroup:   "group",
	TkBy:      "by",
	TkHaving:  "having",
	TkInsert:  "insert",
	TkInto:    "into",
	TkValues:  "values",
	TkDelete:  "delete",
	TkUpdate:  "update",
	TkSet:     "set",
	TkCreate:  "create",
	TkTable:   "table",
	TkView:    "view",
	TkIndex:   "index",
	TkOn:      "on",
	TkIntType: "int",
	TkVarchar: "varchar",
	TkAnd:     "and",
	TkAs:      "as",
}

var delimText = map[int]rune{
	TkLPar:      '(',
	TkRPar:      ')',
	TkComma:     ',',
	TkAssign:    '=',
	TkSemicolon: ';',
}

func IsKeyword(tk int) bool {
	_, ok := keywordText[tk]
	return ok
}

func TokenName(tk int) string {
	if kw, ok := keywordText[tk]; ok {
		return fmt.Sprintf("keyword *%s*", kw)
	}
	if d, ok := delimText[tk]; ok {
		return fmt.Sprintf("'%c'", d)
	}
	switch tk {
	case TkInt:
		return "integer constant"
	case TkStr:
		return "string constant"
	case TkId:
		return "identifier"
	case TkEof:
		return "end of input"
	default:
		return "invalid token"
	}
}

type Lexeme struct {
	Text string
	Int  int64
}

// Lexer keeps exactly one buffered token, Token/Lexeme, which is the current
// token of the parser. Match* never consumes, Eat* consumes on success.
type Lexer struct {
	Source string
	Cursor int
	Token  int
	Lexeme Lexeme
	Err    *LexError

	start int // cursor position where the current token starts
}

func (self *Lexer) nextRune() (rune, int) {
	if self.Cursor >= len(self.Source) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(self.Source[self.Cursor:])
}

func (self *Lexer) nextRune2() rune {
	if self.Cursor+1 >= len(self.Source) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(self.Source[self.Cursor+1:])
	return r
}

func (self *Lexer) yield(tk int, sz int) int {
	self.Token = tk
	self.Cursor += sz
	return tk
}

func (self *Lexer) eof() int {
	self.Token = TkEof
	return TkEof
}

// generate a debug position for diagnostic information output
func (self *Lexer) pos(where int) (int, int) {
	line := 1
	col := 1

	for idx, r := range self.Source {
		if idx >= where {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return line, col
}

func (self *Lexer) err(msg string) int {
	line, col := self.pos(self.Cursor)
	self.Err = &LexError{
		Line: line,
		Col:  col,
		Msg:  msg,
	}
	self.Lexeme.Text = self.Err.Error()
	self.Token = TkError
	return TkError
}

func (self *Lexer) errUtf8() int {
	return self.err("invalid utf8 character")
}

func (self *Lexer) lexLineComment() bool {
	for {
		r, sz := self.nextRune()
		if r == utf8.RuneError {
			if sz == 0 {
				return true
			} else {
				self.errUtf8()
				return false
			}
		}

		self.Cursor += sz

		if r == '\n' {
			break
		}
	}

	return true
}

func (self *Lexer) lexBlockComment() bool {
	for {
		r, sz := self.nextRune()
		if r == utf8.RuneError {
			if sz == 0 {
				self.err("block comment is not closed properly")
			} else {
				self.errUtf8()
			}
			return false
		}

		if r == '*' && self.nextRune2() == '/' {
			self.Cursor += 2
			break
		}

		self.Cursor += sz
	}

	return true
}

func (self *Lexer) lexNum(negative bool) int {
	buf := &bytes.Buffer{}
	if negative {
		buf.WriteRune('-')
		self.Cursor++
	}

	for {
		r, sz := self.nextRune()
		if r < '0' || r > '9' {
			break
		}
		buf.WriteRune(r)
		self.Cursor += sz
	}

	i, err := strconv.ParseInt(buf.String(), 10, 64)
	if err != nil {
		return self.err(fmt.Sprintf("invalid integer constant %s", buf.String()))
	}
	self.Lexeme.Int = i
	self.Lexeme.Text = buf.String()
	self.Token = TkInt
	return TkInt
}

func (self *Lexer) lexStr() int {
	buf := &bytes.Buffer{}

	self.Cursor++ // skip the leading quote
	self.Lexeme.Text = ""

	for {
		c, sz := self.nextRune()

		if c == utf8.RuneError {
			if sz == 0 {
				return self.err("string literal is not closed by quote properly")
			} else {
				return self.errUtf8()
			}
		}

		if c == '\'' {
			self.Cursor += sz
			break
		}

		if c == '\\' {
			switch self.nextRune2() {
			case 't':
				buf.WriteRune('\t')
				break
			case 'n':
				buf.WriteRune('\n')
				break
			case '\'':
				buf.WriteRune('\'')
				break
			case '\\':
				buf.WriteRune('\\')
				break
			default:
				return self.err("unknown escape sequences inside of string literal")
			}
			self.Cursor++
		} else {
			buf.WriteRune(c)
		}

		self.Cursor += sz
	}

	self.Lexeme.Text = buf.String()
	self.Token = TkStr
	return self.Token
}

func (self *Lexer) isIdChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (self *Lexer) isIdLeadingChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func (self *Lexer) lexKeywordOrId() int {
	start := self.Cursor
	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError || !self.isIdChar(c) {
			break
		}
		self.Cursor += sz
	}

	text := self.Source[start:self.Cursor]

	// keywords are case insensitive, identifiers are kept as is
	if tk, ok := keywordToken(text); ok {
		self.Lexeme.Text = keywordText[tk]
		self.Token = tk
		return tk
	}

	self.Lexeme.Text = text
	self.Token = TkId
	return TkId
}

func keywordToken(text string) (int, bool) {
	if len(text) > len("varchar") {
		return 0, false
	}
	buf := make([]rune, 0, len(text))
	for _, r := range text {
		buf = append(buf, unicode.ToLower(r))
	}
	lower := string(buf)
	for tk, kw := range keywordText {
		if kw == lower {
			return tk, true
		}
	}
	return 0, false
}

func (self *Lexer) Next() int {
	if self.Token == TkEof || self.Token == TkError {
		return self.Token
	}
	return self.next()
}

func (self *Lexer) next() int {
	for {
		self.start = self.Cursor
		c, sz := self.nextRune()
		if c == utf8.RuneError {
			if sz == 0 {
				return self.eof()
			} else {
				return self.errUtf8()
			}
		}

		switch c {
		case ',':
			return self.yield(TkComma, 1)
		case ';':
			return self.yield(TkSemicolon, 1)
		case '(':
			return self.yield(TkLPar, 1)
		case ')':
			return self.yield(TkRPar, 1)
		case '=':
			return self.yield(TkAssign, 1)

		case '-':
			cc := self.nextRune2()
			if cc == '-' {
				self.Cursor += 2
				if !self.lexLineComment() {
					return self.Token
				}
				break
			} else if cc >= '0' && cc <= '9' {
				return self.lexNum(true)
			} else {
				return self.err("unexpected character '-'")
			}

		case '/':
			if self.nextRune2() == '*' {
				self.Cursor += 2
				if !self.lexBlockComment() {
					return self.Token
				}
				break
			}
			return self.err("unexpected character '/'")

		case ' ', '\r', '\t', '\n', '\b', '\v':
			self.Cursor++
			break

		case '\'':
			return self.lexStr()

		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return self.lexNum(false)

		default:
			if !self.isIdLeadingChar(c) {
				return self.err(fmt.Sprintf("unexpected character '%c'", c))
			}
			return self.lexKeywordOrId()
		}
	}
}

// peekLPar tells whether the first character after the current token, not
// counting whitespace and comments, is '('. Used to figure out function
// position.
func (self *Lexer) peekLPar() bool {
	src := self.Source
	idx := self.Cursor
	for idx < len(src) {
		switch {
		case strings.HasPrefix(src[idx:], "--"):
			nl := strings.IndexByte(src[idx:], '\n')
			if nl < 0 {
				return false
			}
			idx += nl + 1
			break
		case strings.HasPrefix(src[idx:], "/*"):
			end := strings.Index(src[idx+2:], "*/")
			if end < 0 {
				return false
			}
			idx += end + 4
			break
		default:
			switch src[idx] {
			case ' ', '\r', '\t', '\n', '\b', '\v':
				idx++
				break
			case '(':
				return true
			default:
				return false
			}
			break
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Match/Eat interface used by the parser
// ----------------------------------------------------------------------------

func (self *Lexer) tokenDesc() string {
	switch self.Token {
	case TkId:
		return fmt.Sprintf("identifier %q", self.Lexeme.Text)
	case TkInt:
		return fmt.Sprintf("integer constant %d", self.Lexeme.Int)
	case TkStr:
		return fmt.Sprintf("string constant '%s'", self.Lexeme.Text)
	default:
		return TokenName(self.Token)
	}
}

// Fail builds the error for the current token, the lexer error wins when the
// current token is a lexing error
func (self *Lexer) Fail(expected string) error {
	if self.Token == TkError && self.Err != nil {
		return self.Err
	}
	line, col := self.pos(self.start)
	return &SyntaxError{
		Line:     line,
		Col:      col,
		Expected: expected,
		Actual:   self.tokenDesc(),
	}
}

func (self *Lexer) MatchDelim(tk int) bool {
	_, ok := delimText[tk]
	return ok && self.Token == tk
}

func (self *Lexer) MatchKeyword(tk int) bool {
	return IsKeyword(tk) && self.Token == tk
}

func (self *Lexer) MatchId() bool {
	return self.Token == TkId
}

func (self *Lexer) MatchIntConstant() bool {
	return self.Token == TkInt
}

func (self *Lexer) MatchStringConstant() bool {
	return self.Token == TkStr
}

func (self *Lexer) MatchEof() bool {
	return self.Token == TkEof
}

// MatchCall tells whether the current token is an identifier in function
// position, ie followed by '('
func (self *Lexer) MatchCall() bool {
	return self.Token == TkId && self.peekLPar()
}

func (self *Lexer) MatchAggFunc() bool {
	return self.MatchCall() && IsAggFunc(self.Lexeme.Text)
}

func (self *Lexer) EatDelim(tk int) error {
	if !self.MatchDelim(tk) {
		return self.Fail(TokenName(tk))
	}
	self.Next()
	return nil
}

func (self *Lexer) EatKeyword(tk int) error {
	if !self.MatchKeyword(tk) {
		return self.Fail(TokenName(tk))
	}
	self.Next()
	return nil
}

func (self *Lexer) EatId() (string, error) {
	if !self.MatchId() {
		return "", self.Fail("identifier")
	}
	v := self.Lexeme.Text
	self.Next()
	return v, nil
}

func (self *Lexer) EatIntConstant() (int64, error) {
	if !self.MatchIntConstant() {
		return 0, self.Fail("integer constant")
	}
	v := self.Lexeme.Int
	self.Next()
	return v, nil
}

func (self *Lexer) EatStringConstant() (string, error) {
	if !self.MatchStringConstant() {
		return "", self.Fail("string constant")
	}
	v := self.Lexeme.Text
	self.Next()
	return v, nil
}

func (self *Lexer) EatAggFunc() (AggFunc, error) {
	if self.Token != TkId {
		return AggNone, self.Fail("aggregate function")
	}
	fn, ok := AggFuncByName(self.Lexeme.Text)
	if !ok {
		line, col := self.pos(self.start)
		return AggNone, fmt.Errorf(
			"around position(%d: %d): %w %q",
			line,
			col,
			ErrUnknownAggFunc,
			self.Lexeme.Text,
		)
	}
	self.Next()
	return fn, nil
}

func newLexer(source string) *Lexer {
	return &Lexer{
		Source: source,
		Cursor: 0,
		Token:  tkBegin,
	}
}

// NewLexer creates a lexer already positioned on the first token
func NewLexer(source string) *Lexer {
	l := newLexer(source)
	l.Next()
	return l
}
