package sql

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownAggFunc = errors.New("unknown aggregate function")
	ErrFieldNotFound  = errors.New("field not found")
	ErrDuplicateField = errors.New("duplicate field in schema")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrNoCurrentRow   = errors.New("scan is not positioned on a row")
	ErrNotGrouped     = errors.New("column is neither grouped nor aggregated")
)

// LexError is returned when the lexer cannot produce a token, ie unterminated
// string literal or a character that is not part of the language
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (self *LexError) Error() string {
	return fmt.Sprintf("around position(%d: %d): %s", self.Line, self.Col, self.Msg)
}

// SyntaxError is returned by every failed eat, it names what the grammar
// wanted and what was found instead
type SyntaxError struct {
	Line     int
	Col      int
	Expected string
	Actual   string
}

func (self *SyntaxError) Error() string {
	return fmt.Sprintf(
		"around position(%d: %d): expect %s, but got %s",
		self.Line,
		self.Col,
		self.Expected,
		self.Actual,
	)
}
