package sql

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ConstInt = iota
	ConstStr
)

const (
	ExprConst = iota
	ExprField
)

// Constant is the value of a literal and of a field inside of a row. It is
// either an integer or a string, values with different tags never equal.
type Constant struct {
	Ty  int
	Int int64
	Str string
}

func NewIntConstant(v int64) Constant {
	return Constant{Ty: ConstInt, Int: v}
}

func NewStrConstant(v string) Constant {
	return Constant{Ty: ConstStr, Str: v}
}

func (self Constant) IsInt() bool { return self.Ty == ConstInt }
func (self Constant) IsStr() bool { return self.Ty == ConstStr }

func (self Constant) Equal(that Constant) bool {
	if self.Ty != that.Ty {
		return false
	}
	if self.Ty == ConstInt {
		return self.Int == that.Int
	}
	return self.Str == that.Str
}

// Compare orders two constants of the same tag, comparing an integer with a
// string is an error
func (self Constant) Compare(that Constant) (int, error) {
	if self.Ty != that.Ty {
		return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, self, that)
	}
	if self.Ty == ConstInt {
		switch {
		case self.Int < that.Int:
			return -1, nil
		case self.Int > that.Int:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return strings.Compare(self.Str, that.Str), nil
}

// String renders the constant as a SQL literal, so it can be parsed back
func (self Constant) String() string {
	if self.Ty == ConstInt {
		return strconv.FormatInt(self.Int, 10)
	}
	buf := strings.Builder{}
	buf.WriteRune('\'')
	for _, r := range self.Str {
		switch r {
		case '\'':
			buf.WriteString("\\'")
			break
		case '\\':
			buf.WriteString("\\\\")
			break
		case '\n':
			buf.WriteString("\\n")
			break
		case '\t':
			buf.WriteString("\\t")
			break
		default:
			buf.WriteRune(r)
			break
		}
	}
	buf.WriteRune('\'')
	return buf.String()
}

// Row is anything that can hand out field values of the current record, a
// scan is a Row
type Row interface {
	GetVal(field string) (Constant, error)
}

type Expr interface {
	Type() int
	Eval(row Row) (Constant, error)
	String() string
}

// FieldRef references a field by name. The having clause also uses it to
// reference an aggregated output, ie sum(pay)
type FieldRef struct {
	Name string
}

type ConstExpr struct {
	Value Constant
}

func (self *FieldRef) Type() int      { return ExprField }
func (self *FieldRef) String() string { return self.Name }
func (self *FieldRef) Eval(row Row) (Constant, error) {
	return row.GetVal(self.Name)
}

func (self *ConstExpr) Type() int      { return ExprConst }
func (self *ConstExpr) String() string { return self.Value.String() }
func (self *ConstExpr) Eval(row Row) (Constant, error) {
	return self.Value, nil
}

// Term is an equality, lhs = rhs
type Term struct {
	Lhs Expr
	Rhs Expr
}

func NewTerm(lhs, rhs Expr) *Term {
	return &Term{
		Lhs: lhs,
		Rhs: rhs,
	}
}

func (self *Term) IsSatisfied(row Row) (bool, error) {
	l, err := self.Lhs.Eval(row)
	if err != nil {
		return false, err
	}
	r, err := self.Rhs.Eval(row)
	if err != nil {
		return false, err
	}
	return l.Equal(r), nil
}

// EquatesWithConstant returns the constant when the term has the shape
// field = constant, or constant = field
func (self *Term) EquatesWithConstant(field string) (Constant, bool) {
	if f, ok := self.Lhs.(*FieldRef); ok && f.Name == field {
		if c, ok := self.Rhs.(*ConstExpr); ok {
			return c.Value, true
		}
	}
	if f, ok := self.Rhs.(*FieldRef); ok && f.Name == field {
		if c, ok := self.Lhs.(*ConstExpr); ok {
			return c.Value, true
		}
	}
	return Constant{}, false
}

// EquatesWithField returns the other field name when the term has the shape
// field = other
func (self *Term) EquatesWithField(field string) (string, bool) {
	l, lok := self.Lhs.(*FieldRef)
	r, rok := self.Rhs.(*FieldRef)
	if !lok || !rok {
		return "", false
	}
	if l.Name == field {
		return r.Name, true
	}
	if r.Name == field {
		return l.Name, true
	}
	return "", false
}

func (self *Term) String() string {
	return self.Lhs.String() + " = " + self.Rhs.String()
}

// Predicate is a conjunction of terms, the empty predicate is always true
type Predicate struct {
	Terms []*Term
}

func NewPredicate(terms ...*Term) *Predicate {
	return &Predicate{
		Terms: terms,
	}
}

func (self *Predicate) IsEmpty() bool {
	return self == nil || len(self.Terms) == 0
}

// ConjoinWith appends all the terms of that predicate to this predicate
func (self *Predicate) ConjoinWith(that *Predicate) {
	if that == nil {
		return
	}
	self.Terms = append(self.Terms, that.Terms...)
}

func (self *Predicate) IsSatisfied(row Row) (bool, error) {
	if self == nil {
		return true, nil
	}
	for _, t := range self.Terms {
		if ok, err := t.IsSatisfied(row); err != nil {
			return false, err
		} else if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (self *Predicate) EquatesWithConstant(field string) (Constant, bool) {
	if self == nil {
		return Constant{}, false
	}
	for _, t := range self.Terms {
		if c, ok := t.EquatesWithConstant(field); ok {
			return c, true
		}
	}
	return Constant{}, false
}

func (self *Predicate) EquatesWithField(field string) (string, bool) {
	if self == nil {
		return "", false
	}
	for _, t := range self.Terms {
		if f, ok := t.EquatesWithField(field); ok {
			return f, true
		}
	}
	return "", false
}

// Fields lists every field name referenced by the predicate, in order of
// appearance, duplicates included
func (self *Predicate) Fields() []string {
	out := []string{}
	if self == nil {
		return out
	}
	for _, t := range self.Terms {
		for _, e := range []Expr{t.Lhs, t.Rhs} {
			if f, ok := e.(*FieldRef); ok {
				out = append(out, f.Name)
			}
		}
	}
	return out
}

func (self *Predicate) String() string {
	if self == nil {
		return ""
	}
	l := []string{}
	for _, t := range self.Terms {
		l = append(l, t.String())
	}
	return strings.Join(l, " and ")
}
