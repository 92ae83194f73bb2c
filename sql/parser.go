package sql

// Parser of the SQL dialect understood by the query core, recursive descent
// with one token lookahead. The grammar, in EBNF
//
// ### query ------------------------------------------------------------------
//
// query :=
//     SELECT select-list
//     FROM id-list
//     (WHERE predicate)?
//     (GROUP BY id-list (HAVING having-predicate)?)?
//
// select-list := select-item (',' select-item)*
// select-item := agg '(' ID ')' | ID
// agg := COUNT | SUM | AVG | MIN | MAX | RANGE
// id-list := ID (',' ID)*
//
// predicate := term (AND term)*
// term := expr '=' expr
// expr := ID | const
// const := INT | STR
//
// having-predicate := having-term (AND having-term)*
// having-term := having-expr '=' having-expr
// having-expr := agg '(' ID ')' | expr
//
// ### update commands --------------------------------------------------------
//
// insert := INSERT INTO ID '(' id-list ')' VALUES '(' const-list ')'
// delete := DELETE FROM ID (WHERE predicate)?
// update := UPDATE ID SET ID '=' expr (WHERE predicate)?
// create := CREATE (create-table | create-view | create-index)
// create-table := TABLE ID '(' field-def (',' field-def)* ')'
// field-def := ID (INT | VARCHAR '(' INT ')')
// create-view := VIEW ID AS query
// create-index := INDEX ID ON ID '(' ID ')'
//
// ----------------------------------------------------------------------------
//
// Any failure aborts the whole statement, there is no recovery.

import (
	"fmt"
)

type Parser struct {
	L *Lexer
}

func newParser(xx string) *Parser {
	return &Parser{
		L: NewLexer(xx),
	}
}

func NewParser(xx string) *Parser {
	return newParser(xx)
}

func (self *Parser) err(expected string) error {
	return self.L.Fail(expected)
}

// Parse parses exactly one statement of any kind. An optional ';' may follow
// the statement, anything else is an error.
func (self *Parser) Parse() (Statement, error) {
	var stmt Statement

	if self.L.MatchKeyword(TkSelect) {
		if q, err := self.Query(); err != nil {
			return nil, err
		} else {
			stmt = q
		}
	} else {
		if s, err := self.UpdateCmd(); err != nil {
			return nil, err
		} else {
			stmt = s
		}
	}

	if self.L.MatchDelim(TkSemicolon) {
		self.L.Next()
	}
	if !self.L.MatchEof() {
		return nil, self.err("end of statement")
	}
	return stmt, nil
}

// ----------------------------------------------------------------------------
// Predicates, terms, expressions, constants and fields
// ----------------------------------------------------------------------------

func (self *Parser) Field() (string, error) {
	return self.L.EatId()
}

func (self *Parser) Constant() (Constant, error) {
	if self.L.MatchStringConstant() {
		s, err := self.L.EatStringConstant()
		return NewStrConstant(s), err
	}
	if self.L.MatchIntConstant() {
		i, err := self.L.EatIntConstant()
		return NewIntConstant(i), err
	}
	return Constant{}, self.err("constant")
}

func (self *Parser) Expression() (Expr, error) {
	if self.L.MatchId() {
		if f, err := self.Field(); err != nil {
			return nil, err
		} else {
			return &FieldRef{Name: f}, nil
		}
	}
	if c, err := self.Constant(); err != nil {
		return nil, err
	} else {
		return &ConstExpr{Value: c}, nil
	}
}

func (self *Parser) Term() (*Term, error) {
	lhs, err := self.Expression()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkAssign); err != nil {
		return nil, err
	}
	rhs, err := self.Expression()
	if err != nil {
		return nil, err
	}
	return NewTerm(lhs, rhs), nil
}

// aggCall parses fn(field), the current token must be an identifier in
// function position
func (self *Parser) aggCall() (AggFunc, string, error) {
	fn, err := self.L.EatAggFunc()
	if err != nil {
		return AggNone, "", err
	}
	if err := self.L.EatDelim(TkLPar); err != nil {
		return AggNone, "", err
	}
	field, err := self.Field()
	if err != nil {
		return AggNone, "", err
	}
	if err := self.L.EatDelim(TkRPar); err != nil {
		return AggNone, "", err
	}
	return fn, field, nil
}

// havingExpression turns fn(field) into a reference to the aggregated output
// field named "fn(field)"
func (self *Parser) havingExpression() (Expr, error) {
	if self.L.MatchCall() {
		fn, field, err := self.aggCall()
		if err != nil {
			return nil, err
		}
		return &FieldRef{Name: AggFieldName(fn, field)}, nil
	}
	return self.Expression()
}

func (self *Parser) HavingTerm() (*Term, error) {
	lhs, err := self.havingExpression()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkAssign); err != nil {
		return nil, err
	}
	rhs, err := self.havingExpression()
	if err != nil {
		return nil, err
	}
	return NewTerm(lhs, rhs), nil
}

func (self *Parser) conjunction(term func() (*Term, error)) (*Predicate, error) {
	pred := NewPredicate()
	for {
		if t, err := term(); err != nil {
			return nil, err
		} else {
			pred.ConjoinWith(NewPredicate(t))
		}
		if !self.L.MatchKeyword(TkAnd) {
			break
		}
		self.L.Next()
	}
	return pred, nil
}

func (self *Parser) Predicate() (*Predicate, error) {
	return self.conjunction(self.Term)
}

func (self *Parser) Having() (*Predicate, error) {
	return self.conjunction(self.HavingTerm)
}

// ----------------------------------------------------------------------------
// Query
// ----------------------------------------------------------------------------

// element (',' element)*, the list is never empty
func (self *Parser) parseSqlList(
	visitor func(int) error,
) error {
	if err := visitor(0); err != nil {
		return err
	}
	idx := 1

	for self.L.MatchDelim(TkComma) {
		self.L.Next()
		if err := visitor(idx); err != nil {
			return err
		}
		idx++
	}

	return nil
}

func (self *Parser) idList() ([]string, error) {
	out := []string{}
	if err := self.parseSqlList(
		func(_ int) error {
			if id, err := self.L.EatId(); err != nil {
				return err
			} else {
				out = append(out, id)
			}
			return nil
		},
	); err != nil {
		return nil, err
	}
	return out, nil
}

func (self *Parser) selectItem() (SelectItem, error) {
	if self.L.MatchCall() {
		fn, field, err := self.aggCall()
		if err != nil {
			return SelectItem{}, err
		}
		return SelectItem{Func: fn, Field: field}, nil
	}
	if f, err := self.Field(); err != nil {
		return SelectItem{}, err
	} else {
		return SelectItem{Func: AggNone, Field: f}, nil
	}
}

func (self *Parser) selectList() ([]SelectItem, error) {
	out := []SelectItem{}
	if err := self.parseSqlList(
		func(_ int) error {
			if it, err := self.selectItem(); err != nil {
				return err
			} else {
				out = append(out, it)
			}
			return nil
		},
	); err != nil {
		return nil, err
	}
	return out, nil
}

// Query parses a select statement. When no select item uses an aggregate
// function the result is a *QueryData, otherwise an *AggQueryData.
func (self *Parser) Query() (Query, error) {
	if err := self.L.EatKeyword(TkSelect); err != nil {
		return nil, err
	}

	items, err := self.selectList()
	if err != nil {
		return nil, err
	}

	if err := self.L.EatKeyword(TkFrom); err != nil {
		return nil, err
	}
	tables, err := self.idList()
	if err != nil {
		return nil, err
	}

	pred := NewPredicate()
	if self.L.MatchKeyword(TkWhere) {
		self.L.Next()
		if pred, err = self.Predicate(); err != nil {
			return nil, err
		}
	}

	groupBy := []string{}
	having := NewPredicate()
	hasGroupBy := false

	if self.L.MatchKeyword(TkGroup) {
		hasGroupBy = true
		self.L.Next()
		if err := self.L.EatKeyword(TkBy); err != nil {
			return nil, err
		}
		if groupBy, err = self.idList(); err != nil {
			return nil, err
		}
		if self.L.MatchKeyword(TkHaving) {
			self.L.Next()
			if having, err = self.Having(); err != nil {
				return nil, err
			}
		}
	}

	aggregated := false
	for _, it := range items {
		if it.IsAggregated() {
			aggregated = true
			break
		}
	}

	if !aggregated {
		if hasGroupBy {
			return nil, self.err("aggregate function in select list for *group by*")
		}
		fields := make([]string, 0, len(items))
		for _, it := range items {
			fields = append(fields, it.Field)
		}
		return &QueryData{
			Fields: fields,
			Tables: tables,
			Pred:   pred,
		}, nil
	}

	return NewAggQueryData(items, tables, pred, groupBy, having), nil
}

// ----------------------------------------------------------------------------
// Update commands
// ----------------------------------------------------------------------------

func (self *Parser) UpdateCmd() (Statement, error) {
	switch {
	case self.L.MatchKeyword(TkInsert):
		return self.Insert()
	case self.L.MatchKeyword(TkDelete):
		return self.Delete()
	case self.L.MatchKeyword(TkUpdate):
		return self.Modify()
	case self.L.MatchKeyword(TkCreate):
		return self.create()
	default:
		return nil, self.err("statement, one of *select*, *insert*, *delete*, *update*, *create*")
	}
}

func (self *Parser) create() (Statement, error) {
	if err := self.L.EatKeyword(TkCreate); err != nil {
		return nil, err
	}
	switch {
	case self.L.MatchKeyword(TkTable):
		return self.CreateTable()
	case self.L.MatchKeyword(TkView):
		return self.CreateView()
	case self.L.MatchKeyword(TkIndex):
		return self.CreateIndex()
	default:
		return nil, self.err("*table*, *view* or *index* after *create*")
	}
}

func (self *Parser) Delete() (*DeleteData, error) {
	if err := self.L.EatKeyword(TkDelete); err != nil {
		return nil, err
	}
	if err := self.L.EatKeyword(TkFrom); err != nil {
		return nil, err
	}
	table, err := self.L.EatId()
	if err != nil {
		return nil, err
	}
	pred := NewPredicate()
	if self.L.MatchKeyword(TkWhere) {
		self.L.Next()
		if pred, err = self.Predicate(); err != nil {
			return nil, err
		}
	}
	return &DeleteData{
		Table: table,
		Pred:  pred,
	}, nil
}

func (self *Parser) constList() ([]Constant, error) {
	out := []Constant{}
	if err := self.parseSqlList(
		func(_ int) error {
			if c, err := self.Constant(); err != nil {
				return err
			} else {
				out = append(out, c)
			}
			return nil
		},
	); err != nil {
		return nil, err
	}
	return out, nil
}

func (self *Parser) Insert() (*InsertData, error) {
	if err := self.L.EatKeyword(TkInsert); err != nil {
		return nil, err
	}
	if err := self.L.EatKeyword(TkInto); err != nil {
		return nil, err
	}
	table, err := self.L.EatId()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkLPar); err != nil {
		return nil, err
	}
	fields, err := self.idList()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkRPar); err != nil {
		return nil, err
	}
	if err := self.L.EatKeyword(TkValues); err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkLPar); err != nil {
		return nil, err
	}
	vals, err := self.constList()
	if err != nil {
		return nil, err
	}
	if len(vals) != len(fields) {
		return nil, self.err(fmt.Sprintf("%d values to match the field list", len(fields)))
	}
	if err := self.L.EatDelim(TkRPar); err != nil {
		return nil, err
	}
	return &InsertData{
		Table:  table,
		Fields: fields,
		Vals:   vals,
	}, nil
}

func (self *Parser) Modify() (*ModifyData, error) {
	if err := self.L.EatKeyword(TkUpdate); err != nil {
		return nil, err
	}
	table, err := self.L.EatId()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatKeyword(TkSet); err != nil {
		return nil, err
	}
	field, err := self.Field()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkAssign); err != nil {
		return nil, err
	}
	newVal, err := self.Expression()
	if err != nil {
		return nil, err
	}
	pred := NewPredicate()
	if self.L.MatchKeyword(TkWhere) {
		self.L.Next()
		if pred, err = self.Predicate(); err != nil {
			return nil, err
		}
	}
	return &ModifyData{
		Table:  table,
		Field:  field,
		NewVal: newVal,
		Pred:   pred,
	}, nil
}

func (self *Parser) fieldDef(schema *Schema) error {
	name, err := self.Field()
	if err != nil {
		return err
	}

	switch {
	case self.L.MatchKeyword(TkIntType):
		self.L.Next()
		return schema.AddIntField(name)

	case self.L.MatchKeyword(TkVarchar):
		self.L.Next()
		if err := self.L.EatDelim(TkLPar); err != nil {
			return err
		}
		length, err := self.L.EatIntConstant()
		if err != nil {
			return err
		}
		if length <= 0 {
			return self.err("positive varchar length")
		}
		if err := self.L.EatDelim(TkRPar); err != nil {
			return err
		}
		return schema.AddStringField(name, int(length))

	default:
		return self.err("field type, *int* or *varchar*")
	}
}

func (self *Parser) CreateTable() (*CreateTableData, error) {
	if err := self.L.EatKeyword(TkTable); err != nil {
		return nil, err
	}
	table, err := self.L.EatId()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkLPar); err != nil {
		return nil, err
	}
	schema := NewSchema()
	if err := self.parseSqlList(
		func(_ int) error {
			return self.fieldDef(schema)
		},
	); err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkRPar); err != nil {
		return nil, err
	}
	return &CreateTableData{
		Table:  table,
		Schema: schema,
	}, nil
}

func (self *Parser) CreateView() (*CreateViewData, error) {
	if err := self.L.EatKeyword(TkView); err != nil {
		return nil, err
	}
	view, err := self.L.EatId()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatKeyword(TkAs); err != nil {
		return nil, err
	}
	q, err := self.Query()
	if err != nil {
		return nil, err
	}
	return &CreateViewData{
		View:  view,
		Query: q,
	}, nil
}

func (self *Parser) CreateIndex() (*CreateIndexData, error) {
	if err := self.L.EatKeyword(TkIndex); err != nil {
		return nil, err
	}
	index, err := self.L.EatId()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatKeyword(TkOn); err != nil {
		return nil, err
	}
	table, err := self.L.EatId()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkLPar); err != nil {
		return nil, err
	}
	field, err := self.Field()
	if err != nil {
		return nil, err
	}
	if err := self.L.EatDelim(TkRPar); err != nil {
		return nil, err
	}
	return &CreateIndexData{
		Index: index,
		Table: table,
		Field: field,
	}, nil
}

// Parse parses one statement of any kind
func Parse(text string) (Statement, error) {
	return newParser(text).Parse()
}

// ParseQuery is a shortcut to parse a complete select statement
func ParseQuery(text string) (Query, error) {
	p := newParser(text)
	stmt, err := p.Parse()
	if err != nil {
		return nil, err
	}
	q, ok := stmt.(Query)
	if !ok {
		return nil, fmt.Errorf("expect a select statement, but got: %s", stmt)
	}
	return q, nil
}

// ParsePredicate parses a standalone predicate, the having grammar is used so
// aggregate references are accepted
func ParsePredicate(text string) (*Predicate, error) {
	p := newParser(text)
	pred, err := p.Having()
	if err != nil {
		return nil, err
	}
	if !p.L.MatchEof() {
		return nil, p.err("end of predicate")
	}
	return pred, nil
}
