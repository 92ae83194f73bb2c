package sql

import (
	"strings"
)

const (
	StmtQuery = iota
	StmtAggQuery
	StmtInsert
	StmtDelete
	StmtModify
	StmtCreateTable
	StmtCreateView
	StmtCreateIndex
)

// Statement is the parsed, immutable form of one SQL statement. String()
// renders the canonical text of the statement, which parses back to an equal
// statement.
type Statement interface {
	Type() int
	String() string
}

// Query is implemented by QueryData and AggQueryData
type Query interface {
	Statement
	Base() *QueryData
}

// SelectItem is one entry of the select list, either a plain column (Func is
// AggNone) or an aggregate function applied on a column
type SelectItem struct {
	Func  AggFunc
	Field string
}

func (self SelectItem) IsAggregated() bool { return self.Func != AggNone }

// OutputName is the name of the item inside of the output schema
func (self SelectItem) OutputName() string {
	if self.Func == AggNone {
		return self.Field
	}
	return AggFieldName(self.Func, self.Field)
}

func (self SelectItem) String() string { return self.OutputName() }

// Select statement without any aggregate function
type QueryData struct {
	Fields []string
	Tables []string
	Pred   *Predicate
}

// Select statement with at least one aggregate function. Items is the select
// list and is positionally aligned with Fields.
type AggQueryData struct {
	QueryData
	Items   []SelectItem
	GroupBy []string
	Having  *Predicate
}

func NewAggQueryData(
	items []SelectItem,
	tables []string,
	pred *Predicate,
	groupBy []string,
	having *Predicate,
) *AggQueryData {
	fields := make([]string, 0, len(items))
	for _, it := range items {
		fields = append(fields, it.Field)
	}
	if pred == nil {
		pred = NewPredicate()
	}
	if having == nil {
		having = NewPredicate()
	}
	return &AggQueryData{
		QueryData: QueryData{
			Fields: fields,
			Tables: tables,
			Pred:   pred,
		},
		Items:   items,
		GroupBy: groupBy,
		Having:  having,
	}
}

func (self *QueryData) Type() int        { return StmtQuery }
func (self *QueryData) Base() *QueryData { return self }

func (self *AggQueryData) Type() int { return StmtAggQuery }

// AggFuncs returns the function list aligned with Fields, AggNone marks a plain
// column
func (self *AggQueryData) AggFuncs() []AggFunc {
	out := make([]AggFunc, 0, len(self.Items))
	for _, it := range self.Items {
		out = append(out, it.Func)
	}
	return out
}

func (self *AggQueryData) IsGrouped() bool { return len(self.GroupBy) > 0 }

func printFromWhere(buf *strings.Builder, tables []string, pred *Predicate) {
	buf.WriteString(" from ")
	buf.WriteString(strings.Join(tables, ", "))
	if p := pred.String(); p != "" {
		buf.WriteString(" where ")
		buf.WriteString(p)
	}
}

func (self *QueryData) String() string {
	buf := &strings.Builder{}
	buf.WriteString("select ")
	buf.WriteString(strings.Join(self.Fields, ", "))
	printFromWhere(buf, self.Tables, self.Pred)
	return buf.String()
}

func (self *AggQueryData) String() string {
	buf := &strings.Builder{}
	buf.WriteString("select ")
	for idx, it := range self.Items {
		if idx > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(it.String())
	}
	printFromWhere(buf, self.Tables, self.Pred)

	if len(self.GroupBy) > 0 {
		buf.WriteString(" group by ")
		buf.WriteString(strings.Join(self.GroupBy, ", "))
		if h := self.Having.String(); h != "" {
			buf.WriteString(" having ")
			buf.WriteString(h)
		}
	}
	return buf.String()
}

type InsertData struct {
	Table  string
	Fields []string
	Vals   []Constant
}

func (self *InsertData) Type() int { return StmtInsert }
func (self *InsertData) String() string {
	vals := make([]string, 0, len(self.Vals))
	for _, v := range self.Vals {
		vals = append(vals, v.String())
	}
	return "insert into " + self.Table +
		"(" + strings.Join(self.Fields, ", ") + ") values (" +
		strings.Join(vals, ", ") + ")"
}

type DeleteData struct {
	Table string
	Pred  *Predicate
}

func (self *DeleteData) Type() int { return StmtDelete }
func (self *DeleteData) String() string {
	out := "delete from " + self.Table
	if p := self.Pred.String(); p != "" {
		out += " where " + p
	}
	return out
}

// ModifyData is the update statement, which assigns one field
type ModifyData struct {
	Table  string
	Field  string
	NewVal Expr
	Pred   *Predicate
}

func (self *ModifyData) Type() int { return StmtModify }
func (self *ModifyData) String() string {
	out := "update " + self.Table + " set " + self.Field + " = " + self.NewVal.String()
	if p := self.Pred.String(); p != "" {
		out += " where " + p
	}
	return out
}

type CreateTableData struct {
	Table  string
	Schema *Schema
}

func (self *CreateTableData) Type() int { return StmtCreateTable }
func (self *CreateTableData) String() string {
	return "create table " + self.Table + "(" + self.Schema.String() + ")"
}

type CreateViewData struct {
	View  string
	Query Query
}

func (self *CreateViewData) Type() int { return StmtCreateView }

// ViewDef is the definition text stored by the catalog for this view
func (self *CreateViewData) ViewDef() string { return self.Query.String() }

func (self *CreateViewData) String() string {
	return "create view " + self.View + " as " + self.ViewDef()
}

type CreateIndexData struct {
	Index string
	Table string
	Field string
}

func (self *CreateIndexData) Type() int { return StmtCreateIndex }
func (self *CreateIndexData) String() string {
	return "create index " + self.Index + " on " + self.Table + "(" + self.Field + ")"
}
