package catalog

import (
	"fmt"

	"github.com/dianpeng/simpleql/plan"
	"github.com/dianpeng/simpleql/sql"
)

// Table is a heap of rows kept in memory, rows are aligned with the fields of
// the schema. A Table is the plan the catalog hands out for a base table.
type Table struct {
	Name         string
	schema       *sql.Schema
	index        map[string]int // field -> position inside of a row
	rows         [][]sql.Constant
	rowsPerBlock int
}

func newTable(name string, schema *sql.Schema, rowsPerBlock int) *Table {
	index := make(map[string]int)
	for i, f := range schema.Fields() {
		index[f] = i
	}
	return &Table{
		Name:         name,
		schema:       schema,
		index:        index,
		rowsPerBlock: rowsPerBlock,
	}
}

func zeroOf(info sql.FieldInfo) sql.Constant {
	if info.Type == sql.TypeInt {
		return sql.NewIntConstant(0)
	}
	return sql.NewStrConstant("")
}

func (self *Table) checkValue(field string, v sql.Constant) error {
	info, ok := self.schema.Info(field)
	if !ok {
		return fmt.Errorf("%w: %s.%s", sql.ErrFieldNotFound, self.Name, field)
	}
	switch info.Type {
	case sql.TypeInt:
		if !v.IsInt() {
			return fmt.Errorf("%w: %s.%s is int, got %s", sql.ErrTypeMismatch, self.Name, field, v)
		}
		break
	default:
		if !v.IsStr() {
			return fmt.Errorf("%w: %s.%s is varchar, got %s", sql.ErrTypeMismatch, self.Name, field, v)
		}
		if len(v.Str) > info.Length {
			return fmt.Errorf(
				"%w: %s.%s is varchar(%d), got %d bytes",
				sql.ErrTypeMismatch,
				self.Name,
				field,
				info.Length,
				len(v.Str),
			)
		}
		break
	}
	return nil
}

// Insert appends one row, fields missing from the list are 0 or ''
func (self *Table) Insert(fields []string, values []sql.Constant) error {
	if len(fields) != len(values) {
		return fmt.Errorf("insert into %s: %d fields but %d values", self.Name, len(fields), len(values))
	}

	row := make([]sql.Constant, len(self.index))
	for _, f := range self.schema.Fields() {
		info, _ := self.schema.Info(f)
		row[self.index[f]] = zeroOf(info)
	}
	for i, f := range fields {
		if err := self.checkValue(f, values[i]); err != nil {
			return err
		}
		row[self.index[f]] = values[i]
	}
	self.rows = append(self.rows, row)
	return nil
}

// Delete removes every row satisfying pred and returns how many were removed
func (self *Table) Delete(pred *sql.Predicate) (int, error) {
	kept := make([][]sql.Constant, 0, len(self.rows))
	for _, r := range self.rows {
		if ok, err := pred.IsSatisfied(self.rowOf(r)); err != nil {
			return 0, err
		} else if !ok {
			kept = append(kept, r)
		}
	}
	n := len(self.rows) - len(kept)
	self.rows = kept
	return n, nil
}

// Modify sets field to the value of expr, evaluated against the old row, for
// every row satisfying pred and returns how many rows changed
func (self *Table) Modify(field string, expr sql.Expr, pred *sql.Predicate) (int, error) {
	idx, ok := self.index[field]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", sql.ErrFieldNotFound, self.Name, field)
	}

	// copy on write, a scan opened before keeps reading the old rows
	rows := make([][]sql.Constant, len(self.rows))
	copy(rows, self.rows)

	n := 0
	for i, r := range rows {
		row := self.rowOf(r)
		if ok, err := pred.IsSatisfied(row); err != nil {
			return 0, err
		} else if !ok {
			continue
		}
		v, err := expr.Eval(row)
		if err != nil {
			return 0, err
		}
		if err := self.checkValue(field, v); err != nil {
			return 0, err
		}
		nr := make([]sql.Constant, len(r))
		copy(nr, r)
		nr[idx] = v
		rows[i] = nr
		n++
	}
	self.rows = rows
	return n, nil
}

func (self *Table) Len() int { return len(self.rows) }

func (self *Table) rowOf(r []sql.Constant) *rowRef {
	return &rowRef{
		t:   self,
		row: r,
	}
}

// rowRef is one row of the table seen as a sql.Row
type rowRef struct {
	t   *Table
	row []sql.Constant
}

func (self *rowRef) GetVal(field string) (sql.Constant, error) {
	idx, ok := self.t.index[field]
	if !ok {
		return sql.Constant{}, fmt.Errorf("%w: %s.%s", sql.ErrFieldNotFound, self.t.Name, field)
	}
	return self.row[idx], nil
}

// ----------------------------------------------------------------------------
// plan.Plan
// ----------------------------------------------------------------------------

func (self *Table) Open() (plan.Scan, error) {
	return &tableScan{
		t:    self,
		rows: self.rows,
		pos:  -1,
	}, nil
}

func (self *Table) BlocksAccessed() int {
	return (len(self.rows) + self.rowsPerBlock - 1) / self.rowsPerBlock
}

func (self *Table) RecordsOutput() int { return len(self.rows) }

func (self *Table) DistinctValues(field string) int {
	idx, ok := self.index[field]
	if !ok {
		return 1
	}
	seen := make(map[sql.Constant]struct{})
	for _, r := range self.rows {
		seen[r[idx]] = struct{}{}
	}
	return max(len(seen), 1)
}

func (self *Table) Schema() *sql.Schema { return self.schema }

// tableScan reads the rows the table had when the scan was opened
type tableScan struct {
	t    *Table
	rows [][]sql.Constant
	pos  int
}

func (self *tableScan) BeforeFirst() error {
	self.pos = -1
	return nil
}

func (self *tableScan) Next() (bool, error) {
	if self.pos < len(self.rows) {
		self.pos++
	}
	return self.pos < len(self.rows), nil
}

func (self *tableScan) GetVal(field string) (sql.Constant, error) {
	if self.pos < 0 || self.pos >= len(self.rows) {
		return sql.Constant{}, sql.ErrNoCurrentRow
	}
	return self.t.rowOf(self.rows[self.pos]).GetVal(field)
}

func (self *tableScan) GetInt(field string) (int64, error) {
	v, err := self.GetVal(field)
	if err != nil {
		return 0, err
	}
	if !v.IsInt() {
		return 0, fmt.Errorf("%w: field %s is not an int", sql.ErrTypeMismatch, field)
	}
	return v.Int, nil
}

func (self *tableScan) GetString(field string) (string, error) {
	v, err := self.GetVal(field)
	if err != nil {
		return "", err
	}
	if !v.IsStr() {
		return "", fmt.Errorf("%w: field %s is not a varchar", sql.ErrTypeMismatch, field)
	}
	return v.Str, nil
}

func (self *tableScan) HasField(field string) bool {
	_, ok := self.t.index[field]
	return ok
}

func (self *tableScan) Close() {
	self.rows = nil
}
