package plan

import (
	"fmt"
	"testing"

	"github.com/dianpeng/simpleql/sql"
	"github.com/stretchr/testify/require"
)

var (
	iv = sql.NewIntConstant
	sv = sql.NewStrConstant
)

type memStats struct {
	opened int
	closed int
}

// memPlan is a base table living in memory, rows are aligned with the fields
// of the schema
type memPlan struct {
	schema *sql.Schema
	rows   [][]sql.Constant
	stats  *memStats
}

func newMemPlan(schema *sql.Schema, rows ...[]sql.Constant) *memPlan {
	return &memPlan{
		schema: schema,
		rows:   rows,
		stats:  &memStats{},
	}
}

func (self *memPlan) Open() (Scan, error) {
	self.stats.opened++
	idx := make(map[string]int)
	for i, f := range self.schema.Fields() {
		idx[f] = i
	}
	return &memScan{
		p:   self,
		idx: idx,
		pos: -1,
	}, nil
}

func (self *memPlan) BlocksAccessed() int { return len(self.rows)/4 + 1 }
func (self *memPlan) RecordsOutput() int  { return len(self.rows) }

func (self *memPlan) DistinctValues(field string) int {
	idx := -1
	for i, f := range self.schema.Fields() {
		if f == field {
			idx = i
		}
	}
	if idx < 0 {
		return 1
	}
	seen := make(map[sql.Constant]bool)
	for _, r := range self.rows {
		seen[r[idx]] = true
	}
	return max(len(seen), 1)
}

func (self *memPlan) Schema() *sql.Schema { return self.schema }

type memScan struct {
	p   *memPlan
	idx map[string]int
	pos int
}

func (self *memScan) BeforeFirst() error {
	self.pos = -1
	return nil
}

func (self *memScan) Next() (bool, error) {
	if self.pos < len(self.p.rows) {
		self.pos++
	}
	return self.pos < len(self.p.rows), nil
}

func (self *memScan) GetVal(field string) (sql.Constant, error) {
	i, ok := self.idx[field]
	if !ok {
		return sql.Constant{}, fieldNotFound(field)
	}
	if self.pos < 0 || self.pos >= len(self.p.rows) {
		return sql.Constant{}, sql.ErrNoCurrentRow
	}
	return self.p.rows[self.pos][i], nil
}

func (self *memScan) GetInt(field string) (int64, error)     { return getInt(self, field) }
func (self *memScan) GetString(field string) (string, error) { return getString(self, field) }

func (self *memScan) HasField(field string) bool {
	_, ok := self.idx[field]
	return ok
}

func (self *memScan) Close() {
	self.p.stats.closed++
}

// memCatalog serves memPlan tables and view definitions
type memCatalog struct {
	tables map[string]*memPlan
	views  map[string]string
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		tables: make(map[string]*memPlan),
		views:  make(map[string]string),
	}
}

func (self *memCatalog) ViewDef(name string, tx Tx) (string, bool, error) {
	def, ok := self.views[name]
	return def, ok, nil
}

func (self *memCatalog) OpenTable(name string, tx Tx) (Plan, error) {
	p, ok := self.tables[name]
	if !ok {
		return nil, fmt.Errorf("no such table: %s", name)
	}
	return p, nil
}

func intSchema(fields ...string) *sql.Schema {
	s := sql.NewSchema()
	for _, f := range fields {
		if err := s.AddIntField(f); err != nil {
			panic(err)
		}
	}
	return s
}

// empPlan is the dept/pay table used by most of the aggregation tests
func empPlan() *memPlan {
	return newMemPlan(
		intSchema("dept", "pay"),
		[]sql.Constant{iv(10), iv(50)},
		[]sql.Constant{iv(10), iv(70)},
		[]sql.Constant{iv(20), iv(90)},
	)
}

// drain opens p and reads every row, each row is rendered as the values of
// fields in order
func drain(t *testing.T, p Plan, fields ...string) [][]string {
	s, err := p.Open()
	require.NoError(t, err)
	defer s.Close()

	out := [][]string{}
	for {
		ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		row := []string{}
		for _, f := range fields {
			v, err := s.GetVal(f)
			require.NoError(t, err)
			row = append(row, v.String())
		}
		out = append(out, row)
	}
	return out
}
