package plan

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dianpeng/simpleql/sql"
)

// AggregateScan works in 2 phases
//
// 1) Materialization, on the first Next(). The child scan is drained
//    completely, synchronously, before Next() returns. Every child row is
//    folded into the accumulators of its group, the group is found by its
//    key, the tuple of the group by field values. Memory is proportional to
//    the number of groups and the latency of the first Next() is the cost of
//    reading the whole child; there is no way to stop it half way.
//
// 2) Enumeration, every following Next() moves a cursor over the groups, in
//    the order their key first showed up in the child.
//
// BeforeFirst() drops every group and rewinds the child, the next Next()
// materializes again from scratch.
//
// Without group by fields there is exactly one group with the empty key, so
// an aggregation over an empty input still yields one row. With group by
// fields an empty input yields no row.
type AggregateScan struct {
	s       Scan
	groupBy []string
	keyIdx  map[string]int // group by field -> index inside of the key
	cols    []aggColumn
	colIdx  map[string]int // aggregated output name -> index inside of cols

	groups       []*group
	lookup       map[string]int // encoded key -> index inside of groups
	cursor       int
	materialized bool
}

type aggColumn struct {
	name   string
	source string
	fn     sql.AggFunc
}

// accumulator of one aggregated column of one group. For range, value is the
// low and counter is the high. Arithmetic is plain int64 and wraps on
// overflow, for sum and for the high - low of range alike
type accumulator struct {
	value   int64
	counter int64
	n       int64 // number of values folded in
}

type group struct {
	key  []sql.Constant
	accs []accumulator
}

func newAggregateScan(s Scan, p *AggregatePlan) *AggregateScan {
	self := &AggregateScan{
		s:       s,
		groupBy: p.groupBy,
		keyIdx:  make(map[string]int),
		colIdx:  make(map[string]int),
		cursor:  -1,
	}
	for idx, g := range p.groupBy {
		if _, ok := self.keyIdx[g]; !ok {
			self.keyIdx[g] = idx
		}
	}
	for _, name := range p.order {
		self.colIdx[name] = len(self.cols)
		self.cols = append(self.cols, aggColumn{
			name:   name,
			source: p.source[name],
			fn:     p.funcs[name],
		})
	}
	return self
}

func unknownAggFunc(fn sql.AggFunc) error {
	return fmt.Errorf("%w: %d", sql.ErrUnknownAggFunc, int(fn))
}

func newAccumulator(fn sql.AggFunc) (accumulator, error) {
	switch fn {
	case sql.AggSum, sql.AggAvg, sql.AggCount:
		return accumulator{}, nil
	case sql.AggMax:
		return accumulator{value: math.MinInt64}, nil
	case sql.AggMin:
		return accumulator{value: math.MaxInt64}, nil
	case sql.AggRange:
		return accumulator{value: math.MaxInt64, counter: math.MinInt64}, nil
	default:
		return accumulator{}, unknownAggFunc(fn)
	}
}

func (self *accumulator) fold(fn sql.AggFunc, v int64) error {
	switch fn {
	case sql.AggSum:
		self.value += v
		break
	case sql.AggAvg:
		self.value += v
		self.counter++
		break
	case sql.AggCount:
		self.counter++
		break
	case sql.AggMax:
		if v > self.value {
			self.value = v
		}
		break
	case sql.AggMin:
		if v < self.value {
			self.value = v
		}
		break
	case sql.AggRange:
		if v < self.value {
			self.value = v
		}
		if v > self.counter {
			self.counter = v
		}
		break
	default:
		return unknownAggFunc(fn)
	}
	self.n++
	return nil
}

// result of the accumulator, a group that folded no value reads 0 for every
// function but sum and count, whose initial value is already 0
func (self *accumulator) result(fn sql.AggFunc) (int64, error) {
	switch fn {
	case sql.AggSum:
		return self.value, nil
	case sql.AggCount:
		return self.counter, nil
	case sql.AggAvg:
		if self.counter == 0 {
			return 0, nil
		}
		return self.value / self.counter, nil
	case sql.AggMax, sql.AggMin:
		if self.n == 0 {
			return 0, nil
		}
		return self.value, nil
	case sql.AggRange:
		if self.n == 0 {
			return 0, nil
		}
		return self.counter - self.value, nil
	default:
		return 0, unknownAggFunc(fn)
	}
}

// encodeKey maps a key tuple to a string, two tuples have the same encoding
// iff they are equal constant by constant. Strings are length prefixed so an
// int never collides with a string and no separator can be forged.
func encodeKey(buf *strings.Builder, key []sql.Constant) string {
	buf.Reset()
	for _, c := range key {
		if c.IsInt() {
			buf.WriteByte('i')
			buf.WriteString(strconv.FormatInt(c.Int, 10))
			buf.WriteByte(';')
		} else {
			buf.WriteByte('s')
			buf.WriteString(strconv.Itoa(len(c.Str)))
			buf.WriteByte(':')
			buf.WriteString(c.Str)
		}
	}
	return buf.String()
}

func (self *AggregateScan) newGroup(key []sql.Constant) (*group, error) {
	g := &group{
		key:  key,
		accs: make([]accumulator, len(self.cols)),
	}
	for idx, col := range self.cols {
		acc, err := newAccumulator(col.fn)
		if err != nil {
			return nil, err
		}
		g.accs[idx] = acc
	}
	return g, nil
}

func (self *AggregateScan) materialize() error {
	self.groups = nil
	self.lookup = make(map[string]int)

	if len(self.groupBy) == 0 {
		g, err := self.newGroup(nil)
		if err != nil {
			return err
		}
		self.groups = append(self.groups, g)
		self.lookup[""] = 0
	}

	buf := &strings.Builder{}

	for {
		ok, err := self.s.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		key := make([]sql.Constant, len(self.groupBy))
		for idx, f := range self.groupBy {
			if key[idx], err = self.s.GetVal(f); err != nil {
				return err
			}
		}

		encoded := encodeKey(buf, key)
		gidx, ok := self.lookup[encoded]
		if !ok {
			g, err := self.newGroup(key)
			if err != nil {
				return err
			}
			gidx = len(self.groups)
			self.groups = append(self.groups, g)
			self.lookup[encoded] = gidx
		}

		if err := self.foldRow(self.groups[gidx]); err != nil {
			return err
		}
	}
	return nil
}

func (self *AggregateScan) foldRow(g *group) error {
	for idx, col := range self.cols {
		var v int64
		if col.fn != sql.AggCount {
			var err error
			if v, err = self.s.GetInt(col.source); err != nil {
				return err
			}
		} else if !self.s.HasField(col.source) {
			return fieldNotFound(col.source)
		}
		if err := g.accs[idx].fold(col.fn, v); err != nil {
			return err
		}
	}
	return nil
}

func (self *AggregateScan) BeforeFirst() error {
	self.groups = nil
	self.lookup = nil
	self.cursor = -1
	self.materialized = false
	return self.s.BeforeFirst()
}

func (self *AggregateScan) Next() (bool, error) {
	if !self.materialized {
		if err := self.materialize(); err != nil {
			// a half folded child is useless, start over on the next call
			self.groups = nil
			self.lookup = nil
			if rerr := self.s.BeforeFirst(); rerr != nil {
				return false, rerr
			}
			return false, err
		}
		self.materialized = true
		self.cursor = -1
	}
	if self.cursor < len(self.groups) {
		self.cursor++
	}
	return self.cursor < len(self.groups), nil
}

func (self *AggregateScan) current() (*group, error) {
	if !self.materialized || self.cursor < 0 || self.cursor >= len(self.groups) {
		return nil, sql.ErrNoCurrentRow
	}
	return self.groups[self.cursor], nil
}

func (self *AggregateScan) GetVal(field string) (sql.Constant, error) {
	g, err := self.current()
	if err != nil {
		return sql.Constant{}, err
	}
	if idx, ok := self.keyIdx[field]; ok {
		return g.key[idx], nil
	}
	if idx, ok := self.colIdx[field]; ok {
		v, err := g.accs[idx].result(self.cols[idx].fn)
		if err != nil {
			return sql.Constant{}, err
		}
		return sql.NewIntConstant(v), nil
	}
	return sql.Constant{}, fieldNotFound(field)
}

func (self *AggregateScan) GetInt(field string) (int64, error)     { return getInt(self, field) }
func (self *AggregateScan) GetString(field string) (string, error) { return getString(self, field) }

// HasField only knows the group by fields and the aggregated outputs, the
// fields of the child are not visible through the aggregation
func (self *AggregateScan) HasField(field string) bool {
	if _, ok := self.keyIdx[field]; ok {
		return true
	}
	_, ok := self.colIdx[field]
	return ok
}

func (self *AggregateScan) Close() {
	self.s.Close()
}

// Groups returns the number of materialized groups, 0 before the first Next()
func (self *AggregateScan) Groups() int {
	return len(self.groups)
}
