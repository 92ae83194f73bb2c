package plan

import (
	"fmt"
	"github.com/dianpeng/simpleql/sql"
)

// AggregatePlan groups the rows of its child by the group by fields and
// computes the aggregate functions of the select list per group. It also
// acts as the final projection of an aggregate query, its output schema is
//
// 1) one int field per aggregated item, named fn(col)
// 2) every group by field, with the type it has in the child
//
// Plain select items must be group by fields, their value is the group key.
type AggregatePlan struct {
	p       Plan
	items   []sql.SelectItem
	groupBy []string
	schema  *sql.Schema

	// keyed by output field name, only aggregated outputs are present
	source map[string]string
	funcs  map[string]sql.AggFunc
	order  []string // aggregated output names, first occurrence order
}

func NewAggregatePlan(
	p Plan,
	items []sql.SelectItem,
	groupBy []string,
) (*AggregatePlan, error) {
	if err := checkAggregate(p.Schema(), items, groupBy); err != nil {
		return nil, err
	}

	self := &AggregatePlan{
		p:       p,
		items:   items,
		groupBy: groupBy,
		schema:  sql.NewSchema(),
		source:  make(map[string]string),
		funcs:   make(map[string]sql.AggFunc),
	}

	for _, it := range items {
		name := it.OutputName()
		if self.schema.HasField(name) {
			continue
		}

		var err error
		if it.IsAggregated() {
			err = self.schema.AddIntField(name)
			self.source[name] = it.Field
			self.funcs[name] = it.Func
			self.order = append(self.order, name)
		} else {
			err = self.schema.Add(name, p.Schema())
		}
		if err != nil {
			return nil, fmt.Errorf("stage(agg): %w", err)
		}
	}

	for _, g := range groupBy {
		if self.schema.HasField(g) {
			continue
		}
		if err := self.schema.Add(g, p.Schema()); err != nil {
			return nil, fmt.Errorf("stage(agg): %w", err)
		}
	}

	return self, nil
}

func (self *AggregatePlan) Items() []sql.SelectItem { return self.items }
func (self *AggregatePlan) GroupBy() []string       { return self.groupBy }

// Source returns the input column of an aggregated output field
func (self *AggregatePlan) Source(output string) (string, bool) {
	s, ok := self.source[output]
	return s, ok
}

// Func returns the aggregate function of an output field, AggNone for a group
// by field
func (self *AggregatePlan) Func(output string) (sql.AggFunc, bool) {
	if fn, ok := self.funcs[output]; ok {
		return fn, true
	}
	if self.schema.HasField(output) {
		return sql.AggNone, true
	}
	return sql.AggNone, false
}

func (self *AggregatePlan) Open() (Scan, error) {
	s, err := self.p.Open()
	if err != nil {
		return nil, err
	}
	return newAggregateScan(s, self), nil
}

// Aggregation is a single pass over the child, it reads exactly what the
// child reads
func (self *AggregatePlan) BlocksAccessed() int {
	return self.p.BlocksAccessed()
}

// The estimate stays 1 even though a grouped aggregation may output more
// rows, it is a placeholder and not a bound
func (self *AggregatePlan) RecordsOutput() int {
	return 1
}

func (self *AggregatePlan) DistinctValues(field string) int {
	return 1
}

func (self *AggregatePlan) Schema() *sql.Schema { return self.schema }
