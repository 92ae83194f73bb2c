package plan

import (
	"fmt"
	"github.com/dianpeng/simpleql/sql"
)

// ProductPlan is the cartesian product of two plans, the output schema is
// the union of both schemas and they must not share a field name
type ProductPlan struct {
	p1     Plan
	p2     Plan
	schema *sql.Schema
}

func NewProductPlan(p1, p2 Plan) (*ProductPlan, error) {
	schema := sql.NewSchema()
	if err := schema.AddAll(p1.Schema()); err != nil {
		return nil, fmt.Errorf("stage(product): %w", err)
	}
	if err := schema.AddAll(p2.Schema()); err != nil {
		return nil, fmt.Errorf("stage(product): %w", err)
	}
	return &ProductPlan{
		p1:     p1,
		p2:     p2,
		schema: schema,
	}, nil
}

func (self *ProductPlan) Open() (Scan, error) {
	s1, err := self.p1.Open()
	if err != nil {
		return nil, err
	}
	s2, err := self.p2.Open()
	if err != nil {
		s1.Close()
		return nil, err
	}
	return newProductScan(s1, s2), nil
}

// every block of the inner plan is read once per record of the outer one
func (self *ProductPlan) BlocksAccessed() int {
	return self.p1.BlocksAccessed() + self.p1.RecordsOutput()*self.p2.BlocksAccessed()
}

func (self *ProductPlan) RecordsOutput() int {
	return self.p1.RecordsOutput() * self.p2.RecordsOutput()
}

func (self *ProductPlan) DistinctValues(field string) int {
	if self.p1.Schema().HasField(field) {
		return self.p1.DistinctValues(field)
	}
	return self.p2.DistinctValues(field)
}

func (self *ProductPlan) Schema() *sql.Schema { return self.schema }

// ProductScan is a nested loop, s1 is the outer scan and s2 is rewound once
// for every row of s1
type ProductScan struct {
	s1       Scan
	s2       Scan
	started  bool
	hasOuter bool
}

func newProductScan(s1, s2 Scan) *ProductScan {
	return &ProductScan{
		s1: s1,
		s2: s2,
	}
}

func (self *ProductScan) BeforeFirst() error {
	if err := self.s1.BeforeFirst(); err != nil {
		return err
	}
	if err := self.s2.BeforeFirst(); err != nil {
		return err
	}
	self.started = false
	self.hasOuter = false
	return nil
}

func (self *ProductScan) Next() (bool, error) {
	if !self.started {
		self.started = true
		ok, err := self.s1.Next()
		if err != nil {
			return false, err
		}
		self.hasOuter = ok
	}

	for self.hasOuter {
		if ok, err := self.s2.Next(); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}

		if err := self.s2.BeforeFirst(); err != nil {
			return false, err
		}
		ok, err := self.s1.Next()
		if err != nil {
			return false, err
		}
		self.hasOuter = ok
	}
	return false, nil
}

func (self *ProductScan) GetVal(field string) (sql.Constant, error) {
	if self.s1.HasField(field) {
		return self.s1.GetVal(field)
	}
	return self.s2.GetVal(field)
}

func (self *ProductScan) GetInt(field string) (int64, error)     { return getInt(self, field) }
func (self *ProductScan) GetString(field string) (string, error) { return getString(self, field) }

func (self *ProductScan) HasField(field string) bool {
	return self.s1.HasField(field) || self.s2.HasField(field)
}

func (self *ProductScan) Close() {
	self.s1.Close()
	self.s2.Close()
}
