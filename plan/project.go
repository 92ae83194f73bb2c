package plan

import (
	"fmt"
	"github.com/dianpeng/simpleql/sql"
)

// ProjectPlan restricts the output of its child to a field list
type ProjectPlan struct {
	p      Plan
	schema *sql.Schema
}

func NewProjectPlan(p Plan, fields []string) (*ProjectPlan, error) {
	schema := sql.NewSchema()
	for _, f := range fields {
		if schema.HasField(f) {
			continue // select a, a from t
		}
		if err := schema.Add(f, p.Schema()); err != nil {
			return nil, fmt.Errorf("stage(project): %w", err)
		}
	}
	return &ProjectPlan{
		p:      p,
		schema: schema,
	}, nil
}

func (self *ProjectPlan) Open() (Scan, error) {
	s, err := self.p.Open()
	if err != nil {
		return nil, err
	}
	return &ProjectScan{
		s:      s,
		schema: self.schema,
	}, nil
}

func (self *ProjectPlan) BlocksAccessed() int             { return self.p.BlocksAccessed() }
func (self *ProjectPlan) RecordsOutput() int              { return self.p.RecordsOutput() }
func (self *ProjectPlan) DistinctValues(field string) int { return self.p.DistinctValues(field) }
func (self *ProjectPlan) Schema() *sql.Schema             { return self.schema }

type ProjectScan struct {
	s      Scan
	schema *sql.Schema
}

func (self *ProjectScan) BeforeFirst() error  { return self.s.BeforeFirst() }
func (self *ProjectScan) Next() (bool, error) { return self.s.Next() }
func (self *ProjectScan) Close()              { self.s.Close() }

func (self *ProjectScan) HasField(field string) bool {
	return self.schema.HasField(field)
}

func (self *ProjectScan) GetVal(field string) (sql.Constant, error) {
	if !self.HasField(field) {
		return sql.Constant{}, fieldNotFound(field)
	}
	return self.s.GetVal(field)
}

func (self *ProjectScan) GetInt(field string) (int64, error) {
	if !self.HasField(field) {
		return 0, fieldNotFound(field)
	}
	return self.s.GetInt(field)
}

func (self *ProjectScan) GetString(field string) (string, error) {
	if !self.HasField(field) {
		return "", fieldNotFound(field)
	}
	return self.s.GetString(field)
}
