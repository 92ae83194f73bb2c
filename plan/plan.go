package plan

import (
	"fmt"
	"github.com/dianpeng/simpleql/sql"
)

// Plan is the logical description of one relational algebra operator. It is
// side effect free until Open is called. The operators are a fixed set:
// TablePlan, ProductPlan, SelectPlan, ProjectPlan and AggregatePlan, plus
// whatever leaf plan the catalog hands out for a base table.
type Plan interface {
	// Open opens the children recursively and returns a scan positioned
	// before the first row. Every call returns a fresh scan.
	Open() (Scan, error)

	// Estimates, advisory only, nothing may depend on them being exact
	BlocksAccessed() int
	RecordsOutput() int
	DistinctValues(field string) int

	Schema() *sql.Schema
}

// Scan is a forward only cursor over the output of one plan
type Scan interface {
	sql.Row

	BeforeFirst() error
	Next() (bool, error)
	GetInt(field string) (int64, error)
	GetString(field string) (string, error)
	HasField(field string) bool

	// Close releases the scan and all of its children, it must be called
	// however the iteration ended
	Close()
}

// Tx is the transaction handle of the storage layer, it is threaded through
// the planner and the catalog but never inspected here
type Tx interface{}

// Catalog is the metadata collaborator consulted by the planner
type Catalog interface {
	// ViewDef returns the query text of a view, false if name is not a view
	ViewDef(name string, tx Tx) (string, bool, error)

	// OpenTable returns the plan of a stored table
	OpenTable(name string, tx Tx) (Plan, error)
}

func getInt(s sql.Row, field string) (int64, error) {
	v, err := s.GetVal(field)
	if err != nil {
		return 0, err
	}
	if !v.IsInt() {
		return 0, fmt.Errorf("%w: field %s is not an int", sql.ErrTypeMismatch, field)
	}
	return v.Int, nil
}

func getString(s sql.Row, field string) (string, error) {
	v, err := s.GetVal(field)
	if err != nil {
		return "", err
	}
	if !v.IsStr() {
		return "", fmt.Errorf("%w: field %s is not a varchar", sql.ErrTypeMismatch, field)
	}
	return v.Str, nil
}

func fieldNotFound(field string) error {
	return fmt.Errorf("%w: %s", sql.ErrFieldNotFound, field)
}

// ----------------------------------------------------------------------------
// TablePlan
// ----------------------------------------------------------------------------

// TablePlan is the leaf of every query tree, it names the base table and
// delegates everything to the plan the catalog opened for it
type TablePlan struct {
	Name string
	p    Plan
}

func NewTablePlan(name string, tx Tx, catalog Catalog) (*TablePlan, error) {
	p, err := catalog.OpenTable(name, tx)
	if err != nil {
		return nil, fmt.Errorf("stage(table): open table %s: %w", name, err)
	}
	return &TablePlan{
		Name: name,
		p:    p,
	}, nil
}

func (self *TablePlan) Open() (Scan, error)             { return self.p.Open() }
func (self *TablePlan) BlocksAccessed() int             { return self.p.BlocksAccessed() }
func (self *TablePlan) RecordsOutput() int              { return self.p.RecordsOutput() }
func (self *TablePlan) DistinctValues(field string) int { return self.p.DistinctValues(field) }
func (self *TablePlan) Schema() *sql.Schema             { return self.p.Schema() }
