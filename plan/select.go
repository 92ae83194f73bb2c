package plan

import (
	"github.com/dianpeng/simpleql/sql"
)

// SelectPlan keeps the rows of its child satisfying the predicate
type SelectPlan struct {
	p    Plan
	pred *sql.Predicate
}

func NewSelectPlan(p Plan, pred *sql.Predicate) *SelectPlan {
	if pred == nil {
		pred = sql.NewPredicate()
	}
	return &SelectPlan{
		p:    p,
		pred: pred,
	}
}

func (self *SelectPlan) Predicate() *sql.Predicate { return self.pred }

func (self *SelectPlan) Open() (Scan, error) {
	s, err := self.p.Open()
	if err != nil {
		return nil, err
	}
	return &SelectScan{
		s:    s,
		pred: self.pred,
	}, nil
}

func (self *SelectPlan) BlocksAccessed() int { return self.p.BlocksAccessed() }

func (self *SelectPlan) RecordsOutput() int {
	return self.p.RecordsOutput() / reductionFactor(self.pred, self.p)
}

func (self *SelectPlan) DistinctValues(field string) int {
	if _, ok := self.pred.EquatesWithConstant(field); ok {
		return 1
	}
	if other, ok := self.pred.EquatesWithField(field); ok {
		return min(self.p.DistinctValues(field), self.p.DistinctValues(other))
	}
	return self.p.DistinctValues(field)
}

func (self *SelectPlan) Schema() *sql.Schema { return self.p.Schema() }

// reductionFactor estimates by how much the predicate shrinks the output of
// p, it is the product of the factors of every term and never below 1
func reductionFactor(pred *sql.Predicate, p Plan) int {
	factor := 1
	for _, t := range pred.Terms {
		factor *= termReductionFactor(t, p)
	}
	return max(factor, 1)
}

func termReductionFactor(t *sql.Term, p Plan) int {
	l, lField := t.Lhs.(*sql.FieldRef)
	r, rField := t.Rhs.(*sql.FieldRef)

	switch {
	case lField && rField:
		return max(p.DistinctValues(l.Name), p.DistinctValues(r.Name), 1)
	case lField:
		return max(p.DistinctValues(l.Name), 1)
	case rField:
		return max(p.DistinctValues(r.Name), 1)
	default:
		// constant = constant, either everything or nothing
		lc := t.Lhs.(*sql.ConstExpr)
		rc := t.Rhs.(*sql.ConstExpr)
		if lc.Value.Equal(rc.Value) {
			return 1
		}
		return p.RecordsOutput() + 1
	}
}

type SelectScan struct {
	s    Scan
	pred *sql.Predicate
}

func (self *SelectScan) BeforeFirst() error { return self.s.BeforeFirst() }

func (self *SelectScan) Next() (bool, error) {
	for {
		ok, err := self.s.Next()
		if err != nil || !ok {
			return false, err
		}
		if yes, err := self.pred.IsSatisfied(self.s); err != nil {
			return false, err
		} else if yes {
			return true, nil
		}
	}
}

func (self *SelectScan) GetVal(field string) (sql.Constant, error) { return self.s.GetVal(field) }
func (self *SelectScan) GetInt(field string) (int64, error)        { return self.s.GetInt(field) }
func (self *SelectScan) GetString(field string) (string, error)    { return self.s.GetString(field) }
func (self *SelectScan) HasField(field string) bool                { return self.s.HasField(field) }
func (self *SelectScan) Close()                                    { self.s.Close() }
