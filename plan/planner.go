package plan

import (
	"errors"
	"fmt"

	"github.com/dianpeng/simpleql/internal/config"
	"github.com/dianpeng/simpleql/internal/logger"
	"github.com/dianpeng/simpleql/sql"
	lru "github.com/hashicorp/golang-lru/v2"
)

var ErrViewTooDeep = errors.New("view nesting too deep")

// Planner lowers a parsed query into a fixed shape tree of plans
//
//   1) one plan per table of the from clause, a view is planned recursively
//      from its definition, anything else is opened through the catalog
//   2) the table plans are folded left to right with ProductPlan
//   3) SelectPlan with the where predicate
//   4) ProjectPlan for a plain query, AggregatePlan followed by a SelectPlan
//      with the having predicate for an aggregate query
//
// No plan is ever reordered or rewritten, the order of the from clause is
// the order of the nested loops.
type Planner struct {
	catalog      Catalog
	maxViewDepth int
	views        *lru.Cache[string, sql.Query] // view definition -> parsed
	log          *logger.Logger
}

func NewPlanner(
	catalog Catalog,
	cfg config.PlannerConfig,
	log *logger.Logger,
) (*Planner, error) {
	if log == nil {
		log = logger.NewNop()
	}
	views, err := lru.New[string, sql.Query](cfg.ViewCacheSize)
	if err != nil {
		return nil, fmt.Errorf("view cache: %w", err)
	}
	return &Planner{
		catalog:      catalog,
		maxViewDepth: cfg.MaxViewDepth,
		views:        views,
		log:          log.Named("planner"),
	}, nil
}

// CreateQueryPlan parses text, which must be a select statement, and plans it
func (self *Planner) CreateQueryPlan(text string, tx Tx) (Plan, error) {
	q, err := sql.ParseQuery(text)
	if err != nil {
		return nil, err
	}
	return self.CreatePlan(q, tx)
}

func (self *Planner) CreatePlan(q sql.Query, tx Tx) (Plan, error) {
	p, err := self.createPlan(q, tx, 0)
	if err != nil {
		self.log.Debug("plan failed", "query", q.String(), "error", err)
		return nil, err
	}
	self.log.Debug(
		"plan created",
		"query", q.String(),
		"blocks", p.BlocksAccessed(),
		"records", p.RecordsOutput(),
	)
	return p, nil
}

// CachedViews returns the number of parsed view definitions currently cached
func (self *Planner) CachedViews() int {
	return self.views.Len()
}

func (self *Planner) createPlan(q sql.Query, tx Tx, depth int) (Plan, error) {
	base := q.Base()

	// 1) tables
	var p Plan
	for _, name := range base.Tables {
		tp, err := self.planTable(name, tx, depth)
		if err != nil {
			return nil, err
		}

		// 2) product, in textual order
		if p == nil {
			p = tp
		} else if p, err = NewProductPlan(p, tp); err != nil {
			return nil, err
		}
	}
	if p == nil {
		return nil, fmt.Errorf("stage(plan): query without table")
	}

	// 3) where
	p = NewSelectPlan(p, base.Pred)

	// 4) output
	switch x := q.(type) {
	case *sql.AggQueryData:
		return self.planAggregate(p, x)
	default:
		return NewProjectPlan(p, base.Fields)
	}
}

func (self *Planner) planTable(name string, tx Tx, depth int) (Plan, error) {
	def, isView, err := self.catalog.ViewDef(name, tx)
	if err != nil {
		return nil, fmt.Errorf("stage(plan): view %s: %w", name, err)
	}
	if !isView {
		return NewTablePlan(name, tx, self.catalog)
	}

	if depth >= self.maxViewDepth {
		return nil, fmt.Errorf(
			"stage(plan): %w: view %s, limit %d",
			ErrViewTooDeep,
			name,
			self.maxViewDepth,
		)
	}

	vq, err := self.parseView(name, def)
	if err != nil {
		return nil, err
	}
	self.log.Debug("expand view", "view", name, "depth", depth+1)
	return self.createPlan(vq, tx, depth+1)
}

func (self *Planner) parseView(name, def string) (sql.Query, error) {
	if q, ok := self.views.Get(def); ok {
		return q, nil
	}
	q, err := sql.ParseQuery(def)
	if err != nil {
		return nil, fmt.Errorf("stage(plan): view %s: %w", name, err)
	}
	self.views.Add(def, q)
	return q, nil
}

// The aggregation is not preceded by a projection, fields only referenced by
// group by or having would be lost otherwise. Aggregates only referenced by
// having are computed as hidden outputs and projected away after the having
// filter.
func (self *Planner) planAggregate(p Plan, q *sql.AggQueryData) (Plan, error) {
	if err := checkAggregate(p.Schema(), q.Items, q.GroupBy); err != nil {
		return nil, err
	}
	havingAgg, err := checkHaving(p.Schema(), q.Having, q.GroupBy)
	if err != nil {
		return nil, err
	}

	hidden := hiddenAggregates(q.Items, havingAgg)
	items := make([]sql.SelectItem, 0, len(q.Items)+len(hidden))
	items = append(items, q.Items...)
	items = append(items, hidden...)

	agg, err := NewAggregatePlan(p, items, q.GroupBy)
	if err != nil {
		return nil, err
	}

	var out Plan = NewSelectPlan(agg, q.Having)
	if len(hidden) == 0 {
		return out, nil
	}

	self.log.Debug("hidden aggregates", "count", len(hidden))

	visible := []string{}
	for _, f := range agg.Schema().Fields() {
		isHidden := false
		for _, h := range hidden {
			if h.OutputName() == f {
				isHidden = true
				break
			}
		}
		if !isHidden {
			visible = append(visible, f)
		}
	}
	return NewProjectPlan(out, visible)
}
