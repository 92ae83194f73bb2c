// Package db is the statement front door of the query core. It ties the
// configuration, the logger, the catalog and the planner together and runs
// one statement at a time.
package db

import (
	"errors"
	"fmt"
	"io"

	"github.com/dianpeng/simpleql/catalog"
	"github.com/dianpeng/simpleql/internal/config"
	"github.com/dianpeng/simpleql/internal/logger"
	"github.com/dianpeng/simpleql/plan"
	"github.com/dianpeng/simpleql/render"
	"github.com/dianpeng/simpleql/sql"
	"github.com/google/uuid"
)

var (
	ErrUnsupported = errors.New("unsupported statement")
	ErrIsQuery     = errors.New("query must be run with Query")
)

type DB struct {
	cfg     *config.Config
	log     *logger.Logger
	catalog *catalog.Catalog
	planner *plan.Planner
}

// Open creates a DB from cfg. A nil log is replaced by a logger built from
// the log section of cfg.
func Open(cfg *config.Config, log *logger.Logger) (*DB, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		l, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
		if err != nil {
			return nil, err
		}
		log = l
	}

	c, err := catalog.New(cfg.Catalog, log)
	if err != nil {
		return nil, err
	}
	planner, err := plan.NewPlanner(c, cfg.Planner, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	return &DB{
		cfg:     cfg,
		log:     log.Named("db"),
		catalog: c,
		planner: planner,
	}, nil
}

func (self *DB) Close() error {
	err := self.catalog.Close()
	self.log.Sync()
	return err
}

func (self *DB) Catalog() *catalog.Catalog { return self.catalog }

// Result is an open query, the caller reads Scan and must call Close
type Result struct {
	ID     uuid.UUID
	Plan   plan.Plan
	Scan   plan.Scan
	Fields []string
}

func (self *Result) Close() {
	self.Scan.Close()
}

// Query plans and opens a select statement
func (self *DB) Query(text string, tx plan.Tx) (*Result, error) {
	id := uuid.New()
	log := self.log.With("query_id", id.String())

	q, err := sql.ParseQuery(text)
	if err != nil {
		log.Warn("parse failed", "sql", text, "error", err)
		return nil, err
	}
	p, err := self.planner.CreatePlan(q, tx)
	if err != nil {
		log.Warn("plan failed", "sql", text, "error", err)
		return nil, err
	}
	s, err := p.Open()
	if err != nil {
		log.Warn("open failed", "sql", text, "error", err)
		return nil, err
	}

	log.Info("query", "sql", q.String(), "fields", p.Schema().Fields())
	return &Result{
		ID:     id,
		Plan:   p,
		Scan:   s,
		Fields: p.Schema().Fields(),
	}, nil
}

// Render runs a select statement and writes its rows as a table to w
func (self *DB) Render(w io.Writer, text string, tx plan.Tx) (int, error) {
	r, err := self.Query(text, tx)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := render.Rows(w, r.Scan, r.Fields, render.OptionsFrom(self.cfg.Render))
	if err != nil {
		self.log.Warn("render failed", "query_id", r.ID.String(), "error", err)
		return 0, err
	}
	self.log.Debug("rendered", "query_id", r.ID.String(), "rows", n)
	return n, nil
}

// Explain returns the plan tree of a select statement
func (self *DB) Explain(text string, tx plan.Tx) (string, error) {
	p, err := self.planner.CreateQueryPlan(text, tx)
	if err != nil {
		return "", err
	}
	return plan.Explain(p), nil
}

// Exec runs any statement but a select and returns the number of rows it
// touched, 0 for the create statements
func (self *DB) Exec(text string, tx plan.Tx) (int, error) {
	stmt, err := sql.Parse(text)
	if err != nil {
		return 0, err
	}

	n, err := self.exec(stmt, tx)
	if err != nil {
		self.log.Warn("exec failed", "sql", stmt.String(), "error", err)
		return 0, err
	}
	self.log.Info("exec", "sql", stmt.String(), "rows", n)
	return n, nil
}

func (self *DB) exec(stmt sql.Statement, tx plan.Tx) (int, error) {
	switch x := stmt.(type) {
	case sql.Query:
		return 0, ErrIsQuery

	case *sql.CreateTableData:
		return 0, self.catalog.CreateTable(x.Table, x.Schema)

	case *sql.CreateViewData:
		// a view that cannot be planned now is refused
		if _, err := self.planner.CreatePlan(x.Query, tx); err != nil {
			return 0, fmt.Errorf("create view %s: %w", x.View, err)
		}
		return 0, self.catalog.CreateView(x.View, x.ViewDef())

	case *sql.CreateIndexData:
		return 0, self.catalog.CreateIndex(x.Index, x.Table, x.Field)

	case *sql.InsertData:
		t, err := self.catalog.Table(x.Table)
		if err != nil {
			return 0, err
		}
		if err := t.Insert(x.Fields, x.Vals); err != nil {
			return 0, err
		}
		return 1, nil

	case *sql.DeleteData:
		t, err := self.catalog.Table(x.Table)
		if err != nil {
			return 0, err
		}
		return t.Delete(x.Pred)

	case *sql.ModifyData:
		t, err := self.catalog.Table(x.Table)
		if err != nil {
			return 0, err
		}
		return t.Modify(x.Field, x.NewVal, x.Pred)

	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupported, stmt.String())
	}
}
