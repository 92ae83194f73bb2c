// Package catalog is the metadata collaborator of the planner: base tables
// held in memory and view definitions held in a pebble database.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dianpeng/simpleql/internal/config"
	"github.com/dianpeng/simpleql/internal/logger"
	"github.com/dianpeng/simpleql/plan"
	"github.com/dianpeng/simpleql/sql"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrNameInUse     = errors.New("name already used by a table, view or index")
)

// IndexInfo records a created index, no scan ever uses it
type IndexInfo struct {
	Name  string
	Table string
	Field string
}

type Catalog struct {
	tables       map[string]*Table
	indexes      map[string]IndexInfo
	views        *Views
	rowsPerBlock int
	log          *logger.Logger
}

func New(cfg config.CatalogConfig, log *logger.Logger) (*Catalog, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.RowsPerBlock < 1 {
		return nil, fmt.Errorf("catalog: rows per block must be positive, got %d", cfg.RowsPerBlock)
	}
	views, err := OpenViews(cfg.ViewDir)
	if err != nil {
		return nil, err
	}
	return &Catalog{
		tables:       make(map[string]*Table),
		indexes:      make(map[string]IndexInfo),
		views:        views,
		rowsPerBlock: cfg.RowsPerBlock,
		log:          log.Named("catalog"),
	}, nil
}

func (self *Catalog) Close() error {
	return self.views.Close()
}

func (self *Catalog) nameInUse(name string) (bool, error) {
	if _, ok := self.tables[name]; ok {
		return true, nil
	}
	if _, ok := self.indexes[name]; ok {
		return true, nil
	}
	_, ok, err := self.views.Get(name)
	return ok, err
}

func (self *Catalog) CreateTable(name string, schema *sql.Schema) error {
	if used, err := self.nameInUse(name); err != nil {
		return err
	} else if used {
		return fmt.Errorf("create table: %w: %s", ErrNameInUse, name)
	}
	self.tables[name] = newTable(name, schema, self.rowsPerBlock)
	self.log.Debug("create table", "table", name, "schema", schema.String())
	return nil
}

// Table returns the base table, views are not tables
func (self *Catalog) Table(name string) (*Table, error) {
	t, ok := self.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

// Tables returns the name of every base table, sorted
func (self *Catalog) Tables() []string {
	out := make([]string, 0, len(self.tables))
	for n := range self.tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CreateView stores the query text of a view, the text is not checked here
func (self *Catalog) CreateView(name, def string) error {
	if used, err := self.nameInUse(name); err != nil {
		return err
	} else if used {
		return fmt.Errorf("create view: %w: %s", ErrNameInUse, name)
	}
	if err := self.views.Set(name, def); err != nil {
		return err
	}
	self.log.Debug("create view", "view", name, "definition", def)
	return nil
}

func (self *Catalog) Views() ([]string, error) {
	return self.views.Names()
}

func (self *Catalog) CreateIndex(name, table, field string) error {
	if used, err := self.nameInUse(name); err != nil {
		return err
	} else if used {
		return fmt.Errorf("create index: %w: %s", ErrNameInUse, name)
	}
	t, err := self.Table(table)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if !t.Schema().HasField(field) {
		return fmt.Errorf("create index: %w: %s.%s", sql.ErrFieldNotFound, table, field)
	}
	self.indexes[name] = IndexInfo{
		Name:  name,
		Table: table,
		Field: field,
	}
	self.log.Debug("create index", "index", name, "table", table, "field", field)
	return nil
}

// Indexes returns the indexes of a table, sorted by name
func (self *Catalog) Indexes(table string) []IndexInfo {
	out := []IndexInfo{}
	for _, idx := range self.indexes {
		if idx.Table == table {
			out = append(out, idx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ----------------------------------------------------------------------------
// plan.Catalog
// ----------------------------------------------------------------------------

func (self *Catalog) ViewDef(name string, tx plan.Tx) (string, bool, error) {
	return self.views.Get(name)
}

func (self *Catalog) OpenTable(name string, tx plan.Tx) (plan.Plan, error) {
	t, err := self.Table(name)
	if err != nil {
		return nil, err
	}
	return t, nil
}
