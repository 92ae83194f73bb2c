package plan

import (
	"errors"
	"testing"

	"github.com/dianpeng/simpleql/internal/config"
	"github.com/dianpeng/simpleql/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *memCatalog {
	c := newMemCatalog()
	c.tables["emp"] = empPlan()

	dinfo := sql.NewSchema()
	if err := dinfo.AddIntField("did"); err != nil {
		panic(err)
	}
	if err := dinfo.AddStringField("dname", 8); err != nil {
		panic(err)
	}
	c.tables["dinfo"] = newMemPlan(
		dinfo,
		[]sql.Constant{iv(10), sv("eng")},
		[]sql.Constant{iv(20), sv("ops")},
	)
	c.tables["nobody"] = newMemPlan(intSchema("dept", "pay"))
	return c
}

func newTestPlanner(t *testing.T, c Catalog) *Planner {
	p, err := NewPlanner(c, config.Default().Planner, nil)
	require.NoError(t, err)
	return p
}

func planQuery(t *testing.T, c Catalog, text string) Plan {
	p, err := newTestPlanner(t, c).CreateQueryPlan(text, nil)
	require.NoError(t, err, text)
	return p
}

func TestPlannerDeptPay(t *testing.T) {
	p := planQuery(
		t,
		testCatalog(),
		"select dept, sum(pay), count(pay) from emp group by dept",
	)
	assert.Equal(
		t,
		[][]string{{"10", "120", "2"}, {"20", "90", "1"}},
		drain(t, p, "dept", "sum(pay)", "count(pay)"),
	)
}

func TestPlannerEmptyTable(t *testing.T) {
	assert := assert.New(t)
	c := testCatalog()

	p := planQuery(t, c, "select count(pay) from nobody")
	assert.Equal([][]string{{"0"}}, drain(t, p, "count(pay)"))

	p = planQuery(t, c, "select dept, count(pay) from nobody group by dept")
	assert.Empty(drain(t, p, "dept", "count(pay)"))
}

func TestPlannerHaving(t *testing.T) {
	assert := assert.New(t)
	c := testCatalog()

	// no raw row has pay = 120, only the aggregated one does
	p := planQuery(t, c, "select dept, sum(pay) from emp group by dept having sum(pay) = 120")
	assert.Equal([][]string{{"10", "120"}}, drain(t, p, "dept", "sum(pay)"))

	p = planQuery(t, c, "select dept, sum(pay) from emp group by dept having 90 = sum(pay)")
	assert.Equal([][]string{{"20", "90"}}, drain(t, p, "dept", "sum(pay)"))

	// raw value of a row never reaches having
	p = planQuery(t, c, "select dept, sum(pay) from emp group by dept having sum(pay) = 50")
	assert.Empty(drain(t, p, "dept", "sum(pay)"))

	p = planQuery(t, c, "select dept, max(pay) from emp group by dept having dept = 20")
	assert.Equal([][]string{{"20", "90"}}, drain(t, p, "dept", "max(pay)"))
}

func TestPlannerHiddenHavingAggregate(t *testing.T) {
	assert := assert.New(t)

	p := planQuery(
		t,
		testCatalog(),
		"select dept, sum(pay) from emp group by dept having count(pay) = 2",
	)
	assert.Equal([]string{"dept", "sum(pay)"}, p.Schema().Fields())
	assert.Equal([][]string{{"10", "120"}}, drain(t, p, "dept", "sum(pay)"))

	s, err := p.Open()
	require.NoError(t, err)
	defer s.Close()
	ok, err := s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = s.GetVal("count(pay)")
	assert.ErrorIs(err, sql.ErrFieldNotFound)
}

func TestPlannerProductAndWhere(t *testing.T) {
	assert := assert.New(t)
	c := testCatalog()

	p := planQuery(t, c, "select dname, pay from emp, dinfo where dept = did")
	assert.Equal([]string{"dname", "pay"}, p.Schema().Fields())
	assert.Equal(
		[][]string{{"'eng'", "50"}, {"'eng'", "70"}, {"'ops'", "90"}},
		drain(t, p, "dname", "pay"),
	)

	p = planQuery(t, c, "select dname, sum(pay) from emp, dinfo where dept = did group by dname")
	assert.Equal(
		[][]string{{"'eng'", "120"}, {"'ops'", "90"}},
		drain(t, p, "dname", "sum(pay)"),
	)

	p = planQuery(t, c, "select dept, did from emp, dinfo")
	assert.Len(drain(t, p, "dept", "did"), 6)

	p = planQuery(t, c, "select pay from emp where dept = 20 and pay = 90")
	assert.Equal([][]string{{"90"}}, drain(t, p, "pay"))
}

func TestPlannerProjection(t *testing.T) {
	assert := assert.New(t)

	p := planQuery(t, testCatalog(), "select pay, pay from emp")
	assert.Equal([]string{"pay"}, p.Schema().Fields())

	s, err := p.Open()
	require.NoError(t, err)
	defer s.Close()

	ok, err := s.Next()
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(s.HasField("pay"))
	assert.False(s.HasField("dept"))

	_, err = s.GetVal("dept")
	assert.ErrorIs(err, sql.ErrFieldNotFound)
	_, err = s.GetInt("dept")
	assert.ErrorIs(err, sql.ErrFieldNotFound)

	v, err := s.GetInt("pay")
	assert.NoError(err)
	assert.Equal(int64(50), v)
}

func TestPlannerViews(t *testing.T) {
	assert := assert.New(t)

	c := testCatalog()
	c.views["rich"] = "select dept, pay from emp where dept = 10"
	c.views["richsum"] = "select dept, sum(pay) from rich group by dept"

	planner := newTestPlanner(t, c)

	p, err := planner.CreateQueryPlan("select sum(pay) from rich", nil)
	require.NoError(t, err)
	assert.Equal([][]string{{"120"}}, drain(t, p, "sum(pay)"))
	assert.Equal(1, planner.CachedViews())

	// second use of the view comes from the cache
	_, err = planner.CreateQueryPlan("select pay from rich", nil)
	require.NoError(t, err)
	assert.Equal(1, planner.CachedViews())

	// aggregate output of a view is an ordinary field for the outer query
	p, err = planner.CreateQueryPlan("select dept from richsum", nil)
	require.NoError(t, err)
	assert.Equal([][]string{{"10"}}, drain(t, p, "dept"))
	assert.Equal(2, planner.CachedViews())
}

func TestPlannerCyclicView(t *testing.T) {
	c := testCatalog()
	c.views["v1"] = "select a from v2"
	c.views["v2"] = "select a from v1"

	_, err := newTestPlanner(t, c).CreateQueryPlan("select a from v1", nil)
	assert.ErrorIs(t, err, ErrViewTooDeep)
}

func TestPlannerErrors(t *testing.T) {
	assert := assert.New(t)
	planner := newTestPlanner(t, testCatalog())

	for _, tt := range []struct {
		query string
		err   error
	}{
		{"select dept, sum(pay) from emp", sql.ErrNotGrouped},
		{"select dept, sum(pay) from emp group by dept having pay = 1", sql.ErrNotGrouped},
		{"select dept, sum(pay) from emp group by dept having sum(dname) = 1", sql.ErrFieldNotFound},
		{"select dname, sum(dname) from dinfo group by dname", sql.ErrTypeMismatch},
		{"select dept, sum(pay) from emp group by salary", sql.ErrFieldNotFound},
		{"select salary from emp", sql.ErrFieldNotFound},
		{"select dept from emp, emp", sql.ErrDuplicateField},
	} {
		_, err := planner.CreateQueryPlan(tt.query, nil)
		assert.ErrorIs(err, tt.err, tt.query)
	}

	_, err := planner.CreateQueryPlan("select dept from nosuch", nil)
	assert.Error(err)

	_, err = planner.CreateQueryPlan("select from emp", nil)
	var serr *sql.SyntaxError
	assert.True(errors.As(err, &serr))

	_, err = planner.CreateQueryPlan("delete from emp", nil)
	assert.Error(err)
}

func TestPlannerEstimates(t *testing.T) {
	assert := assert.New(t)
	c := testCatalog()

	p := planQuery(t, c, "select dept, did from emp, dinfo")
	// 1 block of emp, then 1 block of dinfo per row of emp
	assert.Equal(4, p.BlocksAccessed())
	assert.Equal(6, p.RecordsOutput())

	p = planQuery(t, c, "select pay from emp where dept = 10")
	assert.Equal(1, p.RecordsOutput()) // 3 rows, 2 distinct depts
	assert.Equal(1, p.DistinctValues("dept"))

	p = planQuery(t, c, "select dept, sum(pay) from emp group by dept")
	assert.Equal(1, p.RecordsOutput())
	assert.Equal(1, p.DistinctValues("sum(pay)"))
}

func TestPlannerClose(t *testing.T) {
	assert := assert.New(t)
	c := testCatalog()

	p := planQuery(t, c, "select dept, did from emp, dinfo")
	s, err := p.Open()
	require.NoError(t, err)
	ok, err := s.Next()
	require.NoError(t, err)
	assert.True(ok)
	s.Close()

	assert.Equal(1, c.tables["emp"].stats.closed)
	assert.Equal(1, c.tables["dinfo"].stats.closed)
}

func TestExplain(t *testing.T) {
	p := planQuery(
		t,
		testCatalog(),
		"select dept, sum(pay) from emp group by dept having sum(pay) = 90",
	)
	assert.Equal(
		t,
		`Select [sum(pay) = 90] (blocks: 1, records: 1)
  Aggregate [dept, sum(pay)] group by [dept] (blocks: 1, records: 1)
    Select [] (blocks: 1, records: 3)
      Table emp (blocks: 1, records: 3)
`,
		Explain(p),
	)

	p = planQuery(t, testCatalog(), "select pay from emp, dinfo where dept = did")
	assert.Equal(
		t,
		`Project [pay] (blocks: 4, records: 3)
  Select [dept = did] (blocks: 4, records: 3)
    Product (blocks: 4, records: 6)
      Table emp (blocks: 1, records: 3)
      Table dinfo (blocks: 1, records: 2)
`,
		Explain(p),
	)
}
