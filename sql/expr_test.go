package sql

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

type mapRow map[string]Constant

func (self mapRow) GetVal(field string) (Constant, error) {
	if v, ok := self[field]; ok {
		return v, nil
	}
	return Constant{}, ErrFieldNotFound
}

func TestConstant(t *testing.T) {
	assert := assert.New(t)

	assert.True(NewIntConstant(1).Equal(NewIntConstant(1)))
	assert.False(NewIntConstant(1).Equal(NewIntConstant(2)))
	assert.False(NewIntConstant(1).Equal(NewStrConstant("1")))
	assert.True(NewStrConstant("a").Equal(NewStrConstant("a")))

	{
		c, err := NewIntConstant(1).Compare(NewIntConstant(2))
		assert.Nil(err)
		assert.Equal(-1, c)
	}
	{
		c, err := NewStrConstant("b").Compare(NewStrConstant("a"))
		assert.Nil(err)
		assert.Equal(1, c)
	}
	{
		_, err := NewStrConstant("b").Compare(NewIntConstant(1))
		assert.True(errors.Is(err, ErrTypeMismatch))
	}

	assert.Equal("-3", NewIntConstant(-3).String())
	assert.Equal("'a\\'b'", NewStrConstant("a'b").String())
}

func TestPredicate(t *testing.T) {
	assert := assert.New(t)
	row := mapRow{
		"a": NewIntConstant(1),
		"b": NewStrConstant("x"),
		"c": NewIntConstant(1),
	}

	{
		p := NewPredicate()
		assert.True(p.IsEmpty())
		assert.Equal("", p.String())
		ok, err := p.IsSatisfied(row)
		assert.Nil(err)
		assert.True(ok)
	}

	{
		p, err := ParsePredicate("a = 1 and b = 'x' and a = c")
		assert.Nil(err)
		ok, err := p.IsSatisfied(row)
		assert.Nil(err)
		assert.True(ok)

		c, ok := p.EquatesWithConstant("b")
		assert.True(ok)
		assert.Equal(NewStrConstant("x"), c)
		f, ok := p.EquatesWithField("c")
		assert.True(ok)
		assert.Equal("a", f)
		_, ok = p.EquatesWithField("b")
		assert.False(ok)
		assert.Equal([]string{"a", "b", "a", "c"}, p.Fields())
	}

	{
		p, err := ParsePredicate("a = 1 and b = 'y'")
		assert.Nil(err)
		ok, err := p.IsSatisfied(row)
		assert.Nil(err)
		assert.False(ok)
	}

	// different tags never equal
	{
		p, err := ParsePredicate("a = '1'")
		assert.Nil(err)
		ok, err := p.IsSatisfied(row)
		assert.Nil(err)
		assert.False(ok)
	}

	{
		p, err := ParsePredicate("missing = 1")
		assert.Nil(err)
		_, err = p.IsSatisfied(row)
		assert.True(errors.Is(err, ErrFieldNotFound))
	}

	{
		p1, _ := ParsePredicate("a = 1")
		p2, _ := ParsePredicate("b = 'x' and c = 1")
		p1.ConjoinWith(p2)
		assert.Equal("a = 1 and b = 'x' and c = 1", p1.String())
		assert.Equal(1, len(NewPredicate(NewTerm(&FieldRef{Name: "a"}, &ConstExpr{Value: NewIntConstant(1)})).Terms))
	}
}

func TestSchema(t *testing.T) {
	assert := assert.New(t)

	s := NewSchema()
	assert.Nil(s.AddIntField("a"))
	assert.Nil(s.AddStringField("b", 8))
	assert.True(errors.Is(s.AddIntField("a"), ErrDuplicateField))
	assert.Equal([]string{"a", "b"}, s.Fields())
	assert.Equal("a int, b varchar(8)", s.String())

	s2 := NewSchema()
	assert.Nil(s2.Add("b", s))
	assert.True(errors.Is(s2.Add("zz", s), ErrFieldNotFound))
	assert.True(errors.Is(s2.AddAll(s), ErrDuplicateField))
	info, ok := s2.Info("b")
	assert.True(ok)
	assert.Equal(FieldInfo{Type: TypeVarchar, Length: 8}, info)
	assert.False(s2.HasField("a"))
}

func TestAggFieldName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("range(pay)", AggFieldName(AggRange, "pay"))
	{
		fn, f, ok := SplitAggFieldName("avg(pay)")
		assert.True(ok)
		assert.Equal(AggAvg, fn)
		assert.Equal("pay", f)
	}
	for _, bad := range []string{"pay", "median(pay)", "sum()", "(pay)", "sum(pay"} {
		_, _, ok := SplitAggFieldName(bad)
		assert.False(ok, bad)
	}
}
