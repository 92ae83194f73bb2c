package sql

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestComment(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer(`
-- last line
/* block */
`)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer(`
-- abc
    id -- def
/* xyz */
`)
		assert.True(l.Next() == TkId)
		assert.True(l.Lexeme.Text == "id")
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer(`/* never closed`)
		assert.True(l.Next() == TkError)
		assert.NotNil(l.Err)
	}
}

func TestDelim(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("(),=;")
		assert.True(l.Next() == TkLPar)
		assert.True(l.Next() == TkRPar)
		assert.True(l.Next() == TkComma)
		assert.True(l.Next() == TkAssign)
		assert.True(l.Next() == TkSemicolon)
		assert.True(l.Next() == TkEof)
		assert.True(l.Next() == TkEof)
	}
}

func TestKeyword(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("select FROM Where group BY having insert into values delete update set create table view index on int varchar and as")
		for _, tk := range []int{
			TkSelect, TkFrom, TkWhere, TkGroup, TkBy, TkHaving,
			TkInsert, TkInto, TkValues, TkDelete, TkUpdate, TkSet,
			TkCreate, TkTable, TkView, TkIndex, TkOn, TkIntType,
			TkVarchar, TkAnd, TkAs,
		} {
			assert.Equal(tk, l.Next())
		}
		assert.True(l.Next() == TkEof)
	}

	// keyword prefix is an identifier
	{
		l := newLexer("selection fromage ints")
		assert.True(l.Next() == TkId)
		assert.Equal("selection", l.Lexeme.Text)
		assert.True(l.Next() == TkId)
		assert.Equal("fromage", l.Lexeme.Text)
		assert.True(l.Next() == TkId)
		assert.Equal("ints", l.Lexeme.Text)
	}
}

func TestLiteral(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("123 -45 'abc' 'a\\'b' '' MixedCase")
		assert.True(l.Next() == TkInt)
		assert.Equal(int64(123), l.Lexeme.Int)
		assert.True(l.Next() == TkInt)
		assert.Equal(int64(-45), l.Lexeme.Int)
		assert.True(l.Next() == TkStr)
		assert.Equal("abc", l.Lexeme.Text)
		assert.True(l.Next() == TkStr)
		assert.Equal("a'b", l.Lexeme.Text)
		assert.True(l.Next() == TkStr)
		assert.Equal("", l.Lexeme.Text)
		assert.True(l.Next() == TkId)
		assert.Equal("MixedCase", l.Lexeme.Text)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer("'abc")
		assert.True(l.Next() == TkError)
		var lexErr *LexError
		assert.True(errors.As(l.Fail("anything"), &lexErr))
	}

	{
		l := newLexer("a + b")
		assert.True(l.Next() == TkId)
		assert.True(l.Next() == TkError)
		assert.Contains(l.Err.Error(), "'+'")
		assert.Equal(1, l.Err.Line)
		assert.Equal(3, l.Err.Col)
		// error is sticky
		assert.True(l.Next() == TkError)
	}

	{
		l := newLexer("99999999999999999999")
		assert.True(l.Next() == TkError)
	}
}

func TestMatchEat(t *testing.T) {
	assert := assert.New(t)
	{
		l := NewLexer("select count(pay), count from t")
		assert.True(l.MatchKeyword(TkSelect))
		assert.False(l.MatchKeyword(TkFrom))
		assert.False(l.MatchDelim(TkSelect))
		assert.Nil(l.EatKeyword(TkSelect))

		assert.True(l.MatchId())
		assert.True(l.MatchCall())
		assert.True(l.MatchAggFunc())
		fn, err := l.EatAggFunc()
		assert.Nil(err)
		assert.Equal(AggCount, fn)
		assert.Nil(l.EatDelim(TkLPar))
		id, err := l.EatId()
		assert.Nil(err)
		assert.Equal("pay", id)
		assert.Nil(l.EatDelim(TkRPar))
		assert.Nil(l.EatDelim(TkComma))

		// not in function position
		assert.True(l.MatchId())
		assert.False(l.MatchCall())
		assert.False(l.MatchAggFunc())
		id, err = l.EatId()
		assert.Nil(err)
		assert.Equal("count", id)

		err = l.EatDelim(TkComma)
		var syntaxErr *SyntaxError
		assert.True(errors.As(err, &syntaxErr))
		assert.Equal("','", syntaxErr.Expected)
		assert.Equal("keyword *from*", syntaxErr.Actual)
		// a failed eat does not consume
		assert.Nil(l.EatKeyword(TkFrom))
	}

	// comments between the name and '(' keep function position
	{
		l := NewLexer("sum /* c */ (pay) sum -- c\n(pay) sum /* ( */ pay")
		assert.True(l.MatchAggFunc())
		l.Next()
		l.Next()
		l.Next()
		l.Next()
		assert.True(l.MatchAggFunc())
		l.Next()
		l.Next()
		l.Next()
		l.Next()
		assert.True(l.MatchId())
		assert.False(l.MatchCall())
	}

	// aggregate names are case sensitive
	{
		l := NewLexer("COUNT (a)")
		assert.True(l.MatchCall())
		assert.False(l.MatchAggFunc())
		_, err := l.EatAggFunc()
		assert.True(errors.Is(err, ErrUnknownAggFunc))
	}

	{
		l := NewLexer("'x' 10")
		assert.True(l.MatchStringConstant())
		s, err := l.EatStringConstant()
		assert.Nil(err)
		assert.Equal("x", s)
		_, err = l.EatStringConstant()
		assert.NotNil(err)
		i, err := l.EatIntConstant()
		assert.Nil(err)
		assert.Equal(int64(10), i)
		assert.True(l.MatchEof())
	}
}
