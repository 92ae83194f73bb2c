package sql

import (
	"strings"
)

const (
	TypeInt = iota
	TypeVarchar
)

type AggFunc int

// AggNone marks a plain column inside of the select list, it is the zero value
// so a SelectItem without function is a plain column by default.
const (
	AggNone AggFunc = iota
	AggCount
	AggSum
	AggAvg
	AggMin
	AggMax
	AggRange
)

func (self AggFunc) String() string {
	switch self {
	case AggNone:
		return ""
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggAvg:
		return "avg"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggRange:
		return "range"
	default:
		return "unknown"
	}
}

// AggFuncByName maps the function name, as written in the query, to its
// AggFunc. Names are case sensitive.
func AggFuncByName(n string) (AggFunc, bool) {
	switch n {
	case "count":
		return AggCount, true
	case "sum":
		return AggSum, true
	case "avg":
		return AggAvg, true
	case "min":
		return AggMin, true
	case "max":
		return AggMax, true
	case "range":
		return AggRange, true
	default:
		return AggNone, false
	}
}

func IsAggFunc(n string) bool {
	_, ok := AggFuncByName(n)
	return ok
}

// AggFieldName returns the output field name of an aggregated column, ie
// sum(pay). The same spelling is used by the having clause to reference the
// aggregated value.
func AggFieldName(fn AggFunc, field string) string {
	return fn.String() + "(" + field + ")"
}

// SplitAggFieldName is the reverse of AggFieldName. It returns false when the
// name does not have the fn(field) shape or fn is not a known function.
func SplitAggFieldName(name string) (AggFunc, string, bool) {
	lpar := strings.IndexByte(name, '(')
	if lpar <= 0 || !strings.HasSuffix(name, ")") {
		return AggNone, "", false
	}
	fn, ok := AggFuncByName(name[:lpar])
	if !ok {
		return AggNone, "", false
	}
	field := name[lpar+1 : len(name)-1]
	if field == "" {
		return AggNone, "", false
	}
	return fn, field, true
}
