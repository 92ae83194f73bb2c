package plan

import (
	"fmt"
	"github.com/dianpeng/simpleql/sql"
)

// Semantic checking, just check obvious sql semantic bugs of an aggregate
// query before any scan is opened
//
// ----------------------------------------------------------------------------
//
// [1] every group by field must exist in the input of the aggregation
//
// [2] plain columns of the select list *MUST* show up in group by, their value
//     is the group key
//
// [3] aggregated columns must exist, and all functions but count only work
//     on int columns
//
// [4] having may only reference group by fields and fn(col) names, fn(col)
//     follows the rule of [3]. The fn(col) references are returned so the
//     planner can compute the ones missing from the select list
//
// ----------------------------------------------------------------------------

func semaErr(err error) error {
	return fmt.Errorf("stage(sema): %w", err)
}

func hasName(list []string, n string) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}

func checkAggItem(input *sql.Schema, it sql.SelectItem) error {
	switch it.Func {
	case sql.AggCount, sql.AggSum, sql.AggAvg, sql.AggMin, sql.AggMax, sql.AggRange:
		break
	default:
		return semaErr(unknownAggFunc(it.Func))
	}

	info, ok := input.Info(it.Field)
	if !ok {
		return semaErr(
			fmt.Errorf("%s: %w", it.OutputName(), fieldNotFound(it.Field)),
		)
	}
	if it.Func != sql.AggCount && info.Type != sql.TypeInt {
		return semaErr(
			fmt.Errorf(
				"%w: %s needs an int column, %s is not",
				sql.ErrTypeMismatch,
				it.Func,
				it.Field,
			),
		)
	}
	return nil
}

func checkAggregate(
	input *sql.Schema,
	items []sql.SelectItem,
	groupBy []string,
) error {
	// [1]
	for _, g := range groupBy {
		if !input.HasField(g) {
			return semaErr(fmt.Errorf("group by: %w", fieldNotFound(g)))
		}
	}

	for _, it := range items {
		if it.IsAggregated() {
			// [3]
			if err := checkAggItem(input, it); err != nil {
				return err
			}
		} else if !hasName(groupBy, it.Field) {
			// [2]
			return semaErr(fmt.Errorf("%w: %s", sql.ErrNotGrouped, it.Field))
		}
	}
	return nil
}

// [4], returns the aggregates referenced by having, deduplicated and in order
// of appearance
func checkHaving(
	input *sql.Schema,
	having *sql.Predicate,
	groupBy []string,
) ([]sql.SelectItem, error) {
	out := []sql.SelectItem{}
	seen := make(map[string]bool)

	for _, f := range having.Fields() {
		if hasName(groupBy, f) || seen[f] {
			continue
		}
		fn, col, ok := sql.SplitAggFieldName(f)
		if !ok {
			return nil, semaErr(
				fmt.Errorf("having: %w: %s", sql.ErrNotGrouped, f),
			)
		}
		it := sql.SelectItem{
			Func:  fn,
			Field: col,
		}
		if err := checkAggItem(input, it); err != nil {
			return nil, err
		}
		seen[f] = true
		out = append(out, it)
	}
	return out, nil
}

// hiddenAggregates returns the aggregates of having that the select list does
// not compute already
func hiddenAggregates(items []sql.SelectItem, having []sql.SelectItem) []sql.SelectItem {
	out := []sql.SelectItem{}
	for _, h := range having {
		found := false
		for _, it := range items {
			if it == h {
				found = true
				break
			}
		}
		if !found {
			out = append(out, h)
		}
	}
	return out
}
