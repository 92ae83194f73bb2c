package plan

import (
	"fmt"
	"strings"
)

// Printing the plan tree out, for testing, debugging, visualization purpose
// etc ... One node per line, children indented by 2 spaces, ie
//
//   Project [dept, sum(pay)] (blocks: 1, records: 1)
//     Select [sum(pay) = 10] (blocks: 1, records: 1)
//       Aggregate [dept, sum(pay)] group by [dept] (blocks: 1, records: 1)
//         Select [] (blocks: 1, records: 4)
//           Table emp (blocks: 1, records: 4)

func Explain(p Plan) string {
	buf := &strings.Builder{}
	explain(p, 0, buf)
	return buf.String()
}

func explainStat(p Plan) string {
	return fmt.Sprintf("(blocks: %d, records: %d)", p.BlocksAccessed(), p.RecordsOutput())
}

func explain(p Plan, depth int, buf *strings.Builder) {
	buf.WriteString(strings.Repeat("  ", depth))

	switch x := p.(type) {
	case *TablePlan:
		buf.WriteString(fmt.Sprintf("Table %s %s\n", x.Name, explainStat(x)))
		break

	case *ProductPlan:
		buf.WriteString(fmt.Sprintf("Product %s\n", explainStat(x)))
		explain(x.p1, depth+1, buf)
		explain(x.p2, depth+1, buf)
		break

	case *SelectPlan:
		buf.WriteString(fmt.Sprintf("Select [%s] %s\n", x.pred.String(), explainStat(x)))
		explain(x.p, depth+1, buf)
		break

	case *ProjectPlan:
		buf.WriteString(fmt.Sprintf(
			"Project [%s] %s\n",
			strings.Join(x.schema.Fields(), ", "),
			explainStat(x),
		))
		explain(x.p, depth+1, buf)
		break

	case *AggregatePlan:
		items := []string{}
		for _, it := range x.items {
			items = append(items, it.String())
		}
		buf.WriteString(fmt.Sprintf(
			"Aggregate [%s] group by [%s] %s\n",
			strings.Join(items, ", "),
			strings.Join(x.groupBy, ", "),
			explainStat(x),
		))
		explain(x.p, depth+1, buf)
		break

	default:
		// leaf plan handed out by the catalog
		buf.WriteString(fmt.Sprintf("%T [%s] %s\n", p, p.Schema().String(), explainStat(p)))
		break
	}
}
