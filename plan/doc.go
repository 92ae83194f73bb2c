package plan

// The following documentation is used to describe how a query is executed
// once it has been planned.
//
// A plan is a tree, every node is a Plan and Open() turns the whole tree into
// a tree of Scan with the same shape. Execution is pull based, the caller
// calls Next() on the root and every node pulls from its children as needed.
// There is no goroutine anywhere, everything happens inside of the Next()
// currently executing.
//
// 1) TablePlan
//    Leaf, one per table of the from clause. The scan is whatever the catalog
//    hands out for the table.
//
// 2) ProductPlan
//    Nested loop, the left child is the outer loop, the right child is
//    rewound once per row of the left child. N tables are N-1 products,
//    folded left to right, which can be pictured as
//
//    for r0 in t0 {
//      for r1 in t1 {
//        ...
//          for rn in tn {
//            emit(r0, r1, ..., rn)
//          }
//      }
//    }
//
// 3) SelectPlan
//    Drops every row of the child not satisfying the where predicate.
//
// 4) ProjectPlan
//    Plain query only, restricts the visible fields to the select list.
//
// 5) AggregatePlan
//    Aggregate query only. The first Next() drains the child, grouping by the
//    group by fields, then every Next() walks one group. The output has one
//    field per aggregate, named fn(col), plus the group by fields, so no
//    projection is needed afterwards.
//
// 6) SelectPlan
//    Aggregate query only, the having predicate against the aggregate output.
//    When having references aggregates missing from the select list they are
//    computed as extra outputs and a last ProjectPlan drops them.
//
// Close() on the root closes every scan of the tree, whether the iteration
// ran to the end, was abandoned or failed.
