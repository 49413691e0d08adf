// Package solver decides outlives obligations against a function's declared
// where-clauses.
package solver

import (
	"github.com/funvibe/regionck/internal/regions"
)

// Solve judges one obligation. A region obligation 'a: 'b holds when 'a is
// 'b or 'static, or when 'b is reachable from 'a over declared region edges.
// A type obligation T: 'b holds when some declared T: 'x reaches 'b the same
// way. Any path suffices.
func Solve(o regions.Obligation, where *regions.WhereClauseSet) regions.Status {
	if o.Subject.IsRegion {
		if outlives(o.Subject.Region, o.Target, where) {
			return regions.Satisfied
		}
		return regions.Violated
	}

	for _, declared := range where.TypeBounds(o.Subject.Param) {
		if outlives(declared, o.Target, where) {
			return regions.Satisfied
		}
	}
	return regions.Violated
}

func outlives(from, to regions.RegionVid, where *regions.WhereClauseSet) bool {
	if from == to || from == regions.Static {
		return true
	}

	visited := map[regions.RegionVid]bool{from: true}
	queue := []regions.RegionVid{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range where.RegionBounds(cur) {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// SolveAll settles every judgement of a check. It returns the number of
// violations.
func SolveAll(check *regions.FnCheck) (int, error) {
	violations := 0
	for _, j := range check.Judgements {
		status := Solve(j.Obligation, check.Where)
		if err := j.Settle(status); err != nil {
			return violations, err
		}
		if status == regions.Violated {
			violations++
		}
	}
	return violations, nil
}
