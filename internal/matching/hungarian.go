// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package matching computes the minimum-cost assignment between two
// subgraphs' generated paths at a shared boundary, implementing distilled
// spec §4.7's pairwise merge step, grounded on
// _examples/original_source/src/reduce_samples_task.cc's
// merge_subgraph_paths_task. No library in the retrieved corpus provides
// rectangular min-cost bipartite assignment (the Hungarian algorithm), so
// it is hand-rolled here; see DESIGN.md.
package matching

import "math"

// SolveAssignment returns, for each row i of the n x n cost matrix, the
// column assigned to it, minimizing total cost. cost must be square; pad
// with a neutral (zero) cost beforehand if the two sides have unequal
// cardinality, mirroring the original's practice of padding the smaller
// subgraph's path set to match the larger.
func SolveAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}

	const inf = math.MaxFloat64 / 2

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j] = row currently assigned to column j, 0 = none
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	result := make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			result[p[j]-1] = j - 1
		}
	}
	return result
}
