// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package matching

import (
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type matchingSuite struct{}

var _ = check.Suite(&matchingSuite{})

func (s *matchingSuite) TestSolveAssignmentPicksMinimumCost(c *check.C) {
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	assignment := SolveAssignment(cost)
	c.Assert(assignment, check.HasLen, 3)

	total := 0.0
	seen := make(map[int]bool)
	for i, j := range assignment {
		c.Check(seen[j], check.Equals, false)
		seen[j] = true
		total += cost[i][j]
	}
	// The optimal assignment here is (0,1)=1 + (1,0)=2 + (2,2)=2 = 5, or
	// any other permutation achieving the same minimum; verify optimality
	// against brute force over all permutations of a 3x3 matrix.
	best := bruteForceMin(cost)
	c.Check(total, check.Equals, best)
}

func bruteForceMin(cost [][]float64) float64 {
	n := len(cost)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	best := -1.0
	var permute func(k int)
	permute = func(k int) {
		if k == n {
			total := 0.0
			for i, j := range perm {
				total += cost[i][j]
			}
			if best < 0 || total < best {
				best = total
			}
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			permute(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	permute(0)
	return best
}

func (s *matchingSuite) TestMergePadsUnequalSizesWithZeroCost(c *check.C) {
	left := [][]byte{{1, 2}, {3, 4}}
	right := [][]byte{{1, 2}}

	result := Merge(left, right, Hamming)
	c.Assert(result.Assignment, check.HasLen, 2)
	// One left path matches the only right path at zero cost; the other
	// left path has no real counterpart and is matched to a padding slot.
	c.Check(result.TotalCost, check.Equals, 0.0)
}

func (s *matchingSuite) TestHammingCountsMismatches(c *check.C) {
	c.Check(Hamming([]byte{1, 2, 3}, []byte{1, 0, 3}), check.Equals, 1.0)
	c.Check(Hamming([]byte{1, 2}, []byte{1, 2, 3}), check.Equals, 1.0)
}
